package store

import "fmt"

// Page is one slice of a paginated listing. PageNumber is 0-based.
type Page[T any] struct {
	Content       []T
	PageNumber    int
	PageSize      int
	TotalElements int
	TotalPages    int
}

func (p Page[T]) HasNext() bool     { return p.PageNumber < p.TotalPages-1 }
func (p Page[T]) HasPrevious() bool { return p.PageNumber > 0 }
func (p Page[T]) IsFirst() bool     { return p.PageNumber == 0 }
func (p Page[T]) IsLast() bool      { return p.PageNumber >= p.TotalPages-1 }

func (p Page[T]) String() string {
	return fmt.Sprintf("page %d of %d (%d of %d items)",
		p.PageNumber+1, p.TotalPages, len(p.Content), p.TotalElements)
}
