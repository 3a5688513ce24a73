package store

import (
	"fmt"
	"time"
)

// Snapshot is a time-frozen copy of a store's contents, used for backup,
// restore, and export. It is independent of the store it was taken from.
type Snapshot[T any] struct {
	storeName string
	entries   map[string]T
	takenAt   time.Time
}

// NewSnapshot builds a snapshot from a loose mapping, e.g. when importing
// from an external source. The mapping is copied.
func NewSnapshot[T any](storeName string, entries map[string]T) Snapshot[T] {
	data := make(map[string]T, len(entries))
	for k, v := range entries {
		data[k] = v
	}
	return Snapshot[T]{
		storeName: storeName,
		entries:   data,
		takenAt:   time.Now().UTC(),
	}
}

func (s Snapshot[T]) StoreName() string { return s.storeName }

func (s Snapshot[T]) TakenAt() time.Time { return s.takenAt }

func (s Snapshot[T]) Len() int { return len(s.entries) }

// Get returns the value captured under key at snapshot time.
func (s Snapshot[T]) Get(key string) (T, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Entries returns a copy of the captured mapping.
func (s Snapshot[T]) Entries() map[string]T {
	out := make(map[string]T, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Values returns a copy of the captured values in unspecified order.
func (s Snapshot[T]) Values() []T {
	out := make([]T, 0, len(s.entries))
	for _, v := range s.entries {
		out = append(out, v)
	}
	return out
}

func (s Snapshot[T]) String() string {
	return fmt.Sprintf("snapshot of %s (%d entries) taken at %s",
		s.storeName, len(s.entries), s.takenAt.Format(time.RFC3339))
}
