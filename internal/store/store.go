// Package store provides a generic, concurrency-safe keyed container with
// predicate queries, sorted listing, pagination, and point-in-time snapshots.
// It is the system of record for every entity type in the application.
//
// Predicates and comparators run while the store's lock is held; callers must
// not invoke operations on the same store from inside a callback, or the
// goroutine will deadlock on its own lock.
package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Searchable is implemented by values that can answer free-text queries over
// their own fields.
type Searchable interface {
	Matches(term string) bool
}

// Store is a keyed in-memory container. Any number of readers proceed
// concurrently; writers are exclusive. The zero value is not usable, use New.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]T

	name         string
	createdAt    time.Time
	lastModified time.Time
	ops          uint64
}

// New returns an empty store. The name is used only for diagnostics.
func New[T any](name string) *Store[T] {
	now := time.Now().UTC()
	return &Store[T]{
		entries:      make(map[string]T),
		name:         name,
		createdAt:    now,
		lastModified: now,
	}
}

func (s *Store[T]) Name() string { return s.name }

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}

// isNil reports whether v is a nil pointer, map, slice, interface, func, or
// channel. Plain value types are never nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// touch must be called with the write lock held.
func (s *Store[T]) touch() {
	s.lastModified = time.Now().UTC()
	s.ops++
}

// Put stores value under key, returning the previous value if the key
// already existed.
func (s *Store[T]) Put(key string, value T) (prev T, replaced bool, err error) {
	if err := validateKey(key); err != nil {
		return prev, false, err
	}
	if isNil(value) {
		return prev, false, ErrNilValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, replaced = s.entries[key]
	s.entries[key] = value
	s.touch()
	return prev, replaced, nil
}

// Get returns the value stored under key. Missing or blank keys yield the
// zero value and false; Get never fails.
func (s *Store[T]) Get(key string) (T, bool) {
	var zero T
	if strings.TrimSpace(key) == "" {
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOrDefault returns the value stored under key, or def when absent.
func (s *Store[T]) GetOrDefault(key string, def T) T {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Update overwrites the value under key only if the key already exists.
// It reports whether the update took place.
func (s *Store[T]) Update(key string, value T) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if isNil(value) {
		return false, ErrNilValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	s.entries[key] = value
	s.touch()
	return true, nil
}

// Remove deletes the entry under key, returning the removed value.
func (s *Store[T]) Remove(key string) (T, bool) {
	var zero T
	if strings.TrimSpace(key) == "" {
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	delete(s.entries, key)
	s.touch()
	return v, true
}

func (s *Store[T]) Contains(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]T)
	s.touch()
}

// PutAll stores every entry as a single atomic batch: readers observe either
// none or all of it. All entries are validated before any is applied.
func (s *Store[T]) PutAll(entries map[string]T) error {
	for key, value := range entries {
		if err := validateKey(key); err != nil {
			return fmt.Errorf("batch key %q: %w", key, err)
		}
		if isNil(value) {
			return fmt.Errorf("batch key %q: %w", key, ErrNilValue)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range entries {
		s.entries[key] = value
	}
	if len(entries) > 0 {
		s.touch()
	}
	return nil
}

// RemoveAll deletes every listed key as a single atomic batch and returns the
// removed values. Keys that are absent are skipped.
func (s *Store[T]) RemoveAll(keys []string) []T {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]T, 0, len(keys))
	for _, key := range keys {
		if v, ok := s.entries[key]; ok {
			delete(s.entries, key)
			removed = append(removed, v)
		}
	}
	if len(removed) > 0 {
		s.touch()
	}
	return removed
}

// Values returns a copy of all stored values in unspecified order.
func (s *Store[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.entries))
	for _, v := range s.entries {
		out = append(out, v)
	}
	return out
}

// Keys returns a copy of all live keys in unspecified order.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}

// SortedValues returns all values ordered by less.
func (s *Store[T]) SortedValues(less func(a, b T) bool) []T {
	out := s.Values()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// FindWhere returns every value matching pred, evaluated over a read-locked
// point-in-time view. A nil pred matches everything.
func (s *Store[T]) FindWhere(pred func(T) bool) []T {
	if pred == nil {
		return s.Values()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for _, v := range s.entries {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// FindFirst returns some value matching pred. With multiple matches the
// choice is unspecified; use FindWhere plus sorting when order matters.
func (s *Store[T]) FindFirst(pred func(T) bool) (T, bool) {
	var zero T
	if pred == nil {
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.entries {
		if pred(v) {
			return v, true
		}
	}
	return zero, false
}

// CountWhere returns how many values match pred. A nil pred counts all.
func (s *Store[T]) CountWhere(pred func(T) bool) int {
	if pred == nil {
		return s.Len()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.entries {
		if pred(v) {
			n++
		}
	}
	return n
}

func (s *Store[T]) AnyMatch(pred func(T) bool) bool {
	if pred == nil {
		return s.Len() > 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.entries {
		if pred(v) {
			return true
		}
	}
	return false
}

func (s *Store[T]) AllMatch(pred func(T) bool) bool {
	if pred == nil {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.entries {
		if !pred(v) {
			return false
		}
	}
	return true
}

// Search returns every value whose Searchable implementation matches term.
// Values that do not implement Searchable never match. A blank term returns
// all values.
func (s *Store[T]) Search(term string) []T {
	if strings.TrimSpace(term) == "" {
		return s.Values()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for _, v := range s.entries {
		if m, ok := any(v).(Searchable); ok && m.Matches(term) {
			out = append(out, v)
		}
	}
	return out
}

// Page returns the 0-based pageNumber of size pageSize, ordered by less when
// non-nil. Page numbers past the last page yield an empty page, not an error.
func (s *Store[T]) Page(pageNumber, pageSize int, less func(a, b T) bool) (Page[T], error) {
	if pageNumber < 0 {
		return Page[T]{}, fmt.Errorf("%w: page number %d must not be negative", ErrInvalidPage, pageNumber)
	}
	if pageSize <= 0 {
		return Page[T]{}, fmt.Errorf("%w: page size %d must be positive", ErrInvalidPage, pageSize)
	}

	var all []T
	if less != nil {
		all = s.SortedValues(less)
	} else {
		all = s.Values()
	}

	totalElements := len(all)
	totalPages := (totalElements + pageSize - 1) / pageSize

	page := Page[T]{
		PageNumber:    pageNumber,
		PageSize:      pageSize,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}

	start := pageNumber * pageSize
	if start >= totalElements {
		page.Content = []T{}
		return page, nil
	}

	end := min(start+pageSize, totalElements)
	page.Content = all[start:end]
	return page, nil
}

// Snapshot captures an immutable copy of the current contents. Later
// mutations to the store never affect the snapshot, and vice versa.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]T, len(s.entries))
	for k, v := range s.entries {
		data[k] = v
	}
	return Snapshot[T]{
		storeName: s.name,
		entries:   data,
		takenAt:   time.Now().UTC(),
	}
}

// Restore atomically replaces the store's contents with the snapshot's.
func (s *Store[T]) Restore(snap Snapshot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]T, len(snap.entries))
	for k, v := range snap.entries {
		s.entries[k] = v
	}
	s.touch()
}

// Stats describes store metadata at a point in time.
type Stats struct {
	Name         string
	Size         int
	Operations   uint64
	CreatedAt    time.Time
	LastModified time.Time
}

func (s *Store[T]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Name:         s.name,
		Size:         len(s.entries),
		Operations:   s.ops,
		CreatedAt:    s.createdAt,
		LastModified: s.lastModified,
	}
}
