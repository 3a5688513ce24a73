// Package ids provides id allocation for the entity stores. Allocators are
// injected into services so tests can supply deterministic sequences.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind names an entity family for allocation purposes.
type Kind string

const (
	KindPatient     Kind = "PATIENT"
	KindDoctor      Kind = "DOCTOR"
	KindAppointment Kind = "APPOINTMENT"
	KindBill        Kind = "BILL"
)

// Allocator hands out unique string ids per entity kind.
type Allocator interface {
	Next(kind Kind) string
}

var kindPrefixes = map[Kind]string{
	KindPatient:     "P",
	KindDoctor:      "D",
	KindAppointment: "A",
	KindBill:        "B",
}

// Prefix returns the id prefix letter for a kind.
func Prefix(kind Kind) string {
	if p, ok := kindPrefixes[kind]; ok {
		return p
	}
	return "X"
}

// Prefixed allocates compact human-readable ids like P0001, D0042. Safe for
// concurrent use.
type Prefixed struct {
	mu       sync.Mutex
	counters map[Kind]uint64
}

func NewPrefixed() *Prefixed {
	return &Prefixed{counters: make(map[Kind]uint64)}
}

func (p *Prefixed) Next(kind Kind) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counters[kind]++
	prefix, ok := kindPrefixes[kind]
	if !ok {
		prefix = "X"
	}
	return fmt.Sprintf("%s%04d", prefix, p.counters[kind])
}

// Advance moves a kind's counter forward so future ids do not collide with
// already-loaded data. It never moves a counter backwards.
func (p *Prefixed) Advance(kind Kind, seen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seen > p.counters[kind] {
		p.counters[kind] = seen
	}
}

// UUIDv7 allocates time-ordered UUID ids, ignoring the kind.
type UUIDv7 struct{}

func (UUIDv7) Next(Kind) string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than surfacing an error on every allocation site.
		return uuid.NewString()
	}
	return id.String()
}
