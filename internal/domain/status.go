package domain

import "strings"

// AppointmentStatus is the lifecycle state of an appointment. Final statuses
// permit no further transitions.
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "PENDING"
	StatusConfirmed   AppointmentStatus = "CONFIRMED"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
	StatusInProgress  AppointmentStatus = "IN_PROGRESS"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusNoShow      AppointmentStatus = "NO_SHOW"
)

var allStatuses = []AppointmentStatus{
	StatusPending, StatusConfirmed, StatusRescheduled, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

func AllStatuses() []AppointmentStatus {
	out := make([]AppointmentStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus resolves a status from its wire form, case-insensitively.
func ParseStatus(s string) (AppointmentStatus, bool) {
	norm := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range allStatuses {
		if st == norm {
			return st, true
		}
	}
	return "", false
}

func (s AppointmentStatus) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// AllowsModification reports whether appointment details (time, duration)
// may still be changed in this status.
func (s AppointmentStatus) AllowsModification() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) IsBillable() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether the status machine permits moving from s
// to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s.IsFinal() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusRescheduled
	case StatusConfirmed:
		return next == StatusInProgress || next == StatusCompleted ||
			next == StatusCancelled || next == StatusNoShow || next == StatusRescheduled
	case StatusRescheduled:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// ValidTransitions returns every status reachable from s in one step.
func (s AppointmentStatus) ValidTransitions() []AppointmentStatus {
	var out []AppointmentStatus
	for _, next := range allStatuses {
		if s.CanTransitionTo(next) {
			out = append(out, next)
		}
	}
	return out
}

// Priority orders statuses for display, higher first.
func (s AppointmentStatus) Priority() int {
	switch s {
	case StatusInProgress:
		return 5
	case StatusConfirmed:
		return 4
	case StatusPending:
		return 3
	case StatusRescheduled:
		return 2
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return 1
	}
	return 0
}
