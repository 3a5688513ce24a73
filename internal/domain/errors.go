package domain

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or out-of-range input. It is always
// detected before any mutation takes place.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func validationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ConflictError reports a scheduling overlap with an existing appointment.
// It carries the blocking appointment's identity and time window for
// user-facing diagnostics.
type ConflictError struct {
	AppointmentID string
	Start         time.Time
	End           time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with appointment %s (%s - %s)",
		e.AppointmentID,
		e.Start.Format("02/01/2006 15:04"),
		e.End.Format("15:04"))
}

// IllegalTransitionError reports a status-machine violation.
type IllegalTransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *IllegalTransitionError) Error() string {
	if e.From.IsFinal() {
		return fmt.Sprintf("cannot transition from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}
