package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxDurationMinutes bounds a single appointment at eight hours.
	MaxDurationMinutes = 480
	// DefaultDurationMinutes is used when the caller does not pick a duration.
	DefaultDurationMinutes = 30
	// ReminderLead is how long before the start time a reminder becomes due.
	ReminderLead = 24 * time.Hour
)

// Appointment is a scheduled visit of a patient to a doctor. The scheduled
// window is the half-open interval [StartTime, StartTime+Duration).
//
// Appointments are value types: lifecycle methods mutate the receiver copy,
// and callers persist the mutated copy back into the store.
type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string

	StartTime       time.Time
	DurationMinutes int
	Status          AppointmentStatus

	ReasonForVisit  string
	AppointmentType string
	Symptoms        string
	Diagnosis       string
	Prescription    string
	Notes           string

	ConsultationFee float64
	Emergency       bool
	ReminderSent    bool

	RescheduleCount    int
	CancellationReason string
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduledEndTime is the exclusive end of the scheduled window.
func (a Appointment) ScheduledEndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Window returns the appointment's scheduled interval.
func (a Appointment) Window() Interval {
	return Interval{Start: a.StartTime, End: a.ScheduledEndTime()}
}

func (a Appointment) IsOverdue(now time.Time) bool {
	return a.StartTime.Before(now) && !a.Status.IsFinal() && a.Status != StatusInProgress
}

// NeedsReminder reports whether a reminder is due: none sent yet, the
// appointment is still live, and it starts within the next ReminderLead.
func (a Appointment) NeedsReminder(now time.Time) bool {
	if a.ReminderSent || a.Status.IsFinal() || a.StartTime.IsZero() {
		return false
	}
	return now.After(a.StartTime.Add(-ReminderLead))
}

// MarkReminderSent records that the patient has been reminded. Each
// appointment is reminded at most once.
func (a *Appointment) MarkReminderSent(now time.Time) {
	a.ReminderSent = true
	a.UpdatedAt = now.UTC()
}

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return validationError("id", "is required")
	}
	if strings.TrimSpace(a.PatientID) == "" {
		return validationError("patientId", "is required")
	}
	if strings.TrimSpace(a.DoctorID) == "" {
		return validationError("doctorId", "is required")
	}
	if a.StartTime.IsZero() {
		return validationError("startTime", "is required")
	}
	if a.DurationMinutes <= 0 {
		return validationError("durationMinutes", "must be positive")
	}
	if a.DurationMinutes > MaxDurationMinutes {
		return validationError("durationMinutes", "must not exceed 8 hours")
	}
	if strings.TrimSpace(a.ReasonForVisit) == "" {
		return validationError("reasonForVisit", "is required")
	}
	return nil
}

// transitionTo enforces the status machine. Every lifecycle method funnels
// through it, so an illegal attempt never leaves partial state.
func (a *Appointment) transitionTo(next AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return &IllegalTransitionError{From: a.Status, To: next}
	}
	a.Status = next
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm moves a pending or rescheduled appointment to confirmed.
func (a *Appointment) Confirm() error {
	return a.transitionTo(StatusConfirmed)
}

// Start marks a confirmed appointment as in progress and records the actual
// start instant.
func (a *Appointment) Start(now time.Time) error {
	if err := a.transitionTo(StatusInProgress); err != nil {
		return err
	}
	now = now.UTC()
	a.ActualStartTime = &now
	return nil
}

// Complete finishes an in-progress appointment. A diagnosis is required;
// prescription and notes are optional.
func (a *Appointment) Complete(diagnosis, prescription, notes string, now time.Time) error {
	if strings.TrimSpace(diagnosis) == "" {
		return validationError("diagnosis", "is required to complete an appointment")
	}
	end := now.UTC()
	if a.ActualStartTime != nil && end.Before(*a.ActualStartTime) {
		return validationError("actualEndTime", "must not precede actual start time")
	}
	if err := a.transitionTo(StatusCompleted); err != nil {
		return err
	}
	a.Diagnosis = diagnosis
	a.Prescription = prescription
	if strings.TrimSpace(notes) != "" {
		a.appendNote(notes)
	}
	a.ActualEndTime = &end
	return nil
}

// Cancel aborts any non-final appointment. A reason is required.
func (a *Appointment) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return validationError("reason", "is required to cancel an appointment")
	}
	if err := a.transitionTo(StatusCancelled); err != nil {
		return err
	}
	a.CancellationReason = reason
	return nil
}

// MarkNoShow records that the patient did not turn up for a confirmed
// appointment.
func (a *Appointment) MarkNoShow() error {
	return a.transitionTo(StatusNoShow)
}

// Reschedule moves the appointment to newStart keeping its duration.
// The caller is responsible for running the scheduling-conflict check
// before invoking this; see service/appointments.
func (a *Appointment) Reschedule(newStart time.Time, reason string, now time.Time) error {
	if !a.Status.AllowsModification() {
		return &IllegalTransitionError{From: a.Status, To: StatusRescheduled}
	}
	if newStart.Before(now) {
		return validationError("newStart", "must not be in the past")
	}
	if err := a.transitionTo(StatusRescheduled); err != nil {
		return err
	}
	a.StartTime = newStart.UTC()
	a.RescheduleCount++
	if strings.TrimSpace(reason) != "" {
		a.appendNote(fmt.Sprintf("Rescheduled: %s (%s)", reason, now.UTC().Format(time.RFC3339)))
	}
	return nil
}

func (a *Appointment) appendNote(note string) {
	if a.Notes != "" {
		a.Notes += "\n"
	}
	a.Notes += note
}

func (a Appointment) SearchTerms() []string {
	return []string{
		a.ID, a.PatientID, a.DoctorID, a.ReasonForVisit,
		a.AppointmentType, a.Diagnosis, string(a.Status),
	}
}

func (a Appointment) Matches(term string) bool {
	return matchesAny(term, a.SearchTerms())
}
