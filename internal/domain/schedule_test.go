package domain

import (
	"errors"
	"testing"
	"time"
)

func interval(t *testing.T, startHour, startMin, durMin int) Interval {
	t.Helper()
	start := time.Date(2026, 3, 2, startHour, startMin, 0, 0, time.UTC)
	return Interval{Start: start, End: start.Add(time.Duration(durMin) * time.Minute)}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", interval(t, 10, 0, 30), interval(t, 10, 0, 30), true},
		{"contained", interval(t, 10, 0, 60), interval(t, 10, 15, 15), true},
		{"partial", interval(t, 10, 0, 30), interval(t, 10, 15, 30), true},
		{"back to back", interval(t, 10, 0, 30), interval(t, 10, 30, 30), false},
		{"disjoint", interval(t, 10, 0, 30), interval(t, 12, 0, 30), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v (symmetry)", got, tc.want)
			}
		})
	}
}

func scheduledAppointment(id string, status AppointmentStatus, startHour, startMin, durMin int) Appointment {
	return Appointment{
		ID:              id,
		DoctorID:        "D0001",
		PatientID:       "P0001",
		StartTime:       time.Date(2026, 3, 2, startHour, startMin, 0, 0, time.UTC),
		DurationMinutes: durMin,
		Status:          status,
		Active:          true,
	}
}

func TestCheckSchedule_ReportsFirstConflict(t *testing.T) {
	existing := []Appointment{
		scheduledAppointment("A0001", StatusPending, 10, 0, 30),
	}

	start := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	err := CheckSchedule(existing, start, 30*time.Minute, "")
	if err == nil {
		t.Fatalf("expected conflict")
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error type = %T, want *ConflictError", err)
	}
	if conflict.AppointmentID != "A0001" {
		t.Fatalf("conflicting id = %q, want A0001", conflict.AppointmentID)
	}
	if !conflict.Start.Equal(existing[0].StartTime) {
		t.Fatalf("conflict window start = %v, want %v", conflict.Start, existing[0].StartTime)
	}
}

func TestCheckSchedule_BackToBackDoesNotConflict(t *testing.T) {
	existing := []Appointment{
		scheduledAppointment("A0001", StatusConfirmed, 10, 0, 30),
	}

	start := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	if err := CheckSchedule(existing, start, 30*time.Minute, ""); err != nil {
		t.Fatalf("CheckSchedule error: %v", err)
	}
}

func TestCheckSchedule_FinalStatusesNeverBlock(t *testing.T) {
	for _, status := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		existing := []Appointment{
			scheduledAppointment("A0001", status, 10, 0, 30),
		}
		start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		if err := CheckSchedule(existing, start, 30*time.Minute, ""); err != nil {
			t.Fatalf("status %s blocked the slot: %v", status, err)
		}
	}
}

func TestCheckSchedule_ExcludesOwnID(t *testing.T) {
	existing := []Appointment{
		scheduledAppointment("A0001", StatusConfirmed, 10, 0, 30),
	}

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := CheckSchedule(existing, start, 30*time.Minute, "A0001"); err != nil {
		t.Fatalf("self-conflict on reschedule: %v", err)
	}
	if err := CheckSchedule(existing, start, 30*time.Minute, "A9999"); err == nil {
		t.Fatalf("expected conflict when excluding a different id")
	}
}

func TestCheckSchedule_InactiveAppointmentsSkipped(t *testing.T) {
	appt := scheduledAppointment("A0001", StatusConfirmed, 10, 0, 30)
	appt.Active = false

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := CheckSchedule([]Appointment{appt}, start, 30*time.Minute, ""); err != nil {
		t.Fatalf("inactive appointment blocked the slot: %v", err)
	}
}
