package domain

import "time"

// Interval is a half-open time range [Start, End). Back-to-back intervals
// (one ending exactly where the next begins) do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// CheckSchedule tests a candidate window [start, start+duration) against a
// doctor's existing appointments and returns a *ConflictError for the first
// overlap found. Appointments in a final status never block; excludeID skips
// one appointment, used when an existing appointment is validated against a
// reschedule of itself.
//
// The caller supplies the appointment list, so a future indexed supplier can
// replace the linear scan without changing this contract.
func CheckSchedule(existing []Appointment, start time.Time, duration time.Duration, excludeID string) error {
	candidate := Interval{Start: start, End: start.Add(duration)}

	for _, appt := range existing {
		if appt.Status.IsFinal() || !appt.Active {
			continue
		}
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		if window := appt.Window(); candidate.Overlaps(window) {
			return &ConflictError{
				AppointmentID: appt.ID,
				Start:         window.Start,
				End:           window.End,
			}
		}
	}
	return nil
}
