// Package appointments orchestrates appointment use cases: creation with
// conflict checking, lifecycle transitions, rescheduling, and queries.
package appointments

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/store"
)

// Config carries the clinic's scheduling parameters. Zero values fall back
// to the clinic defaults.
type Config struct {
	ClinicStartHour        int
	ClinicEndHour          int
	DefaultDurationMinutes int
	MaxDurationMinutes     int

	// PastHorizon is how far in the past a new appointment may start.
	PastHorizon time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClinicStartHour == 0 && c.ClinicEndHour == 0 {
		c.ClinicStartHour, c.ClinicEndHour = 9, 18
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = domain.DefaultDurationMinutes
	}
	if c.MaxDurationMinutes <= 0 {
		c.MaxDurationMinutes = domain.MaxDurationMinutes
	}
	if c.PastHorizon <= 0 {
		c.PastHorizon = 24 * time.Hour
	}
	return c
}

type Service struct {
	appointments *store.Store[domain.Appointment]
	doctors      *store.Store[domain.Doctor]
	patients     *store.Store[domain.Patient]
	alloc        ids.Allocator
	cfg          Config
	log          *slog.Logger
}

func NewService(
	appointments *store.Store[domain.Appointment],
	doctors *store.Store[domain.Doctor],
	patients *store.Store[domain.Patient],
	alloc ids.Allocator,
	cfg Config,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		alloc:        alloc,
		cfg:          cfg.withDefaults(),
		log:          log.With(slog.String("component", "service.appointments")),
	}
}

// Store exposes the backing store for snapshot export/import.
func (s *Service) Store() *store.Store[domain.Appointment] { return s.appointments }

func validationError(field, msg string) error {
	return &domain.ValidationError{Field: field, Msg: msg}
}

// ByStartTime orders appointments by their scheduled start.
func ByStartTime(a, b domain.Appointment) bool {
	return a.StartTime.Before(b.StartTime)
}

// ByPriority orders appointments for the day board: higher-priority status
// first, then by start time.
func ByPriority(a, b domain.Appointment) bool {
	if pa, pb := a.Status.Priority(), b.Status.Priority(); pa != pb {
		return pa > pb
	}
	return ByStartTime(a, b)
}

type CreateInput struct {
	PatientID       string
	DoctorID        string
	StartTime       time.Time
	DurationMinutes int
	ReasonForVisit  string
	AppointmentType string
	Symptoms        string
	Emergency       bool
}

// Create books a new appointment for a patient with a doctor. The doctor's
// schedule is checked for overlap before anything is stored; a conflict
// aborts the whole operation.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	patientID := strings.TrimSpace(in.PatientID)
	doctorID := strings.TrimSpace(in.DoctorID)
	if patientID == "" {
		return domain.Appointment{}, validationError("patientId", "is required")
	}
	if doctorID == "" {
		return domain.Appointment{}, validationError("doctorId", "is required")
	}
	if strings.TrimSpace(in.ReasonForVisit) == "" {
		return domain.Appointment{}, validationError("reasonForVisit", "is required")
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	if duration < 0 {
		return domain.Appointment{}, validationError("durationMinutes", "must be positive")
	}
	if duration > s.cfg.MaxDurationMinutes {
		return domain.Appointment{}, validationError("durationMinutes",
			fmt.Sprintf("must not exceed %d minutes", s.cfg.MaxDurationMinutes))
	}

	now := time.Now().UTC()
	start := in.StartTime.UTC()
	if start.IsZero() {
		return domain.Appointment{}, validationError("startTime", "is required")
	}
	if start.Before(now.Add(-s.cfg.PastHorizon)) {
		return domain.Appointment{}, validationError("startTime", "must not be more than a day in the past")
	}

	patient, ok := s.patients.Get(patientID)
	if !ok {
		return domain.Appointment{}, fmt.Errorf("patient %q: %w", patientID, store.ErrNotFound)
	}
	if !patient.Active {
		return domain.Appointment{}, validationError("patientId", "refers to an inactive patient")
	}

	doctor, ok := s.doctors.Get(doctorID)
	if !ok {
		return domain.Appointment{}, fmt.Errorf("doctor %q: %w", doctorID, store.ErrNotFound)
	}
	if !doctor.Active {
		return domain.Appointment{}, validationError("doctorId", "refers to an inactive doctor")
	}
	if !doctor.Available {
		return domain.Appointment{}, validationError("doctorId", "doctor is not taking appointments")
	}

	if err := s.checkConflicts(doctorID, start, duration, ""); err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		ID:              s.alloc.Next(ids.KindAppointment),
		PatientID:       patientID,
		DoctorID:        doctorID,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          domain.StatusPending,
		ReasonForVisit:  strings.TrimSpace(in.ReasonForVisit),
		AppointmentType: strings.TrimSpace(in.AppointmentType),
		Symptoms:        in.Symptoms,
		ConsultationFee: doctor.EffectiveConsultationFee(in.Emergency),
		Emergency:       in.Emergency,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, _, err := s.appointments.Put(appt.ID, appt); err != nil {
		return domain.Appointment{}, fmt.Errorf("store appointment: %w", err)
	}

	// Best effort: the appointment is committed even if the visit counter
	// cannot be bumped.
	patient.VisitCount++
	patient.UpdatedAt = now
	if ok, err := s.patients.Update(patientID, patient); err != nil || !ok {
		s.log.Warn("could not record patient visit",
			slog.String("patient_id", patientID),
			slog.String("appointment_id", appt.ID),
			slog.Any("err", err),
		)
	}

	s.log.Info("appointment created",
		slog.String("appointment_id", appt.ID),
		slog.String("doctor_id", doctorID),
		slog.String("patient_id", patientID),
		slog.Time("start_time", start),
	)
	return appt, nil
}

// checkConflicts runs the scheduling check over the doctor's current
// appointments.
func (s *Service) checkConflicts(doctorID string, start time.Time, durationMinutes int, excludeID string) error {
	existing := s.appointments.FindWhere(func(a domain.Appointment) bool {
		return a.DoctorID == doctorID
	})
	return domain.CheckSchedule(existing, start, time.Duration(durationMinutes)*time.Minute, excludeID)
}

// Get returns the appointment with the given id.
func (s *Service) Get(ctx context.Context, id string) (domain.Appointment, error) {
	appt, ok := s.appointments.Get(id)
	if !ok {
		return domain.Appointment{}, fmt.Errorf("appointment %q: %w", id, store.ErrNotFound)
	}
	return appt, nil
}

// mutate fetches an appointment, applies fn to a copy, and persists the copy
// only when fn succeeds. A failing fn leaves the stored record untouched.
func (s *Service) mutate(id string, fn func(*domain.Appointment) error) (domain.Appointment, error) {
	appt, ok := s.appointments.Get(id)
	if !ok {
		return domain.Appointment{}, fmt.Errorf("appointment %q: %w", id, store.ErrNotFound)
	}
	if err := fn(&appt); err != nil {
		return domain.Appointment{}, err
	}
	if _, err := s.appointments.Update(id, appt); err != nil {
		return domain.Appointment{}, fmt.Errorf("persist appointment %q: %w", id, err)
	}
	return appt, nil
}

func (s *Service) Confirm(ctx context.Context, id string) (domain.Appointment, error) {
	return s.mutate(id, func(a *domain.Appointment) error { return a.Confirm() })
}

func (s *Service) Start(ctx context.Context, id string) (domain.Appointment, error) {
	return s.mutate(id, func(a *domain.Appointment) error { return a.Start(time.Now().UTC()) })
}

func (s *Service) Complete(ctx context.Context, id, diagnosis, prescription, notes string) (domain.Appointment, error) {
	return s.mutate(id, func(a *domain.Appointment) error {
		return a.Complete(diagnosis, prescription, notes, time.Now().UTC())
	})
}

func (s *Service) Cancel(ctx context.Context, id, reason string) (domain.Appointment, error) {
	appt, err := s.mutate(id, func(a *domain.Appointment) error { return a.Cancel(reason) })
	if err != nil {
		return domain.Appointment{}, err
	}
	s.log.Info("appointment cancelled", slog.String("appointment_id", id), slog.String("reason", reason))
	return appt, nil
}

func (s *Service) MarkNoShow(ctx context.Context, id string) (domain.Appointment, error) {
	return s.mutate(id, func(a *domain.Appointment) error { return a.MarkNoShow() })
}

// Reschedule moves an appointment to a new start, re-running the conflict
// check against the doctor's other appointments first. On any failure the
// stored record keeps its previous status, start time, and reschedule count.
func (s *Service) Reschedule(ctx context.Context, id string, newStart time.Time, reason string) (domain.Appointment, error) {
	appt, ok := s.appointments.Get(id)
	if !ok {
		return domain.Appointment{}, fmt.Errorf("appointment %q: %w", id, store.ErrNotFound)
	}

	newStart = newStart.UTC()
	if err := s.checkConflicts(appt.DoctorID, newStart, appt.DurationMinutes, appt.ID); err != nil {
		return domain.Appointment{}, err
	}

	if err := appt.Reschedule(newStart, reason, time.Now().UTC()); err != nil {
		return domain.Appointment{}, err
	}
	if _, err := s.appointments.Update(id, appt); err != nil {
		return domain.Appointment{}, fmt.Errorf("persist appointment %q: %w", id, err)
	}

	s.log.Info("appointment rescheduled",
		slog.String("appointment_id", id),
		slog.Time("new_start", newStart),
		slog.Int("reschedule_count", appt.RescheduleCount),
	)
	return appt, nil
}

// Delete removes an appointment outright. Deactivate is the soft variant.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.appointments.Remove(id); !ok {
		return fmt.Errorf("appointment %q: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	_, err := s.mutate(id, func(a *domain.Appointment) error {
		a.Active = false
		a.UpdatedAt = time.Now().UTC()
		return nil
	})
	return err
}

// Query operations. All of them observe only active appointments.

func activeOnly(pred func(domain.Appointment) bool) func(domain.Appointment) bool {
	return func(a domain.Appointment) bool { return a.Active && pred(a) }
}

func sortedByStart(appts []domain.Appointment) []domain.Appointment {
	sort.SliceStable(appts, func(i, j int) bool { return ByStartTime(appts[i], appts[j]) })
	return appts
}

func (s *Service) All(ctx context.Context) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(domain.Appointment) bool { return true })))
}

func (s *Service) ByPatient(ctx context.Context, patientID string) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.PatientID == patientID
	})))
}

func (s *Service) ByDoctor(ctx context.Context, doctorID string) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.DoctorID == doctorID
	})))
}

func (s *Service) ByStatus(ctx context.Context, status domain.AppointmentStatus) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.Status == status
	})))
}

// OnDate lists appointments whose scheduled start falls on the given UTC day.
func (s *Service) OnDate(ctx context.Context, date time.Time) []domain.Appointment {
	y, m, d := date.UTC().Date()
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		ay, am, ad := a.StartTime.Date()
		return ay == y && am == m && ad == d
	})))
}

// Today is the current day's board: in-progress consultations first, then
// confirmed, pending, and rescheduled, with finished visits last.
func (s *Service) Today(ctx context.Context) []domain.Appointment {
	appts := s.OnDate(ctx, time.Now().UTC())
	sort.SliceStable(appts, func(i, j int) bool { return ByPriority(appts[i], appts[j]) })
	return appts
}

// Between lists appointments starting in the half-open window [from, to).
func (s *Service) Between(ctx context.Context, from, to time.Time) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return !a.StartTime.Before(from) && a.StartTime.Before(to)
	})))
}

func (s *Service) Emergencies(ctx context.Context) []domain.Appointment {
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.Emergency && !a.Status.IsFinal()
	})))
}

func (s *Service) Upcoming(ctx context.Context) []domain.Appointment {
	now := time.Now().UTC()
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.StartTime.After(now) && !a.Status.IsFinal()
	})))
}

func (s *Service) Overdue(ctx context.Context) []domain.Appointment {
	now := time.Now().UTC()
	return sortedByStart(s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.IsOverdue(now)
	})))
}

// SendReminders marks every appointment whose reminder is due and returns
// the batch, ordered by start time. Reminders go out at most once per
// appointment, so repeated runs are harmless.
func (s *Service) SendReminders(ctx context.Context) ([]domain.Appointment, error) {
	now := time.Now().UTC()
	due := s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.NeedsReminder(now)
	}))

	sent := make([]domain.Appointment, 0, len(due))
	for _, a := range due {
		a.MarkReminderSent(now)
		if _, err := s.appointments.Update(a.ID, a); err != nil {
			return sortedByStart(sent), fmt.Errorf("persist appointment %q: %w", a.ID, err)
		}
		s.log.Info("reminder sent",
			slog.String("appointment_id", a.ID),
			slog.String("patient_id", a.PatientID),
			slog.Time("start_time", a.StartTime))
		sent = append(sent, a)
	}
	return sortedByStart(sent), nil
}

func (s *Service) Search(ctx context.Context, term string) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range s.appointments.Search(term) {
		if a.Active {
			out = append(out, a)
		}
	}
	return sortedByStart(out)
}

func (s *Service) Page(ctx context.Context, pageNumber, pageSize int) (store.Page[domain.Appointment], error) {
	return s.appointments.Page(pageNumber, pageSize, ByStartTime)
}

// AvailableSlots lists the free slots of slotMinutes length within clinic
// hours on the given day for a doctor.
func (s *Service) AvailableSlots(ctx context.Context, doctorID string, date time.Time, slotMinutes int) ([]time.Time, error) {
	if slotMinutes <= 0 {
		return nil, validationError("slotMinutes", "must be positive")
	}

	existing := s.appointments.FindWhere(activeOnly(func(a domain.Appointment) bool {
		return a.DoctorID == doctorID && !a.Status.IsFinal()
	}))

	y, m, d := date.UTC().Date()
	dayStart := time.Date(y, m, d, s.cfg.ClinicStartHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(y, m, d, s.cfg.ClinicEndHour, 0, 0, 0, time.UTC)
	slotLen := time.Duration(slotMinutes) * time.Minute

	var free []time.Time
	for slot := dayStart; !slot.Add(slotLen).After(dayEnd); slot = slot.Add(slotLen) {
		if domain.CheckSchedule(existing, slot, slotLen, "") == nil {
			free = append(free, slot)
		}
	}
	return free, nil
}

// NextAvailableSlot searches forward from the given date, up to 30 days, for
// the first free slot of the requested length.
func (s *Service) NextAvailableSlot(ctx context.Context, doctorID string, from time.Time, durationMinutes int) (time.Time, error) {
	const searchDays = 30

	day := from.UTC()
	for i := 0; i < searchDays; i++ {
		slots, err := s.AvailableSlots(ctx, doctorID, day, durationMinutes)
		if err != nil {
			return time.Time{}, err
		}
		now := time.Now().UTC()
		for _, slot := range slots {
			if slot.After(now) {
				return slot, nil
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("no free slot for doctor %q within %d days: %w", doctorID, searchDays, store.ErrNotFound)
}

// Stats summarizes active appointments by status.
type Stats struct {
	Total     int
	ByStatus  map[domain.AppointmentStatus]int
	Emergency int
}

func (s *Service) Statistics(ctx context.Context) Stats {
	stats := Stats{ByStatus: make(map[domain.AppointmentStatus]int)}
	for _, a := range s.appointments.FindWhere(nil) {
		if !a.Active {
			continue
		}
		stats.Total++
		stats.ByStatus[a.Status]++
		if a.Emergency {
			stats.Emergency++
		}
	}
	return stats
}
