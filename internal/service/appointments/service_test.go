package appointments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(
		store.New[domain.Appointment]("appointments"),
		store.New[domain.Doctor]("doctors"),
		store.New[domain.Patient]("patients"),
		ids.NewPrefixed(),
		Config{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func seedDoctor(t *testing.T, s *Service, id string) {
	t.Helper()
	doc := domain.Doctor{
		ID: id,
		PersonFields: domain.PersonFields{
			FirstName: "Asha",
			LastName:  "Menon",
		},
		LicenseNumber:     "LIC-" + id,
		Specialization:    domain.Cardiology,
		YearsOfExperience: 10,
		ConsultationFee:   2000,
		Available:         true,
		Active:            true,
	}
	if _, _, err := s.doctors.Put(id, doc); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
}

func seedPatient(t *testing.T, s *Service, id string) {
	t.Helper()
	p := domain.Patient{
		ID: id,
		PersonFields: domain.PersonFields{
			FirstName: "Ravi",
			LastName:  "Kumar",
		},
		Active: true,
	}
	if _, _, err := s.patients.Put(id, p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
}

func futureTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	d := time.Now().UTC().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func TestCreate_HappyPath(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")

	start := futureTime(t, 10, 0)
	appt, err := svc.Create(context.Background(), CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      start,
		ReasonForVisit: "chest pain follow-up",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appt.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", appt.Status)
	}
	if appt.DurationMinutes != domain.DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", appt.DurationMinutes, domain.DefaultDurationMinutes)
	}
	if appt.ID == "" {
		t.Error("expected an allocated id")
	}
	if appt.ConsultationFee <= 0 {
		t.Errorf("fee = %v, want derived from doctor", appt.ConsultationFee)
	}

	// Visit counter bumped as a side effect.
	p, _ := svc.patients.Get("P0001")
	if p.VisitCount != 1 {
		t.Errorf("VisitCount = %d, want 1", p.VisitCount)
	}
}

func TestCreate_OverlapRejectedBackToBackAllowed(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	seedPatient(t, svc, "P0002")

	first, err := svc.Create(context.Background(), CreateInput{
		PatientID:       "P0001",
		DoctorID:        "D0001",
		StartTime:       futureTime(t, 10, 0),
		DurationMinutes: 30,
		ReasonForVisit:  "checkup",
	})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// 10:15 overlaps the 10:00-10:30 booking.
	_, err = svc.Create(context.Background(), CreateInput{
		PatientID:       "P0002",
		DoctorID:        "D0001",
		StartTime:       futureTime(t, 10, 15),
		DurationMinutes: 30,
		ReasonForVisit:  "checkup",
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("overlapping Create err = %v, want ConflictError", err)
	}
	if conflict.AppointmentID != first.ID {
		t.Errorf("conflict reports %s, want %s", conflict.AppointmentID, first.ID)
	}

	// 10:30 starts exactly when the first ends.
	if _, err := svc.Create(context.Background(), CreateInput{
		PatientID:       "P0002",
		DoctorID:        "D0001",
		StartTime:       futureTime(t, 10, 30),
		DurationMinutes: 30,
		ReasonForVisit:  "checkup",
	}); err != nil {
		t.Fatalf("back-to-back Create: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")

	valid := CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 10, 0),
		ReasonForVisit: "checkup",
	}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"missing patient id", func(in *CreateInput) { in.PatientID = "  " }, "patientId"},
		{"missing doctor id", func(in *CreateInput) { in.DoctorID = "" }, "doctorId"},
		{"missing reason", func(in *CreateInput) { in.ReasonForVisit = "" }, "reasonForVisit"},
		{"negative duration", func(in *CreateInput) { in.DurationMinutes = -15 }, "durationMinutes"},
		{"duration over cap", func(in *CreateInput) { in.DurationMinutes = 481 }, "durationMinutes"},
		{"zero start", func(in *CreateInput) { in.StartTime = time.Time{} }, "startTime"},
		{"far past start", func(in *CreateInput) { in.StartTime = time.Now().UTC().Add(-48 * time.Hour) }, "startTime"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
	if svc.appointments.Len() != 0 {
		t.Errorf("store has %d appointments after rejected creates, want 0", svc.appointments.Len())
	}
}

func TestCreate_UnknownAndInactiveParties(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")

	in := CreateInput{
		PatientID:      "P0404",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 11, 0),
		ReasonForVisit: "checkup",
	}
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown patient err = %v, want ErrNotFound", err)
	}

	in.PatientID = "P0001"
	in.DoctorID = "D0404"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown doctor err = %v, want ErrNotFound", err)
	}

	doc, _ := svc.doctors.Get("D0001")
	doc.Available = false
	svc.doctors.Update("D0001", doc)

	in.DoctorID = "D0001"
	var ve *domain.ValidationError
	if _, err := svc.Create(context.Background(), in); !errors.As(err, &ve) {
		t.Errorf("unavailable doctor err = %v, want ValidationError", err)
	}
}

func TestLifecycleFlow(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	ctx := context.Background()

	appt, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 9, 0),
		ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if appt, err = svc.Confirm(ctx, appt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if appt.Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", appt.Status)
	}

	if appt, err = svc.Start(ctx, appt.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if appt.ActualStartTime == nil {
		t.Error("ActualStartTime not set after Start")
	}

	if appt, err = svc.Complete(ctx, appt.ID, "hypertension", "amlodipine 5mg", "review in 4 weeks"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if appt.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", appt.Status)
	}

	// Terminal status: further transitions fail and do not change the record.
	_, err = svc.Cancel(ctx, appt.ID, "late")
	var ill *domain.IllegalTransitionError
	if !errors.As(err, &ill) {
		t.Fatalf("Cancel after complete err = %v, want IllegalTransitionError", err)
	}
	stored, _ := svc.appointments.Get(appt.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("stored status = %s after failed cancel, want COMPLETED", stored.Status)
	}
}

func TestComplete_FailureLeavesStoreUntouched(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	ctx := context.Background()

	appt, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 9, 0),
		ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Confirm(ctx, appt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := svc.Start(ctx, appt.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Missing diagnosis is rejected before the transition runs.
	if _, err := svc.Complete(ctx, appt.ID, "", "", ""); err == nil {
		t.Fatal("Complete without diagnosis succeeded")
	}
	stored, _ := svc.appointments.Get(appt.ID)
	if stored.Status != domain.StatusInProgress {
		t.Errorf("stored status = %s, want IN_PROGRESS", stored.Status)
	}
	if stored.Diagnosis != "" {
		t.Errorf("diagnosis = %q after failed complete, want empty", stored.Diagnosis)
	}
}

func TestReschedule(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	seedPatient(t, svc, "P0002")
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 10, 0),
		ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0002",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 11, 0),
		ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	// Moving onto the other booking fails and changes nothing.
	_, err = svc.Reschedule(ctx, second.ID, futureTime(t, 10, 15), "earlier please")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Reschedule err = %v, want ConflictError", err)
	}
	stored, _ := svc.appointments.Get(second.ID)
	if !stored.StartTime.Equal(second.StartTime) || stored.Status != domain.StatusPending || stored.RescheduleCount != 0 {
		t.Errorf("failed reschedule mutated record: %+v", stored)
	}

	// Moving to a free slot works; the appointment's own slot never blocks it.
	moved, err := svc.Reschedule(ctx, first.ID, futureTime(t, 10, 5), "slight delay")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Status != domain.StatusRescheduled {
		t.Errorf("status = %s, want RESCHEDULED", moved.Status)
	}
	if moved.RescheduleCount != 1 {
		t.Errorf("RescheduleCount = %d, want 1", moved.RescheduleCount)
	}
	if !moved.StartTime.Equal(futureTime(t, 10, 5)) {
		t.Errorf("StartTime = %v, want %v", moved.StartTime, futureTime(t, 10, 5))
	}
}

func TestQueries(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedDoctor(t, svc, "D0002")
	seedPatient(t, svc, "P0001")
	ctx := context.Background()

	mk := func(doctorID string, hour int) domain.Appointment {
		appt, err := svc.Create(ctx, CreateInput{
			PatientID:      "P0001",
			DoctorID:       doctorID,
			StartTime:      futureTime(t, hour, 0),
			ReasonForVisit: "checkup",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return appt
	}

	a1 := mk("D0001", 14)
	a2 := mk("D0001", 9)
	a3 := mk("D0002", 11)

	got := svc.ByDoctor(ctx, "D0001")
	if len(got) != 2 {
		t.Fatalf("ByDoctor returned %d, want 2", len(got))
	}
	if got[0].ID != a2.ID || got[1].ID != a1.ID {
		t.Errorf("ByDoctor order = [%s %s], want start-time ascending [%s %s]",
			got[0].ID, got[1].ID, a2.ID, a1.ID)
	}

	byDay := svc.OnDate(ctx, futureTime(t, 0, 0))
	if len(byDay) != 3 {
		t.Errorf("OnDate returned %d, want 3", len(byDay))
	}

	if n := len(svc.ByStatus(ctx, domain.StatusPending)); n != 3 {
		t.Errorf("ByStatus(PENDING) returned %d, want 3", n)
	}

	if err := svc.Deactivate(ctx, a3.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if n := len(svc.All(ctx)); n != 2 {
		t.Errorf("All after deactivate returned %d, want 2", n)
	}

	stats := svc.Statistics(ctx)
	if stats.Total != 2 {
		t.Errorf("Statistics.Total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[domain.StatusPending] != 2 {
		t.Errorf("Statistics pending = %d, want 2", stats.ByStatus[domain.StatusPending])
	}
}

func TestAvailableSlots(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	ctx := context.Background()

	// Clinic 09:00-18:00 with 30 minute slots leaves 18 per day.
	day := futureTime(t, 0, 0)
	slots, err := svc.AvailableSlots(ctx, "D0001", day, 30)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("free slots = %d on empty day, want 18", len(slots))
	}

	if _, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 10, 0),
		ReasonForVisit: "checkup",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	slots, err = svc.AvailableSlots(ctx, "D0001", day, 30)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 17 {
		t.Errorf("free slots = %d after one booking, want 17", len(slots))
	}
	for _, slot := range slots {
		if slot.Hour() == 10 && slot.Minute() == 0 {
			t.Error("booked 10:00 slot still reported free")
		}
	}

	next, err := svc.NextAvailableSlot(ctx, "D0001", day, 30)
	if err != nil {
		t.Fatalf("NextAvailableSlot: %v", err)
	}
	if next.IsZero() || !next.After(time.Now().UTC()) {
		t.Errorf("NextAvailableSlot = %v, want a future slot", next)
	}
}

func TestGetAndDelete(t *testing.T) {
	svc := newTestService(t)
	seedDoctor(t, svc, "D0001")
	seedPatient(t, svc, "P0001")
	ctx := context.Background()

	if _, err := svc.Get(ctx, "A9999"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}

	appt, err := svc.Create(ctx, CreateInput{
		PatientID:      "P0001",
		DoctorID:       "D0001",
		StartTime:      futureTime(t, 12, 0),
		ReasonForVisit: "checkup",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Get(ctx, appt.ID); err != nil {
		t.Errorf("Get: %v", err)
	}

	if err := svc.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, appt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func seedAppointment(t *testing.T, s *Service, id string, start time.Time, status domain.AppointmentStatus, opts domain.Appointment) {
	t.Helper()
	a := opts
	a.ID = id
	a.PatientID = "P0001"
	a.DoctorID = "D0001"
	a.StartTime = start
	a.Status = status
	if a.DurationMinutes == 0 {
		a.DurationMinutes = 30
	}
	if a.ReasonForVisit == "" {
		a.ReasonForVisit = "checkup"
	}
	if _, _, err := s.appointments.Put(id, a); err != nil {
		t.Fatalf("seed appointment %s: %v", id, err)
	}
}

func idsOf(appts []domain.Appointment) []string {
	out := make([]string, len(appts))
	for i, a := range appts {
		out[i] = a.ID
	}
	return out
}

func sameIDs(got []domain.Appointment, want ...string) bool {
	ids := idsOf(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range want {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

func TestScheduleViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAppointment(t, svc, "A0001", now.Add(-2*time.Hour), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0002", now.Add(-1*time.Hour), domain.StatusInProgress, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0003", now.Add(-3*time.Hour), domain.StatusCompleted, domain.Appointment{Active: true, Emergency: true})
	seedAppointment(t, svc, "A0004", now.Add(2*time.Hour), domain.StatusConfirmed, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0005", now.Add(4*time.Hour), domain.StatusPending, domain.Appointment{Active: true, Emergency: true})
	seedAppointment(t, svc, "A0006", now.Add(6*time.Hour), domain.StatusPending, domain.Appointment{Emergency: true})

	if got := svc.Upcoming(ctx); !sameIDs(got, "A0004", "A0005") {
		t.Errorf("Upcoming = %v, want [A0004 A0005]", idsOf(got))
	}
	// A running consultation is past its start but not overdue.
	if got := svc.Overdue(ctx); !sameIDs(got, "A0001") {
		t.Errorf("Overdue = %v, want [A0001]", idsOf(got))
	}
	// Completed and deactivated emergencies no longer need attention.
	if got := svc.Emergencies(ctx); !sameIDs(got, "A0005") {
		t.Errorf("Emergencies = %v, want [A0005]", idsOf(got))
	}
}

func TestBetween_HalfOpenWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := futureTime(t, 9, 0)

	seedAppointment(t, svc, "A0001", base.AddDate(0, 0, -1), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0002", base, domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0003", base.AddDate(0, 0, 1), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0004", base.AddDate(0, 0, 2), domain.StatusPending, domain.Appointment{Active: true})

	got := svc.Between(ctx, base, base.AddDate(0, 0, 2))
	if !sameIDs(got, "A0002", "A0003") {
		t.Errorf("Between = %v, want [A0002 A0003]", idsOf(got))
	}
}

func TestToday_OrdersByStatusPriority(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	d := time.Now().UTC()
	at := func(hour int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
	}

	seedAppointment(t, svc, "A0001", at(8), domain.StatusCompleted, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0002", at(10), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0003", at(9), domain.StatusInProgress, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0004", at(11), domain.StatusConfirmed, domain.Appointment{Active: true})

	got := svc.Today(ctx)
	if !sameIDs(got, "A0003", "A0004", "A0002", "A0001") {
		t.Errorf("Today = %v, want [A0003 A0004 A0002 A0001]", idsOf(got))
	}
}

func TestSendReminders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedAppointment(t, svc, "A0001", now.Add(2*time.Hour), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0002", now.Add(48*time.Hour), domain.StatusPending, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0003", now.Add(1*time.Hour), domain.StatusCancelled, domain.Appointment{Active: true})
	seedAppointment(t, svc, "A0004", now.Add(3*time.Hour), domain.StatusConfirmed, domain.Appointment{Active: true, ReminderSent: true})

	sent, err := svc.SendReminders(ctx)
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if !sameIDs(sent, "A0001") {
		t.Fatalf("sent = %v, want [A0001]", idsOf(sent))
	}

	stored, _ := svc.appointments.Get("A0001")
	if !stored.ReminderSent {
		t.Error("reminder flag not persisted")
	}

	again, err := svc.SendReminders(ctx)
	if err != nil {
		t.Fatalf("second SendReminders: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run sent %v, want none", idsOf(again))
	}
}
