package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/service/appointments"
	"meditrack/backend/internal/service/billing"
	"meditrack/backend/internal/service/doctors"
	"meditrack/backend/internal/service/patients"
	"meditrack/backend/internal/store"
)

func newTestMenu(t *testing.T, script string) (*Menu, *bytes.Buffer, Services) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	patientStore := store.New[domain.Patient]("patients")
	doctorStore := store.New[domain.Doctor]("doctors")
	apptStore := store.New[domain.Appointment]("appointments")
	billStore := store.New[domain.Bill]("bills")
	alloc := ids.NewPrefixed()

	svc := Services{
		Patients:     patients.NewService(patientStore, alloc, log),
		Doctors:      doctors.NewService(doctorStore, alloc, log),
		Appointments: appointments.NewService(apptStore, doctorStore, patientStore, alloc, appointments.Config{}, log),
		Billing:      billing.NewService(billStore, apptStore, patientStore, alloc, log),
	}

	var out bytes.Buffer
	return NewMenu(strings.NewReader(script), &out, svc, nil, log), &out, svc
}

func TestRun_ExitsCleanly(t *testing.T) {
	m, out, _ := newTestMenu(t, "0\n")
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye") {
		t.Errorf("missing farewell in output:\n%s", out.String())
	}
}

func TestRun_ExitsOnEOF(t *testing.T) {
	m, _, _ := newTestMenu(t, "")
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run on EOF: %v", err)
	}
}

func TestBookingFlow(t *testing.T) {
	day := time.Now().UTC().AddDate(0, 0, 7).Format("02/01/2006")
	script := strings.Join([]string{
		"3",        // appointments menu
		"1",        // book
		"P0001",    // patient
		"D0001",    // doctor
		day + " 10:00",
		"30",       // duration
		"checkup",  // reason
		"",         // symptoms
		"n",        // emergency
		"0",        // back
		"0",        // exit
	}, "\n") + "\n"

	m, out, svc := newTestMenu(t, script)

	if _, _, err := svc.Patients.Store().Put("P0001", domain.Patient{
		ID:           "P0001",
		PersonFields: domain.PersonFields{FirstName: "Ravi", LastName: "Kumar"},
		Active:       true,
	}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	if _, _, err := svc.Doctors.Store().Put("D0001", domain.Doctor{
		ID:              "D0001",
		PersonFields:    domain.PersonFields{FirstName: "Asha", LastName: "Menon"},
		LicenseNumber:   "KA-1",
		Specialization:  domain.Cardiology,
		ConsultationFee: 2000,
		Available:       true,
		Active:          true,
	}); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Booked A0001") {
		t.Errorf("booking confirmation missing from output:\n%s", out.String())
	}
	if svc.Appointments.Store().Len() != 1 {
		t.Errorf("appointments stored = %d, want 1", svc.Appointments.Store().Len())
	}
}

func TestRenderError(t *testing.T) {
	m, out, _ := newTestMenu(t, "")

	m.renderError(&domain.ConflictError{AppointmentID: "A0009"})
	if !strings.Contains(out.String(), "slot is taken") {
		t.Errorf("conflict rendering wrong:\n%s", out.String())
	}

	out.Reset()
	m.renderError(&domain.ValidationError{Field: "startTime", Msg: "is required"})
	if !strings.Contains(out.String(), "startTime is required") {
		t.Errorf("validation rendering wrong:\n%s", out.String())
	}

	out.Reset()
	m.renderError(store.ErrNotFound)
	if !strings.Contains(out.String(), "not found") {
		t.Errorf("not-found rendering wrong:\n%s", out.String())
	}
}

func TestRenderError_IllegalTransitionListsNextStatuses(t *testing.T) {
	m, out, _ := newTestMenu(t, "")

	m.renderError(&domain.IllegalTransitionError{From: domain.StatusPending, To: domain.StatusCompleted})
	got := out.String()
	if !strings.Contains(got, "Not allowed") {
		t.Errorf("transition rendering wrong:\n%s", got)
	}
	if !strings.Contains(got, "CONFIRMED, RESCHEDULED, CANCELLED") {
		t.Errorf("valid next statuses missing:\n%s", got)
	}

	out.Reset()
	m.renderError(&domain.IllegalTransitionError{From: domain.StatusCompleted, To: domain.StatusCancelled})
	if strings.Contains(out.String(), "you can move to") {
		t.Errorf("terminal status should offer no transitions:\n%s", out.String())
	}
}

func TestScheduleViewMenu(t *testing.T) {
	script := strings.Join([]string{
		"3",  // appointments menu
		"13", // upcoming
		"14", // overdue
		"0",  // back
		"0",  // exit
	}, "\n") + "\n"
	m, out, svc := newTestMenu(t, script)

	now := time.Now().UTC()
	seed := func(id string, start time.Time, status domain.AppointmentStatus) {
		t.Helper()
		if _, _, err := svc.Appointments.Store().Put(id, domain.Appointment{
			ID:              id,
			PatientID:       "P0001",
			DoctorID:        "D0001",
			StartTime:       start,
			DurationMinutes: 30,
			Status:          status,
			ReasonForVisit:  "checkup",
			Active:          true,
		}); err != nil {
			t.Fatalf("seed appointment %s: %v", id, err)
		}
	}
	seed("A0001", now.Add(3*time.Hour), domain.StatusConfirmed)
	seed("A0002", now.Add(-3*time.Hour), domain.StatusPending)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "A0001") {
		t.Errorf("upcoming appointment missing from output:\n%s", got)
	}
	if !strings.Contains(got, "A0002") {
		t.Errorf("overdue appointment missing from output:\n%s", got)
	}
}

func TestRecordVisitMenu(t *testing.T) {
	script := strings.Join([]string{
		"1",     // patients menu
		"6",     // record visit
		"P0001", // patient id
		"0",     // back
		"0",     // exit
	}, "\n") + "\n"
	m, out, svc := newTestMenu(t, script)

	if _, _, err := svc.Patients.Store().Put("P0001", domain.Patient{
		ID:           "P0001",
		PersonFields: domain.PersonFields{FirstName: "Ravi", LastName: "Kumar"},
		Active:       true,
	}); err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "has 1 visits") {
		t.Errorf("visit confirmation missing from output:\n%s", out.String())
	}

	p, _ := svc.Patients.Store().Get("P0001")
	if p.VisitCount != 1 {
		t.Errorf("visits = %d, want 1", p.VisitCount)
	}
}
