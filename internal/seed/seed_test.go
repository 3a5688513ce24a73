package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/service/appointments"
	"meditrack/backend/internal/service/doctors"
	"meditrack/backend/internal/service/patients"
	"meditrack/backend/internal/store"
)

func TestRun(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	patientStore := store.New[domain.Patient]("patients")
	doctorStore := store.New[domain.Doctor]("doctors")
	apptStore := store.New[domain.Appointment]("appointments")
	alloc := ids.NewPrefixed()

	svc := Services{
		Patients:     patients.NewService(patientStore, alloc, log),
		Doctors:      doctors.NewService(doctorStore, alloc, log),
		Appointments: appointments.NewService(apptStore, doctorStore, patientStore, alloc, appointments.Config{}, log),
	}

	counts := Counts{Patients: 6, Doctors: 3, Appointments: 8}
	if err := Run(context.Background(), svc, counts, 42, log); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if patientStore.Len() != 6 {
		t.Errorf("patients = %d, want 6", patientStore.Len())
	}
	if doctorStore.Len() != 3 {
		t.Errorf("doctors = %d, want 3", doctorStore.Len())
	}
	// Slot collisions may skip bookings, but some must land.
	if apptStore.Len() == 0 {
		t.Error("no appointments generated")
	}
	for _, a := range apptStore.Values() {
		if _, ok := patientStore.Get(a.PatientID); !ok {
			t.Errorf("appointment %s references unknown patient %s", a.ID, a.PatientID)
		}
		if _, ok := doctorStore.Get(a.DoctorID); !ok {
			t.Errorf("appointment %s references unknown doctor %s", a.ID, a.DoctorID)
		}
		if a.Status != domain.StatusPending {
			t.Errorf("appointment %s status = %s, want PENDING", a.ID, a.Status)
		}
	}
}
