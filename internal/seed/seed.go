// Package seed fills the stores with generated sample data for demos and
// local development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/service/appointments"
	"meditrack/backend/internal/service/doctors"
	"meditrack/backend/internal/service/patients"
)

type Services struct {
	Patients     *patients.Service
	Doctors      *doctors.Service
	Appointments *appointments.Service
}

// Counts controls how much sample data Run generates.
type Counts struct {
	Patients     int
	Doctors      int
	Appointments int
}

func DefaultCounts() Counts {
	return Counts{Patients: 12, Doctors: 5, Appointments: 15}
}

// Run populates empty stores with fake but plausible records. Appointment
// creation goes through the scheduling service, so generated bookings never
// conflict; a slot collision just skips that booking.
func Run(ctx context.Context, svc Services, counts Counts, seed uint64, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "seed"))
	faker := gofakeit.New(seed)

	bloodGroups := []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}
	insurers := []string{"", "", "Star Health", "LIC", "Niva Bupa"}
	reasons := []string{
		"annual checkup", "persistent cough", "back pain", "skin rash",
		"migraine follow-up", "blood pressure review", "joint pain",
	}

	patientIDs := make([]string, 0, counts.Patients)
	for i := 0; i < counts.Patients; i++ {
		in := patients.CreateInput{
			FirstName:   faker.FirstName(),
			LastName:    faker.LastName(),
			DateOfBirth: faker.DateRange(time.Now().AddDate(-85, 0, 0), time.Now().AddDate(-18, 0, 0)),
			Gender:      faker.Gender(),
			Email:       faker.Email(),
			Phone:       faker.Phone(),
			Address:     faker.Address().Address,
			BloodGroup:  bloodGroups[faker.Number(0, len(bloodGroups)-1)],
		}
		if provider := insurers[faker.Number(0, len(insurers)-1)]; provider != "" {
			in.InsuranceProvider = provider
			in.InsurancePolicyNumber = fmt.Sprintf("%s-%d", provider[:3], faker.Number(10000, 99999))
		}
		p, err := svc.Patients.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
		patientIDs = append(patientIDs, p.ID)
	}

	specs := domain.AllSpecializations()
	doctorIDs := make([]string, 0, counts.Doctors)
	for i := 0; i < counts.Doctors; i++ {
		d, err := svc.Doctors.Create(ctx, doctors.CreateInput{
			FirstName:         faker.FirstName(),
			LastName:          faker.LastName(),
			Email:             faker.Email(),
			Phone:             faker.Phone(),
			LicenseNumber:     fmt.Sprintf("MED-%d-%05d", i+1, faker.Number(10000, 99999)),
			Specialization:    specs[i%len(specs)],
			YearsOfExperience: faker.Number(1, 30),
			Department:        faker.JobTitle(),
		})
		if err != nil {
			return fmt.Errorf("seed doctor: %w", err)
		}
		doctorIDs = append(doctorIDs, d.ID)
	}

	booked := 0
	for i := 0; i < counts.Appointments*2 && booked < counts.Appointments; i++ {
		day := faker.Number(1, 14)
		hour := faker.Number(9, 16)
		minute := 30 * faker.Number(0, 1)
		start := time.Now().UTC().AddDate(0, 0, day)
		start = time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, time.UTC)

		_, err := svc.Appointments.Create(ctx, appointments.CreateInput{
			PatientID:      patientIDs[faker.Number(0, len(patientIDs)-1)],
			DoctorID:       doctorIDs[faker.Number(0, len(doctorIDs)-1)],
			StartTime:      start,
			ReasonForVisit: reasons[faker.Number(0, len(reasons)-1)],
			Emergency:      faker.Number(0, 9) == 0,
		})
		if err != nil {
			var conflict *domain.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			return fmt.Errorf("seed appointment: %w", err)
		}
		booked++
	}

	log.Info("sample data generated",
		slog.Int("patients", len(patientIDs)),
		slog.Int("doctors", len(doctorIDs)),
		slog.Int("appointments", booked),
	)
	return nil
}
