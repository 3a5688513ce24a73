// Package billing generates bills for completed appointments and records
// payments against them.
package billing

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

type Service struct {
	bills        *store.Store[domain.Bill]
	appointments *store.Store[domain.Appointment]
	patients     *store.Store[domain.Patient]
	alloc        ids.Allocator
	log          *slog.Logger
}

func NewService(
	bills *store.Store[domain.Bill],
	appointments *store.Store[domain.Appointment],
	patients *store.Store[domain.Patient],
	alloc ids.Allocator,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		bills:        bills,
		appointments: appointments,
		patients:     patients,
		alloc:        alloc,
		log:          log.With(slog.String("component", "service.billing")),
	}
}

// Store exposes the backing store for snapshot export/import.
func (s *Service) Store() *store.Store[domain.Bill] { return s.bills }

// ByCreation orders bills oldest first.
func ByCreation(a, b domain.Bill) bool {
	return a.CreatedAt.Before(b.CreatedAt)
}

// Generate creates a bill for a completed appointment. The base amount is
// the appointment's consultation fee; discounts depend on the patient being
// a senior or insured, and tax applies to the discounted amount. Billing the
// same appointment twice is rejected.
func (s *Service) Generate(ctx context.Context, appointmentID string) (domain.Bill, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	appt, ok := s.appointments.Get(appointmentID)
	if !ok {
		return domain.Bill{}, fmt.Errorf("appointment %q: %w", appointmentID, store.ErrNotFound)
	}
	if !appt.Status.IsBillable() {
		return domain.Bill{}, &domain.ValidationError{
			Field: "appointmentId",
			Msg:   fmt.Sprintf("cannot be billed in status %s", appt.Status),
		}
	}
	if s.bills.AnyMatch(func(b domain.Bill) bool { return b.AppointmentID == appointmentID && b.Active }) {
		return domain.Bill{}, &domain.ValidationError{Field: "appointmentId", Msg: "is already billed"}
	}

	patient, ok := s.patients.Get(appt.PatientID)
	if !ok {
		return domain.Bill{}, fmt.Errorf("patient %q: %w", appt.PatientID, store.ErrNotFound)
	}

	now := time.Now().UTC()
	bill := domain.Bill{
		ID:            s.alloc.Next(ids.KindBill),
		AppointmentID: appointmentID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		BaseAmount:    appt.ConsultationFee,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	bill.CalculateAmounts(patient.IsSenior(now), patient.HasInsurance())
	if err := bill.Validate(); err != nil {
		return domain.Bill{}, err
	}

	if _, _, err := s.bills.Put(bill.ID, bill); err != nil {
		return domain.Bill{}, fmt.Errorf("store bill: %w", err)
	}
	s.log.Info("bill generated",
		slog.String("bill_id", bill.ID),
		slog.String("appointment_id", appointmentID),
		slog.Float64("total", bill.TotalAmount),
	)
	return bill, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Bill, error) {
	bill, ok := s.bills.Get(id)
	if !ok {
		return domain.Bill{}, fmt.Errorf("bill %q: %w", id, store.ErrNotFound)
	}
	return bill, nil
}

// RecordPayment applies a payment to a bill. Overpayment and payments
// against settled bills are rejected; a failed payment leaves the stored
// bill untouched.
func (s *Service) RecordPayment(ctx context.Context, id string, amount float64, method string) (domain.Bill, error) {
	bill, ok := s.bills.Get(id)
	if !ok {
		return domain.Bill{}, fmt.Errorf("bill %q: %w", id, store.ErrNotFound)
	}
	if err := bill.RecordPayment(amount, method, time.Now().UTC()); err != nil {
		return domain.Bill{}, err
	}
	if _, err := s.bills.Update(id, bill); err != nil {
		return domain.Bill{}, fmt.Errorf("persist bill %q: %w", id, err)
	}
	s.log.Info("payment recorded",
		slog.String("bill_id", id),
		slog.Float64("amount", amount),
		slog.Bool("settled", bill.Paid),
	)
	return bill, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.bills.Remove(id); !ok {
		return fmt.Errorf("bill %q: %w", id, store.ErrNotFound)
	}
	return nil
}

func sorted(bills []domain.Bill) []domain.Bill {
	sort.SliceStable(bills, func(i, j int) bool { return ByCreation(bills[i], bills[j]) })
	return bills
}

func (s *Service) All(ctx context.Context) []domain.Bill {
	return sorted(s.bills.FindWhere(func(b domain.Bill) bool { return b.Active }))
}

func (s *Service) ByPatient(ctx context.Context, patientID string) []domain.Bill {
	return sorted(s.bills.FindWhere(func(b domain.Bill) bool {
		return b.Active && b.PatientID == patientID
	}))
}

// Outstanding lists unsettled bills.
func (s *Service) Outstanding(ctx context.Context) []domain.Bill {
	return sorted(s.bills.FindWhere(func(b domain.Bill) bool {
		return b.Active && !b.Paid
	}))
}

// Revenue summarizes billed and collected amounts across active bills.
type Revenue struct {
	Billed      float64
	Collected   float64
	Outstanding float64
	BillCount   int
	UnpaidCount int
}

func (s *Service) RevenueSummary(ctx context.Context) Revenue {
	var r Revenue
	for _, b := range s.bills.FindWhere(func(b domain.Bill) bool { return b.Active }) {
		r.Billed += b.TotalAmount
		r.Collected += b.AmountPaid
		r.Outstanding += b.Outstanding()
		r.BillCount++
		if !b.Paid {
			r.UnpaidCount++
		}
	}
	return r
}
