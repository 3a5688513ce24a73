package domain

import (
	"strings"
	"time"
)

// Billing rates, applied in CalculateAmounts. Discounts stack and tax is
// charged on the discounted amount.
const (
	TaxRate           = 0.18
	SeniorDiscount    = 0.10
	InsuranceDiscount = 0.15
	DiscountThreshold = 5000.0
	ThresholdDiscount = 0.05
)

// Bill is the charge raised for a completed appointment. Amount fields are
// pure functions of the base amount and the patient's discount eligibility;
// nothing here interacts with store locking.
type Bill struct {
	ID            string
	AppointmentID string
	PatientID     string
	DoctorID      string

	BaseAmount     float64
	DiscountAmount float64
	TaxAmount      float64
	TotalAmount    float64

	AmountPaid    float64
	Paid          bool
	PaymentMethod string
	PaidAt        *time.Time

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculateAmounts fills the discount, tax, and total fields from the base
// amount. senior and insured reflect the patient at billing time.
func (b *Bill) CalculateAmounts(senior, insured bool) {
	discount := 0.0
	if senior {
		discount += b.BaseAmount * SeniorDiscount
	}
	if insured {
		discount += b.BaseAmount * InsuranceDiscount
	}
	if b.BaseAmount >= DiscountThreshold {
		discount += b.BaseAmount * ThresholdDiscount
	}

	discounted := b.BaseAmount - discount
	b.DiscountAmount = discount
	b.TaxAmount = discounted * TaxRate
	b.TotalAmount = discounted + b.TaxAmount
}

// Outstanding is the unpaid remainder, never negative.
func (b Bill) Outstanding() float64 {
	out := b.TotalAmount - b.AmountPaid
	if out < 0 {
		return 0
	}
	return out
}

// RecordPayment applies a full or partial payment. The bill flips to paid
// once the running total covers the total amount.
func (b *Bill) RecordPayment(amount float64, method string, now time.Time) error {
	if amount <= 0 {
		return validationError("amount", "must be positive")
	}
	if b.Paid {
		return validationError("bill", "is already fully paid")
	}
	if amount > b.Outstanding() {
		return validationError("amount", "exceeds the outstanding balance")
	}

	b.AmountPaid += amount
	if strings.TrimSpace(method) != "" {
		b.PaymentMethod = method
	}
	if b.Outstanding() == 0 {
		b.Paid = true
		paidAt := now.UTC()
		b.PaidAt = &paidAt
	}
	b.UpdatedAt = now.UTC()
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return validationError("id", "is required")
	}
	if strings.TrimSpace(b.AppointmentID) == "" {
		return validationError("appointmentId", "is required")
	}
	if b.BaseAmount < 0 {
		return validationError("baseAmount", "must not be negative")
	}
	return nil
}

func (b Bill) SearchTerms() []string {
	return []string{b.ID, b.AppointmentID, b.PatientID, b.DoctorID, b.PaymentMethod}
}

func (b Bill) Matches(term string) bool {
	return matchesAny(term, b.SearchTerms())
}
