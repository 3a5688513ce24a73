package domain

import (
	"strings"
	"time"
)

// Specialization is a doctor's medical specialty. Each carries a base
// consultation fee.
type Specialization string

const (
	Cardiology      Specialization = "CARDIOLOGY"
	Neurology       Specialization = "NEUROLOGY"
	Orthopedics     Specialization = "ORTHOPEDICS"
	Dermatology     Specialization = "DERMATOLOGY"
	Pediatrics      Specialization = "PEDIATRICS"
	GeneralMedicine Specialization = "GENERAL_MEDICINE"
)

var specializationFees = map[Specialization]float64{
	Cardiology:      2000,
	Neurology:       2500,
	Orthopedics:     1800,
	Dermatology:     1200,
	Pediatrics:      1500,
	GeneralMedicine: 1000,
}

func AllSpecializations() []Specialization {
	return []Specialization{
		Cardiology, Neurology, Orthopedics, Dermatology, Pediatrics, GeneralMedicine,
	}
}

func ParseSpecialization(s string) (Specialization, bool) {
	norm := Specialization(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := specializationFees[norm]
	return norm, ok
}

func (s Specialization) BaseFee() float64 {
	return specializationFees[s]
}

// ConsultationFee scales the base fee by experience: 5% per year, capped at
// three times the base.
func (s Specialization) ConsultationFee(yearsExperience int) float64 {
	multiplier := 1.0 + float64(yearsExperience)*0.05
	if multiplier > 3.0 {
		multiplier = 3.0
	}
	return s.BaseFee() * multiplier
}

// Doctor is a practitioner who can take appointments. Available is a
// scheduling flag distinct from the Active soft-delete flag.
type Doctor struct {
	ID string
	PersonFields

	LicenseNumber     string
	Specialization    Specialization
	YearsOfExperience int
	ConsultationFee   float64
	Department        string
	Available         bool

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const emergencySurcharge = 1.5

// EffectiveConsultationFee applies the emergency surcharge when requested.
func (d Doctor) EffectiveConsultationFee(emergency bool) float64 {
	fee := d.ConsultationFee
	if fee == 0 {
		fee = d.Specialization.ConsultationFee(d.YearsOfExperience)
	}
	if emergency {
		fee *= emergencySurcharge
	}
	return fee
}

func (d Doctor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return validationError("id", "is required")
	}
	if err := d.PersonFields.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.LicenseNumber) == "" {
		return validationError("licenseNumber", "is required")
	}
	if _, ok := specializationFees[d.Specialization]; !ok {
		return validationError("specialization", "is not a recognized specialization")
	}
	if d.YearsOfExperience < 0 {
		return validationError("yearsOfExperience", "must not be negative")
	}
	return nil
}

// SearchTerms lists the fields free-text search runs over.
func (d Doctor) SearchTerms() []string {
	return []string{
		d.ID, d.FirstName, d.LastName, d.FullName(),
		d.LicenseNumber, string(d.Specialization), d.Department, d.Email,
	}
}

func (d Doctor) Matches(term string) bool {
	return matchesAny(term, d.SearchTerms())
}
