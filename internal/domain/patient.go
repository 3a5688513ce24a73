package domain

import (
	"slices"
	"strings"
	"time"
)

// Patient is a registered patient. The medical history and allergy lists are
// kept unexported and copied at every access so no caller can mutate a
// stored patient's state through an alias.
type Patient struct {
	ID string
	PersonFields

	BloodGroup            string
	InsuranceProvider     string
	InsurancePolicyNumber string
	VisitCount            int

	medicalHistory []string
	allergies      []string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Patient) HasInsurance() bool {
	return strings.TrimSpace(p.InsuranceProvider) != ""
}

const seniorAge = 60

func (p Patient) IsSenior(now time.Time) bool {
	return p.Age(now) >= seniorAge
}

// MedicalHistory returns an independent copy of the history entries.
func (p Patient) MedicalHistory() []string {
	return slices.Clone(p.medicalHistory)
}

// AddMedicalHistory appends entry without aliasing any previously returned
// or stored slice.
func (p *Patient) AddMedicalHistory(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	p.medicalHistory = append(slices.Clone(p.medicalHistory), entry)
}

// SetMedicalHistory replaces the history with a copy of entries.
func (p *Patient) SetMedicalHistory(entries []string) {
	p.medicalHistory = slices.Clone(entries)
}

// Allergies returns an independent copy of the allergy list.
func (p Patient) Allergies() []string {
	return slices.Clone(p.allergies)
}

func (p *Patient) AddAllergy(allergy string) {
	allergy = strings.TrimSpace(allergy)
	if allergy == "" {
		return
	}
	for _, existing := range p.allergies {
		if strings.EqualFold(existing, allergy) {
			return
		}
	}
	p.allergies = append(slices.Clone(p.allergies), allergy)
}

func (p *Patient) SetAllergies(allergies []string) {
	p.allergies = slices.Clone(allergies)
}

func (p Patient) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return validationError("id", "is required")
	}
	return p.PersonFields.Validate()
}

func (p Patient) SearchTerms() []string {
	return []string{
		p.ID, p.FirstName, p.LastName, p.FullName(),
		p.Email, p.Phone, p.BloodGroup, p.InsuranceProvider,
	}
}

func (p Patient) Matches(term string) bool {
	return matchesAny(term, p.SearchTerms())
}
