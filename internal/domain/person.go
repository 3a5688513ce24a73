package domain

import (
	"strings"
	"time"
)

// PersonFields is the shared shape of every person-like entity. Doctor and
// Patient embed it rather than inheriting from a common base.
type PersonFields struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      string
	Email       string
	Phone       string
	Address     string
}

func (p PersonFields) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p PersonFields) Age(now time.Time) int {
	if p.DateOfBirth.IsZero() {
		return 0
	}
	years := now.Year() - p.DateOfBirth.Year()
	if now.YearDay() < p.DateOfBirth.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

const (
	minNameLength = 2
	maxNameLength = 50
)

// Validate checks the shared person fields. Entity-specific validation is
// layered on top by the embedding types.
func (p PersonFields) Validate() error {
	if err := validateName(p.FirstName, "firstName"); err != nil {
		return err
	}
	return validateName(p.LastName, "lastName")
}

func validateName(name, field string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError(field, "is required")
	}
	if len(name) < minNameLength || len(name) > maxNameLength {
		return validationError(field, "must be between 2 and 50 characters")
	}
	return nil
}

// Validatable is implemented by entities that can check their own fields.
type Validatable interface {
	Validate() error
}

// matchesAny reports whether any term contains the criteria,
// case-insensitively.
func matchesAny(criteria string, terms []string) bool {
	criteria = strings.ToLower(strings.TrimSpace(criteria))
	if criteria == "" {
		return false
	}
	for _, term := range terms {
		if strings.Contains(strings.ToLower(term), criteria) {
			return true
		}
	}
	return false
}
