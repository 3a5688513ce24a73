// Package doctors manages the doctor registry.
package doctors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/store"
)

type Service struct {
	doctors *store.Store[domain.Doctor]
	alloc   ids.Allocator
	log     *slog.Logger
}

func NewService(doctors *store.Store[domain.Doctor], alloc ids.Allocator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		doctors: doctors,
		alloc:   alloc,
		log:     log.With(slog.String("component", "service.doctors")),
	}
}

// Store exposes the backing store for snapshot export/import.
func (s *Service) Store() *store.Store[domain.Doctor] { return s.doctors }

// ByName orders doctors by last name, then first name.
func ByName(a, b domain.Doctor) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	return a.FirstName < b.FirstName
}

type CreateInput struct {
	FirstName         string
	LastName          string
	DateOfBirth       time.Time
	Gender            string
	Email             string
	Phone             string
	Address           string
	LicenseNumber     string
	Specialization    domain.Specialization
	YearsOfExperience int
	ConsultationFee   float64
	Department        string
}

// Create registers a doctor. When no explicit consultation fee is given the
// fee is derived from the specialization and years of experience.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Doctor, error) {
	now := time.Now().UTC()
	doc := domain.Doctor{
		ID: s.alloc.Next(ids.KindDoctor),
		PersonFields: domain.PersonFields{
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			DateOfBirth: in.DateOfBirth,
			Gender:      strings.TrimSpace(in.Gender),
			Email:       strings.TrimSpace(in.Email),
			Phone:       strings.TrimSpace(in.Phone),
			Address:     strings.TrimSpace(in.Address),
		},
		LicenseNumber:     strings.TrimSpace(in.LicenseNumber),
		Specialization:    in.Specialization,
		YearsOfExperience: in.YearsOfExperience,
		ConsultationFee:   in.ConsultationFee,
		Department:        strings.TrimSpace(in.Department),
		Available:         true,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if doc.ConsultationFee == 0 {
		doc.ConsultationFee = doc.Specialization.ConsultationFee(doc.YearsOfExperience)
	}
	if err := doc.Validate(); err != nil {
		return domain.Doctor{}, err
	}
	if s.doctors.AnyMatch(func(d domain.Doctor) bool { return d.LicenseNumber == doc.LicenseNumber }) {
		return domain.Doctor{}, &domain.ValidationError{Field: "licenseNumber", Msg: "is already registered"}
	}

	if _, _, err := s.doctors.Put(doc.ID, doc); err != nil {
		return domain.Doctor{}, fmt.Errorf("store doctor: %w", err)
	}
	s.log.Info("doctor registered",
		slog.String("doctor_id", doc.ID),
		slog.String("specialization", string(doc.Specialization)),
	)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Doctor, error) {
	doc, ok := s.doctors.Get(id)
	if !ok {
		return domain.Doctor{}, fmt.Errorf("doctor %q: %w", id, store.ErrNotFound)
	}
	return doc, nil
}

type UpdateInput struct {
	Email             string
	Phone             string
	Address           string
	YearsOfExperience int
	ConsultationFee   float64
	Department        string
}

// Update changes a doctor's mutable contact and practice fields. Empty or
// zero inputs keep the current value.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.Doctor, error) {
	doc, ok := s.doctors.Get(id)
	if !ok {
		return domain.Doctor{}, fmt.Errorf("doctor %q: %w", id, store.ErrNotFound)
	}

	if v := strings.TrimSpace(in.Email); v != "" {
		doc.Email = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		doc.Phone = v
	}
	if v := strings.TrimSpace(in.Address); v != "" {
		doc.Address = v
	}
	if v := strings.TrimSpace(in.Department); v != "" {
		doc.Department = v
	}
	if in.YearsOfExperience > 0 {
		doc.YearsOfExperience = in.YearsOfExperience
	}
	if in.ConsultationFee > 0 {
		doc.ConsultationFee = in.ConsultationFee
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := doc.Validate(); err != nil {
		return domain.Doctor{}, err
	}
	if _, err := s.doctors.Update(id, doc); err != nil {
		return domain.Doctor{}, fmt.Errorf("persist doctor %q: %w", id, err)
	}
	return doc, nil
}

// SetAvailability toggles whether a doctor accepts new appointments.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (domain.Doctor, error) {
	doc, ok := s.doctors.Get(id)
	if !ok {
		return domain.Doctor{}, fmt.Errorf("doctor %q: %w", id, store.ErrNotFound)
	}
	doc.Available = available
	doc.UpdatedAt = time.Now().UTC()
	if _, err := s.doctors.Update(id, doc); err != nil {
		return domain.Doctor{}, fmt.Errorf("persist doctor %q: %w", id, err)
	}
	return doc, nil
}

// Deactivate retires a doctor without removing the record. Existing
// appointments keep referring to the id.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	doc, ok := s.doctors.Get(id)
	if !ok {
		return fmt.Errorf("doctor %q: %w", id, store.ErrNotFound)
	}
	doc.Active = false
	doc.Available = false
	doc.UpdatedAt = time.Now().UTC()
	if _, err := s.doctors.Update(id, doc); err != nil {
		return fmt.Errorf("persist doctor %q: %w", id, err)
	}
	s.log.Info("doctor deactivated", slog.String("doctor_id", id))
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.doctors.Remove(id); !ok {
		return fmt.Errorf("doctor %q: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Service) All(ctx context.Context) []domain.Doctor {
	return s.doctors.SortedValues(ByName)
}

func (s *Service) BySpecialization(ctx context.Context, spec domain.Specialization) []domain.Doctor {
	return s.doctors.FindWhere(func(d domain.Doctor) bool {
		return d.Active && d.Specialization == spec
	})
}

func (s *Service) Available(ctx context.Context) []domain.Doctor {
	return s.doctors.FindWhere(func(d domain.Doctor) bool {
		return d.Active && d.Available
	})
}

func (s *Service) Search(ctx context.Context, term string) []domain.Doctor {
	return s.doctors.Search(term)
}

func (s *Service) Page(ctx context.Context, pageNumber, pageSize int) (store.Page[domain.Doctor], error) {
	return s.doctors.Page(pageNumber, pageSize, ByName)
}
