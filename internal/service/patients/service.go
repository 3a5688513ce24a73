// Package patients manages patient records, their medical history, and
// allergy lists.
package patients

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
	patients *store.Store[domain.Patient]
	alloc    ids.Allocator
	log      *slog.Logger
}

func NewService(patients *store.Store[domain.Patient], alloc ids.Allocator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		patients: patients,
		alloc:    alloc,
		log:      log.With(slog.String("component", "service.patients")),
	}
}

// Store exposes the backing store for snapshot export/import.
func (s *Service) Store() *store.Store[domain.Patient] { return s.patients }

// ByName orders patients by last name, then first name.
func ByName(a, b domain.Patient) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	return a.FirstName < b.FirstName
}

type CreateInput struct {
	FirstName             string
	LastName              string
	DateOfBirth           time.Time
	Gender                string
	Email                 string
	Phone                 string
	Address               string
	BloodGroup            string
	InsuranceProvider     string
	InsurancePolicyNumber string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Patient, error) {
	now := time.Now().UTC()
	p := domain.Patient{
		ID: s.alloc.Next(ids.KindPatient),
		PersonFields: domain.PersonFields{
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			DateOfBirth: in.DateOfBirth,
			Gender:      strings.TrimSpace(in.Gender),
			Email:       strings.TrimSpace(in.Email),
			Phone:       strings.TrimSpace(in.Phone),
			Address:     strings.TrimSpace(in.Address),
		},
		BloodGroup:            strings.TrimSpace(in.BloodGroup),
		InsuranceProvider:     strings.TrimSpace(in.InsuranceProvider),
		InsurancePolicyNumber: strings.TrimSpace(in.InsurancePolicyNumber),
		Active:                true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := p.Validate(); err != nil {
		return domain.Patient{}, err
	}

	if _, _, err := s.patients.Put(p.ID, p); err != nil {
		return domain.Patient{}, fmt.Errorf("store patient: %w", err)
	}
	s.log.Info("patient registered", slog.String("patient_id", p.ID))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Patient, error) {
	p, ok := s.patients.Get(id)
	if !ok {
		return domain.Patient{}, fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	return p, nil
}

type UpdateInput struct {
	Email                 string
	Phone                 string
	Address               string
	BloodGroup            string
	InsuranceProvider     string
	InsurancePolicyNumber string
}

// Update changes a patient's mutable fields. Empty inputs keep the current
// value.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.Patient, error) {
	p, ok := s.patients.Get(id)
	if !ok {
		return domain.Patient{}, fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}

	if v := strings.TrimSpace(in.Email); v != "" {
		p.Email = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		p.Phone = v
	}
	if v := strings.TrimSpace(in.Address); v != "" {
		p.Address = v
	}
	if v := strings.TrimSpace(in.BloodGroup); v != "" {
		p.BloodGroup = v
	}
	if v := strings.TrimSpace(in.InsuranceProvider); v != "" {
		p.InsuranceProvider = v
	}
	if v := strings.TrimSpace(in.InsurancePolicyNumber); v != "" {
		p.InsurancePolicyNumber = v
	}
	p.UpdatedAt = time.Now().UTC()

	if err := p.Validate(); err != nil {
		return domain.Patient{}, err
	}
	if _, err := s.patients.Update(id, p); err != nil {
		return domain.Patient{}, fmt.Errorf("persist patient %q: %w", id, err)
	}
	return p, nil
}

// RecordVisit bumps the patient's visit counter.
func (s *Service) RecordVisit(ctx context.Context, id string) (domain.Patient, error) {
	p, ok := s.patients.Get(id)
	if !ok {
		return domain.Patient{}, fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	p.VisitCount++
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.patients.Update(id, p); err != nil {
		return domain.Patient{}, fmt.Errorf("persist patient %q: %w", id, err)
	}
	return p, nil
}

// AddMedicalHistory appends an entry to the patient's history.
func (s *Service) AddMedicalHistory(ctx context.Context, id, entry string) (domain.Patient, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return domain.Patient{}, &domain.ValidationError{Field: "entry", Msg: "is required"}
	}
	p, ok := s.patients.Get(id)
	if !ok {
		return domain.Patient{}, fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	p.AddMedicalHistory(entry)
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.patients.Update(id, p); err != nil {
		return domain.Patient{}, fmt.Errorf("persist patient %q: %w", id, err)
	}
	return p, nil
}

// AddAllergy records an allergy. Duplicates are ignored case-insensitively.
func (s *Service) AddAllergy(ctx context.Context, id, allergy string) (domain.Patient, error) {
	allergy = strings.TrimSpace(allergy)
	if allergy == "" {
		return domain.Patient{}, &domain.ValidationError{Field: "allergy", Msg: "is required"}
	}
	p, ok := s.patients.Get(id)
	if !ok {
		return domain.Patient{}, fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	p.AddAllergy(allergy)
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.patients.Update(id, p); err != nil {
		return domain.Patient{}, fmt.Errorf("persist patient %q: %w", id, err)
	}
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	p, ok := s.patients.Get(id)
	if !ok {
		return fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.patients.Update(id, p); err != nil {
		return fmt.Errorf("persist patient %q: %w", id, err)
	}
	s.log.Info("patient deactivated", slog.String("patient_id", id))
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.patients.Remove(id); !ok {
		return fmt.Errorf("patient %q: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Service) All(ctx context.Context) []domain.Patient {
	return s.patients.SortedValues(ByName)
}

func (s *Service) Insured(ctx context.Context) []domain.Patient {
	return s.patients.FindWhere(func(p domain.Patient) bool {
		return p.Active && p.HasInsurance()
	})
}

func (s *Service) Seniors(ctx context.Context) []domain.Patient {
	now := time.Now().UTC()
	return s.patients.FindWhere(func(p domain.Patient) bool {
		return p.Active && p.IsSenior(now)
	})
}

func (s *Service) Search(ctx context.Context, term string) []domain.Patient {
	return s.patients.Search(term)
}

func (s *Service) Page(ctx context.Context, pageNumber, pageSize int) (store.Page[domain.Patient], error) {
	return s.patients.Page(pageNumber, pageSize, ByName)
}
