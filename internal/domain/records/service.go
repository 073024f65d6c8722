package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("record not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Type             RecordType
	Title            string
	Description      string
	RecordDate       time.Time
	VeterinaryClinic string
	VeterinarianName string
	WeightAtVisit    *float64
	Notes            string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (MedicalRecord, error) {
	if strings.TrimSpace(petID) == "" {
		return MedicalRecord{}, ErrInvalidInput
	}
	if !validType(in.Type) {
		return MedicalRecord{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return MedicalRecord{}, ErrInvalidInput
	}
	if in.RecordDate.IsZero() {
		return MedicalRecord{}, ErrInvalidInput
	}
	if in.WeightAtVisit != nil && *in.WeightAtVisit <= 0 {
		return MedicalRecord{}, ErrInvalidInput
	}

	now := s.now()
	rec := MedicalRecord{
		ID:               uuid.NewString(),
		PetID:            petID,
		Type:             in.Type,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		RecordDate:       in.RecordDate,
		VeterinaryClinic: strings.TrimSpace(in.VeterinaryClinic),
		VeterinarianName: strings.TrimSpace(in.VeterinarianName),
		WeightAtVisit:    in.WeightAtVisit,
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (MedicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MedicalRecord{}, ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return MedicalRecord{}, ErrNotFound
	}
	if err != nil {
		return MedicalRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]MedicalRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Type             *RecordType
	Title            *string
	Description      *string
	RecordDate       *time.Time
	VeterinaryClinic *string
	VeterinarianName *string
	WeightAtVisit    *float64
	Notes            *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (MedicalRecord, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return MedicalRecord{}, err
	}

	if in.Type != nil {
		if !validType(*in.Type) {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.Type = *in.Type
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		rec.Description = strings.TrimSpace(*in.Description)
	}
	if in.RecordDate != nil {
		rec.RecordDate = *in.RecordDate
	}
	if in.VeterinaryClinic != nil {
		rec.VeterinaryClinic = strings.TrimSpace(*in.VeterinaryClinic)
	}
	if in.VeterinarianName != nil {
		rec.VeterinarianName = strings.TrimSpace(*in.VeterinarianName)
	}
	if in.WeightAtVisit != nil {
		if *in.WeightAtVisit <= 0 {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.WeightAtVisit = in.WeightAtVisit
	}
	if in.Notes != nil {
		rec.Notes = strings.TrimSpace(*in.Notes)
	}

	rec.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
