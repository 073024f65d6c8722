package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("pet not found")
	ErrNotAuthorized = errors.New("not authorized")
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
	Name        string
	Species     string
	Breed       string
	Gender      string
	BirthDate   *time.Time
	Weight      *float64
	Color       string
	Description string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}
	if !validSpecies(in.Species) {
		return Pet{}, ErrInvalidInput
	}
	gender := Gender(strings.TrimSpace(in.Gender))
	if gender != GenderMale && gender != GenderFemale {
		return Pet{}, ErrInvalidInput
	}
	if in.Weight != nil && *in.Weight <= 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     strings.TrimSpace(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Gender:      gender,
		BirthDate:   in.BirthDate,
		Weight:      in.Weight,
		Color:       strings.TrimSpace(in.Color),
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// GetOwned devuelve la mascota solo si pertenece al usuario.
// La distinción inexistente/ajena no se expone: ambas son ErrNotFound
// para el caller HTTP (no filtramos existencia de mascotas ajenas).
func (s *Service) GetOwned(ctx context.Context, petID, ownerUserID string) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.OwnerUserID != ownerUserID {
		return Pet{}, ErrNotAuthorized
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Pet{}, ErrNotFound
	}
	if err != nil {
		return Pet{}, fmt.Errorf("get pet: %w", err)
	}
	if !p.IsActive {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	out := make([]Pet, 0, len(items))
	for _, p := range items {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string
	Species     *string
	Breed       *string
	Gender      *string
	BirthDate   *time.Time
	Weight      *float64
	Color       *string
	Description *string
	PhotoURL    *string
}

func (s *Service) Update(ctx context.Context, petID, ownerUserID string, in UpdateInput) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, ownerUserID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		if !validSpecies(*in.Species) {
			return Pet{}, ErrInvalidInput
		}
		p.Species = strings.TrimSpace(*in.Species)
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Gender != nil {
		g := Gender(strings.TrimSpace(*in.Gender))
		if g != GenderMale && g != GenderFemale {
			return Pet{}, ErrInvalidInput
		}
		p.Gender = g
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.Weight != nil {
		if *in.Weight <= 0 {
			return Pet{}, ErrInvalidInput
		}
		p.Weight = in.Weight
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}

	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Delete es una baja lógica: la mascota queda is_active=false y desaparece
// de listados y lecturas, pero sus registros no se borran.
func (s *Service) Delete(ctx context.Context, petID, ownerUserID string) error {
	p, err := s.GetOwned(ctx, petID, ownerUserID)
	if err != nil {
		return err
	}

	p.IsActive = false
	p.UpdatedAt = s.now()
	return s.repo.Update(ctx, p)
}

func validSpecies(s string) bool {
	s = strings.TrimSpace(s)
	for _, k := range KnownSpecies {
		if s == k {
			return true
		}
	}
	return false
}
