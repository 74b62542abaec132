package pets

import (
	"context"
	"strings"
	"time"

	"pet-health/internal/platform/apperr"

	"github.com/google/uuid"
)

// Repository persiste mascotas. ListByOwner ordena por created_at asc.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
}

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
	Name      string
	Species   Species
	Breed     string
	Sex       Sex
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Pet{}, apperr.Invalid("owner_user_id", nil, "required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, apperr.Invalid("name", nil, "required")
	}
	if !in.Species.Valid() {
		return Pet{}, apperr.Invalid("species", in.Species, "must be one of dog, cat, other")
	}
	if in.Sex == "" {
		in.Sex = SexUnknown
	}
	if !in.Sex.Valid() {
		return Pet{}, apperr.Invalid("sex", in.Sex, "must be one of male, female, unknown")
	}

	now := s.now().UTC()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return Pet{}, apperr.Invalid("birth_date", in.BirthDate.Format(time.DateOnly), "must not be in the future")
	}

	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     in.Species,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         in.Sex,
		BirthDate:   in.BirthDate,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, apperr.NotFound("pet", id)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	items, err := s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Pet{}
	}
	return items, nil
}

// OwnerOf cumple middleware.PetOwnerLookup: con esto se autorizan las rutas de salud.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
