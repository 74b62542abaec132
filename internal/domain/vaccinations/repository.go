package vaccinations

import "context"

type Repository interface {
	Create(ctx context.Context, v VaccinationRecord) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (VaccinationRecord, error)
	// ListByPet ordena por date_given desc.
	ListByPet(ctx context.Context, petID string) ([]VaccinationRecord, error)
}
