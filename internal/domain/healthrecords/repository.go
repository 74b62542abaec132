package healthrecords

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec HealthRecord) error
	Update(ctx context.Context, rec HealthRecord) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (HealthRecord, error)
	// ListByPet ordena por date desc (más reciente primero).
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthRecord, error)
	// CountBetween cuenta registros del tipo con date en [from, to].
	CountBetween(ctx context.Context, petID string, recordType RecordType, from, to time.Time) (int, error)
	// CountByPet cuenta todos los registros de la mascota con date <= asOf.
	CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error)
}

type ListFilter struct {
	Types []RecordType
	From  *time.Time
	To    *time.Time
	Limit int
}
