package memory

import (
	"context"
	"sort"
	"sync"

	"pet-health/internal/domain/vaccinations"
	"pet-health/internal/platform/apperr"
)

type vaccinationRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccinations.VaccinationRecord
}

func NewVaccinationRepo() vaccinations.Repository {
	return &vaccinationRepo{
		byID: make(map[string]vaccinations.VaccinationRecord),
	}
}

func (r *vaccinationRepo) Create(ctx context.Context, v vaccinations.VaccinationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[v.ID]; exists {
		return apperr.Conflict("vaccination", v.ID)
	}
	r.byID[v.ID] = v
	return nil
}

func (r *vaccinationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return apperr.NotFound("vaccination", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *vaccinationRepo) GetByID(ctx context.Context, id string) (vaccinations.VaccinationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return vaccinations.VaccinationRecord{}, apperr.NotFound("vaccination", id)
	}
	return v, nil
}

func (r *vaccinationRepo) ListByPet(ctx context.Context, petID string) ([]vaccinations.VaccinationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccinations.VaccinationRecord, 0)
	for _, v := range r.byID {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateGiven.Equal(out[j].DateGiven) {
			return out[i].DateGiven.After(out[j].DateGiven)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
