package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/platform/apperr"
)

type healthRecordRepo struct {
	mu   sync.RWMutex
	byID map[string]healthrecords.HealthRecord
}

func NewHealthRecordRepo() healthrecords.Repository {
	return &healthRecordRepo{
		byID: make(map[string]healthrecords.HealthRecord),
	}
}

func (r *healthRecordRepo) Create(ctx context.Context, rec healthrecords.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; exists {
		return apperr.Conflict("health record", rec.ID)
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *healthRecordRepo) Update(ctx context.Context, rec healthrecords.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; !exists {
		return apperr.NotFound("health record", rec.ID)
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *healthRecordRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return apperr.NotFound("health record", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *healthRecordRepo) GetByID(ctx context.Context, id string) (healthrecords.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return healthrecords.HealthRecord{}, apperr.NotFound("health record", id)
	}
	return cloneRecord(rec), nil
}

func (r *healthRecordRepo) ListByPet(ctx context.Context, petID string, f healthrecords.ListFilter) ([]healthrecords.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]healthrecords.HealthRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, rec.Type) {
			continue
		}
		if f.From != nil && rec.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && rec.Date.After(*f.To) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}

	// date desc; empate por created_at desc para que el orden sea estable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *healthRecordRepo) CountBetween(ctx context.Context, petID string, t healthrecords.RecordType, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.byID {
		if rec.PetID == petID && rec.Type == t && !rec.Date.Before(from) && !rec.Date.After(to) {
			n++
		}
	}
	return n, nil
}

func (r *healthRecordRepo) CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.byID {
		if rec.PetID == petID && !rec.Date.After(asOf) {
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec healthrecords.HealthRecord) healthrecords.HealthRecord {
	rec.Attachments = slices.Clone(rec.Attachments)
	return rec
}
