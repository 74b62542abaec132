package memory

import (
	"context"
	"sort"
	"sync"

	"pet-health/internal/domain/reminders"
	"pet-health/internal/platform/apperr"
)

type reminderRepo struct {
	mu          sync.RWMutex
	byID        map[string]reminders.Reminder
	completions map[string][]reminders.Completion
}

func NewReminderRepo() reminders.Repository {
	return &reminderRepo{
		byID:        make(map[string]reminders.Reminder),
		completions: make(map[string][]reminders.Completion),
	}
}

func (r *reminderRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rem.ID]; exists {
		return apperr.Conflict("reminder", rem.ID)
	}
	r.byID[rem.ID] = rem
	return nil
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.byID[id]
	if !ok {
		return reminders.Reminder{}, apperr.NotFound("reminder", id)
	}
	return rem, nil
}

func (r *reminderRepo) ListByPet(ctx context.Context, petID string, includeCompleted bool) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.byID {
		if rem.PetID != petID {
			continue
		}
		if rem.IsCompleted && !includeCompleted {
			continue
		}
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return apperr.NotFound("reminder", id)
	}
	delete(r.byID, id)
	delete(r.completions, id)
	return nil
}

// ApplyCompletion compara y reemplaza bajo el mismo lock.
func (r *reminderRepo) ApplyCompletion(ctx context.Context, u reminders.CompletionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := u.Reminder.ID
	cur, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("reminder", id)
	}
	if !cur.DueDate.Equal(u.ExpectedDueDate) || cur.IsCompleted != u.ExpectedCompleted {
		return apperr.Conflict("reminder", id)
	}

	r.byID[id] = u.Reminder
	r.completions[id] = append(r.completions[id], u.Entry)
	return nil
}

func (r *reminderRepo) ListCompletions(ctx context.Context, reminderID string) ([]reminders.Completion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.completions[reminderID]
	out := make([]reminders.Completion, len(src))
	copy(out, src)
	return out, nil
}
