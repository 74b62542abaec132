package reminders

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Reminder) error
	GetByID(ctx context.Context, id string) (Reminder, error)
	// ListByPet ordena por due_date asc.
	ListByPet(ctx context.Context, petID string, includeCompleted bool) ([]Reminder, error)
	Delete(ctx context.Context, id string) error

	// ApplyCompletion persiste Reminder y Entry de forma atómica, solo si el registro
	// sigue teniendo ExpectedDueDate/ExpectedCompleted. Si no, devuelve apperr.ErrConflict.
	ApplyCompletion(ctx context.Context, u CompletionUpdate) error
	ListCompletions(ctx context.Context, reminderID string) ([]Completion, error)
}

type CompletionUpdate struct {
	ExpectedDueDate   time.Time
	ExpectedCompleted bool

	Reminder Reminder
	Entry    Completion
}
