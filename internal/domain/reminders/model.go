package reminders

import (
	"time"

	"pet-health/internal/domain/duedate"
)

type Reminder struct {
	ID    string
	PetID string

	Type        ReminderType
	Title       string
	Description string

	DueDate   time.Time
	Frequency *duedate.Frequency // nil = sin frecuencia

	IsRecurring bool
	IsCompleted bool
	CompletedAt *time.Time

	// ReminderDays: días de anticipación con los que entra en la vista "upcoming".
	ReminderDays int
	Priority     Priority

	// Referencias opcionales al origen del recordatorio.
	HealthRecordID string
	VaccinationID  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Reminder) State() State {
	if r.IsCompleted {
		return StateCompleted
	}
	return StatePending
}

// EffectiveDate es el momento en que el recordatorio empieza a mostrarse.
func (r Reminder) EffectiveDate() time.Time {
	return r.DueDate.Add(-time.Duration(r.ReminderDays) * duedate.Day)
}

// Completion es una entrada del historial; los recurrentes acumulan una por período.
type Completion struct {
	ID          string
	ReminderID  string
	DueDate     time.Time
	CompletedAt time.Time
	NextDueDate *time.Time
}
