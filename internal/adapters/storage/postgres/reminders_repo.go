package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/domain/reminders"
	"pet-health/internal/platform/apperr"
)

type RemindersRepo struct {
	db *sql.DB
}

func NewRemindersRepo(db *sql.DB) *RemindersRepo {
	return &RemindersRepo{db: db}
}

const reminderColumns = `
	id, pet_id, type, title, description,
	due_date, frequency, is_recurring, is_completed, completed_at,
	reminder_days, priority, health_record_id, vaccination_id,
	created_at, updated_at`

func (r *RemindersRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_reminders (`+reminderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		rem.ID,
		rem.PetID,
		string(rem.Type),
		rem.Title,
		rem.Description,
		rem.DueDate.UTC(),
		nullFrequency(rem.Frequency),
		rem.IsRecurring,
		rem.IsCompleted,
		nullTime(rem.CompletedAt),
		rem.ReminderDays,
		string(rem.Priority),
		rem.HealthRecordID,
		rem.VaccinationID,
		rem.CreatedAt,
		rem.UpdatedAt,
	)
	return err
}

func (r *RemindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM health_reminders WHERE id = $1`, strings.TrimSpace(id))
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reminders.Reminder{}, apperr.NotFound("reminder", id)
	}
	return rem, err
}

func (r *RemindersRepo) ListByPet(ctx context.Context, petID string, includeCompleted bool) ([]reminders.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM health_reminders WHERE pet_id = $1`
	if !includeCompleted {
		q += ` AND is_completed = FALSE`
	}
	q += ` ORDER BY due_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reminders.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// Delete borra también el historial (ON DELETE CASCADE).
func (r *RemindersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}

// ApplyCompletion: UPDATE condicionado a due_date/is_completed leídos + INSERT del
// historial, en una sola tx. 0 filas = otro request ganó (o el recordatorio ya no existe).
func (r *RemindersRepo) ApplyCompletion(ctx context.Context, u reminders.CompletionUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rem := u.Reminder
	res, err := tx.ExecContext(ctx, `
		UPDATE health_reminders
		SET
			due_date = $4,
			is_completed = $5,
			completed_at = $6,
			updated_at = $7
		WHERE id = $1 AND due_date = $2 AND is_completed = $3
	`,
		rem.ID,
		u.ExpectedDueDate.UTC(),
		u.ExpectedCompleted,
		rem.DueDate.UTC(),
		rem.IsCompleted,
		nullTime(rem.CompletedAt),
		rem.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM health_reminders WHERE id = $1)`, rem.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("reminder", rem.ID)
		}
		return apperr.Conflict("reminder", rem.ID)
	}

	e := u.Entry
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reminder_completions (id, reminder_id, due_date, completed_at, next_due_date)
		VALUES ($1,$2,$3,$4,$5)
	`, e.ID, e.ReminderID, e.DueDate.UTC(), e.CompletedAt.UTC(), nullTime(e.NextDueDate)); err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}

	return tx.Commit()
}

func (r *RemindersRepo) ListCompletions(ctx context.Context, reminderID string) ([]reminders.Completion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reminder_id, due_date, completed_at, next_due_date
		FROM reminder_completions
		WHERE reminder_id = $1
		ORDER BY completed_at ASC, due_date ASC
	`, reminderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reminders.Completion, 0)
	for rows.Next() {
		var c reminders.Completion
		var next sql.NullTime
		if err := rows.Scan(&c.ID, &c.ReminderID, &c.DueDate, &c.CompletedAt, &next); err != nil {
			return nil, err
		}
		c.DueDate = c.DueDate.UTC()
		c.CompletedAt = c.CompletedAt.UTC()
		c.NextDueDate = fromNullTime(next)
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanReminder(s scanner) (reminders.Reminder, error) {
	var rem reminders.Reminder
	var typ, priority string
	var freq sql.NullString
	var completedAt sql.NullTime
	if err := s.Scan(
		&rem.ID,
		&rem.PetID,
		&typ,
		&rem.Title,
		&rem.Description,
		&rem.DueDate,
		&freq,
		&rem.IsRecurring,
		&rem.IsCompleted,
		&completedAt,
		&rem.ReminderDays,
		&priority,
		&rem.HealthRecordID,
		&rem.VaccinationID,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	); err != nil {
		return reminders.Reminder{}, err
	}

	rem.Type = reminders.ReminderType(typ)
	rem.Priority = reminders.Priority(priority)
	rem.DueDate = rem.DueDate.UTC()
	rem.CompletedAt = fromNullTime(completedAt)
	if freq.Valid {
		f := duedate.Frequency(freq.String)
		rem.Frequency = &f
	}
	return rem, nil
}

func nullFrequency(f *duedate.Frequency) sql.NullString {
	if f == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*f), Valid: true}
}
