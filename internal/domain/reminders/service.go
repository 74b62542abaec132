package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/logger"
	"pet-health/internal/platform/metrics"

	"github.com/google/uuid"
)

// Policy agrupa los defaults de recordatorios que vienen de config.
type Policy struct {
	DueDate             duedate.Policy
	DefaultHorizonDays  int
	VaccinationLeadDays int
}

func DefaultPolicy() Policy {
	return Policy{
		DueDate:             duedate.DefaultPolicy(),
		DefaultHorizonDays:  30,
		VaccinationLeadDays: 14,
	}
}

type ChangeListener func(ctx context.Context, petID string)

type Option func(*Service)

func WithChangeListener(fn ChangeListener) Option {
	return func(s *Service) { s.onChange = fn }
}

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

type Service struct {
	repo     Repository
	now      func() time.Time
	policy   Policy
	log      logger.Logger
	onChange ChangeListener
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		policy: DefaultPolicy(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type CreateInput struct {
	Type           ReminderType
	Title          string
	Description    string
	DueDate        time.Time
	Frequency      *duedate.Frequency
	IsRecurring    bool
	ReminderDays   int
	Priority       Priority
	HealthRecordID string
	VaccinationID  string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (Reminder, error) {
	return s.create(ctx, petID, in, "manual")
}

// ScheduleFromVaccination deriva un recordatorio "once" para la próxima dosis.
func (s *Service) ScheduleFromVaccination(ctx context.Context, petID, vaccinationID, vaccineName string, due time.Time) (string, error) {
	once := duedate.FrequencyOnce
	r, err := s.create(ctx, petID, CreateInput{
		Type:          TypeVaccination,
		Title:         strings.TrimSpace(vaccineName) + " booster",
		DueDate:       due,
		Frequency:     &once,
		IsRecurring:   false,
		ReminderDays:  s.policy.VaccinationLeadDays,
		Priority:      PriorityHigh,
		VaccinationID: vaccinationID,
	}, "vaccination")
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Service) create(ctx context.Context, petID string, in CreateInput, origin string) (Reminder, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Reminder{}, apperr.Invalid("pet_id", nil, "required")
	}
	if err := validateCreate(&in); err != nil {
		return Reminder{}, err
	}

	now := s.now().UTC()
	r := Reminder{
		ID:             uuid.NewString(),
		PetID:          petID,
		Type:           in.Type,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		DueDate:        in.DueDate.UTC(),
		Frequency:      in.Frequency,
		IsRecurring:    in.IsRecurring,
		IsCompleted:    false,
		ReminderDays:   in.ReminderDays,
		Priority:       in.Priority,
		HealthRecordID: strings.TrimSpace(in.HealthRecordID),
		VaccinationID:  strings.TrimSpace(in.VaccinationID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Reminder{}, err
	}

	metrics.IncReminderCreated(string(r.Type), origin)
	s.changed(ctx, petID)
	return r, nil
}

// validateCreate normaliza defaults (priority) y valida invariantes de recurrencia.
func validateCreate(in *CreateInput) error {
	if !in.Type.Valid() {
		return apperr.Invalid("type", in.Type, "must be one of medication, vaccination, checkup, grooming, weight_check, other")
	}
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Invalid("title", nil, "required")
	}
	if in.DueDate.IsZero() {
		return apperr.Invalid("due_date", nil, "required")
	}
	if in.ReminderDays < 0 {
		return apperr.Invalid("reminder_days", in.ReminderDays, "must be >= 0")
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return apperr.Invalid("priority", in.Priority, "must be one of low, medium, high")
	}
	if in.Frequency != nil && !in.Frequency.Valid() {
		return apperr.Invalid("frequency", *in.Frequency, "must be one of once, daily, weekly, monthly, yearly")
	}
	if in.IsRecurring && in.Frequency == nil {
		return apperr.Invalid("frequency", nil, "required when is_recurring is true")
	}
	if in.IsRecurring && *in.Frequency == duedate.FrequencyOnce {
		return apperr.Invalid("is_recurring", true, "a reminder with frequency once cannot be recurring")
	}
	return nil
}

// Complete marca el recordatorio como hecho en completedAt (zero = ahora).
//   - once: queda completed (terminal). Completar de nuevo devuelve el mismo estado.
//   - recurrente: registra la completion, avanza DueDate un período y vuelve a pending.
//
// El cambio se aplica con una actualización condicional; si otro request ganó la
// carrera devuelve apperr.ErrConflict y el caller decide si reintenta.
func (s *Service) Complete(ctx context.Context, petID, id string, completedAt time.Time) (Reminder, error) {
	rem, err := s.getOwned(ctx, petID, id)
	if err != nil {
		return Reminder{}, err
	}

	if !rem.IsRecurring && rem.IsCompleted {
		return rem, nil
	}

	now := s.now().UTC()
	if completedAt.IsZero() {
		completedAt = now
	}
	completedAt = completedAt.UTC()

	updated := rem
	updated.CompletedAt = &completedAt
	updated.UpdatedAt = now

	entry := Completion{
		ID:          uuid.NewString(),
		ReminderID:  rem.ID,
		DueDate:     rem.DueDate,
		CompletedAt: completedAt,
	}

	if rem.IsRecurring {
		if rem.Frequency == nil {
			return Reminder{}, fmt.Errorf("reminder %s recurring without frequency: %w", rem.ID, apperr.ErrInvalidState)
		}
		next, err := duedate.Advance(rem.DueDate, *rem.Frequency)
		if err != nil {
			return Reminder{}, fmt.Errorf("advance reminder %s: %v: %w", rem.ID, err, apperr.ErrInvalidState)
		}
		updated.DueDate = next
		updated.IsCompleted = false
		entry.NextDueDate = &next
	} else {
		updated.IsCompleted = true
	}

	err = s.repo.ApplyCompletion(ctx, CompletionUpdate{
		ExpectedDueDate:   rem.DueDate,
		ExpectedCompleted: rem.IsCompleted,
		Reminder:          updated,
		Entry:             entry,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			metrics.IncCompletionConflict()
		}
		return Reminder{}, err
	}

	metrics.IncReminderCompleted(string(rem.Type), rem.IsRecurring)
	s.log.Debug("reminder completed", map[string]any{
		"pet_id":      rem.PetID,
		"reminder_id": rem.ID,
		"recurring":   rem.IsRecurring,
		"due_date":    updated.DueDate,
	})
	s.changed(ctx, rem.PetID)
	return updated, nil
}

// Upcoming devuelve pendientes cuya fecha efectiva (due - reminderDays) cae antes de
// now + horizonDays. Incluye los vencidos. horizonDays < 0 usa el default de política.
func (s *Service) Upcoming(ctx context.Context, petID string, now time.Time, horizonDays int) ([]Reminder, error) {
	if horizonDays < 0 {
		horizonDays = s.policy.DefaultHorizonDays
	}

	items, err := s.repo.ListByPet(ctx, petID, false)
	if err != nil {
		return nil, err
	}

	limit := now.UTC().Add(time.Duration(horizonDays) * duedate.Day)
	out := make([]Reminder, 0, len(items))
	for _, r := range items {
		if r.IsCompleted {
			continue
		}
		if !r.EffectiveDate().After(limit) {
			out = append(out, r)
		}
	}

	SortUpcoming(out)
	return out, nil
}

// SortUpcoming: fecha efectiva asc, prioridad (high primero), id.
func SortUpcoming(items []Reminder) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ea, eb := a.EffectiveDate(), b.EffectiveDate()
		if !ea.Equal(eb) {
			return ea.Before(eb)
		}
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		return a.ID < b.ID
	})
}

// CountOverdue cuenta pendientes clasificados como overdue en now.
func (s *Service) CountOverdue(ctx context.Context, petID string, now time.Time) (int, error) {
	items, err := s.repo.ListByPet(ctx, petID, false)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range items {
		if r.IsCompleted {
			continue
		}
		due := r.DueDate
		if s.policy.DueDate.Classify(&due, now) == duedate.StatusOverdue {
			n++
		}
	}
	return n, nil
}

// Classify expone la clasificación de un recordatorio según la política configurada.
func (s *Service) Classify(r Reminder, now time.Time) duedate.Status {
	due := r.DueDate
	return s.policy.DueDate.Classify(&due, now)
}

func (s *Service) Get(ctx context.Context, petID, id string) (Reminder, error) {
	return s.getOwned(ctx, petID, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string, includeCompleted bool) ([]Reminder, error) {
	items, err := s.repo.ListByPet(ctx, strings.TrimSpace(petID), includeCompleted)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Reminder{}
	}
	return items, nil
}

// Delete solo ocurre por pedido explícito; el historial de completions se borra con él.
func (s *Service) Delete(ctx context.Context, petID, id string) error {
	rem, err := s.getOwned(ctx, petID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rem.ID); err != nil {
		return err
	}
	s.changed(ctx, rem.PetID)
	return nil
}

func (s *Service) Completions(ctx context.Context, petID, id string) ([]Completion, error) {
	rem, err := s.getOwned(ctx, petID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListCompletions(ctx, rem.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Completion{}
	}
	return items, nil
}

// Now expone el reloj del servicio (handlers lo usan cuando no viene ?now=).
func (s *Service) Now() time.Time { return s.now().UTC() }

func (s *Service) getOwned(ctx context.Context, petID, id string) (Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Reminder{}, apperr.Invalid("reminder_id", nil, "required")
	}
	rem, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if rem.PetID != strings.TrimSpace(petID) {
		return Reminder{}, apperr.NotFound("reminder", id)
	}
	return rem, nil
}

func (s *Service) changed(ctx context.Context, petID string) {
	if s.onChange != nil {
		s.onChange(ctx, petID)
	}
}
