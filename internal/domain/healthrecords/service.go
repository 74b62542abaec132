package healthrecords

import (
	"context"
	"strings"
	"time"

	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/logger"
	"pet-health/internal/platform/metrics"

	"github.com/google/uuid"
)

// ChangeListener se invoca tras cada escritura exitosa (p.ej. invalidar cache de stats).
type ChangeListener func(ctx context.Context, petID string)

type Option func(*Service)

func WithChangeListener(fn ChangeListener) Option {
	return func(s *Service) { s.onChange = fn }
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
	log      logger.Logger
	onChange ChangeListener
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type CreateInput struct {
	Date         time.Time
	Type         RecordType
	VetName      string
	VetClinic    string
	Diagnosis    string
	Treatment    string
	Medications  string
	Notes        string
	FollowUpDate *time.Time
	Cost         *float64
	Attachments  []string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (HealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return HealthRecord{}, apperr.Invalid("pet_id", nil, "required")
	}

	now := s.now().UTC()
	if err := validateFields(in.Type, in.Date, in.FollowUpDate, in.Cost, now); err != nil {
		return HealthRecord{}, err
	}

	rec := HealthRecord{
		ID:           uuid.NewString(),
		PetID:        petID,
		Date:         in.Date.UTC(),
		Type:         in.Type,
		VetName:      strings.TrimSpace(in.VetName),
		VetClinic:    strings.TrimSpace(in.VetClinic),
		Diagnosis:    strings.TrimSpace(in.Diagnosis),
		Treatment:    strings.TrimSpace(in.Treatment),
		Medications:  strings.TrimSpace(in.Medications),
		Notes:        strings.TrimSpace(in.Notes),
		FollowUpDate: utcPtr(in.FollowUpDate),
		Cost:         in.Cost,
		Attachments:  cleanAttachments(in.Attachments),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return HealthRecord{}, err
	}

	metrics.IncHealthRecordCreated(string(rec.Type))
	s.log.Debug("health record created", map[string]any{"pet_id": petID, "record_id": rec.ID, "type": rec.Type})
	s.changed(ctx, petID)
	return rec, nil
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Date         *time.Time
	Type         *RecordType
	VetName      *string
	VetClinic    *string
	Diagnosis    *string
	Treatment    *string
	Medications  *string
	Notes        *string
	FollowUpDate *time.Time
	Cost         *float64
	Attachments  []string
}

func (s *Service) Update(ctx context.Context, petID, id string, in UpdateInput) (HealthRecord, error) {
	rec, err := s.getOwned(ctx, petID, id)
	if err != nil {
		return HealthRecord{}, err
	}

	if in.Date != nil {
		rec.Date = in.Date.UTC()
	}
	if in.Type != nil {
		rec.Type = *in.Type
	}
	setTrimmed(&rec.VetName, in.VetName)
	setTrimmed(&rec.VetClinic, in.VetClinic)
	setTrimmed(&rec.Diagnosis, in.Diagnosis)
	setTrimmed(&rec.Treatment, in.Treatment)
	setTrimmed(&rec.Medications, in.Medications)
	setTrimmed(&rec.Notes, in.Notes)
	if in.FollowUpDate != nil {
		rec.FollowUpDate = utcPtr(in.FollowUpDate)
	}
	if in.Cost != nil {
		rec.Cost = in.Cost
	}
	if in.Attachments != nil {
		rec.Attachments = cleanAttachments(in.Attachments)
	}

	now := s.now().UTC()
	if err := validateFields(rec.Type, rec.Date, rec.FollowUpDate, rec.Cost, now); err != nil {
		return HealthRecord{}, err
	}
	rec.UpdatedAt = now

	if err := s.repo.Update(ctx, rec); err != nil {
		return HealthRecord{}, err
	}
	s.changed(ctx, rec.PetID)
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, petID, id string) error {
	rec, err := s.getOwned(ctx, petID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rec.ID); err != nil {
		return err
	}
	s.changed(ctx, rec.PetID)
	return nil
}

// Get devuelve el registro solo si pertenece a petID.
func (s *Service) Get(ctx context.Context, petID, id string) (HealthRecord, error) {
	return s.getOwned(ctx, petID, id)
}

// ListByPet devuelve vacío (no error) si la mascota no tiene registros.
func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return []HealthRecord{}, nil
	}
	items, err := s.repo.ListByPet(ctx, petID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []HealthRecord{}
	}
	return items, nil
}

// CountSince cuenta registros del tipo con fecha en [since, ahora].
func (s *Service) CountSince(ctx context.Context, petID string, recordType RecordType, since time.Time) (int, error) {
	return s.CountBetween(ctx, petID, recordType, since, s.now())
}

func (s *Service) CountBetween(ctx context.Context, petID string, recordType RecordType, from, to time.Time) (int, error) {
	return s.repo.CountBetween(ctx, petID, recordType, from.UTC(), to.UTC())
}

func (s *Service) CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error) {
	return s.repo.CountByPet(ctx, petID, asOf.UTC())
}

// LatestOfType devuelve la fecha del registro más reciente de ese tipo hasta asOf, o nil.
func (s *Service) LatestOfType(ctx context.Context, petID string, recordType RecordType, asOf time.Time) (*time.Time, error) {
	to := asOf.UTC()
	items, err := s.repo.ListByPet(ctx, petID, ListFilter{Types: []RecordType{recordType}, To: &to, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	d := items[0].Date
	return &d, nil
}

func (s *Service) getOwned(ctx context.Context, petID, id string) (HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return HealthRecord{}, apperr.Invalid("record_id", nil, "required")
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return HealthRecord{}, err
	}
	if rec.PetID != strings.TrimSpace(petID) {
		return HealthRecord{}, apperr.NotFound("health record", id)
	}
	return rec, nil
}

func (s *Service) changed(ctx context.Context, petID string) {
	if s.onChange != nil {
		s.onChange(ctx, petID)
	}
}

func validateFields(t RecordType, date time.Time, followUp *time.Time, cost *float64, now time.Time) error {
	if !t.Valid() {
		return apperr.Invalid("type", t, "must be one of checkup, illness, injury, surgery, medication, other")
	}
	if date.IsZero() {
		return apperr.Invalid("date", nil, "required")
	}
	if date.After(now) {
		return apperr.Invalid("date", date.Format(time.RFC3339), "must not be in the future")
	}
	if followUp != nil && followUp.Before(date) {
		return apperr.Invalid("follow_up_date", followUp.Format(time.RFC3339), "must not be before date")
	}
	if cost != nil && *cost < 0 {
		return apperr.Invalid("cost", *cost, "must be >= 0")
	}
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func cleanAttachments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
