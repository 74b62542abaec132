package vaccinations

import (
	"context"
	"sort"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/logger"
	"pet-health/internal/platform/metrics"

	"github.com/google/uuid"
)

// ReminderScheduler crea el recordatorio derivado de una próxima dosis.
// Se define aquí para no importar el paquete reminders.
type ReminderScheduler interface {
	ScheduleFromVaccination(ctx context.Context, petID, vaccinationID, vaccineName string, due time.Time) (string, error)
}

type ChangeListener func(ctx context.Context, petID string)

type Option func(*Service)

func WithChangeListener(fn ChangeListener) Option {
	return func(s *Service) { s.onChange = fn }
}

func WithPolicy(p duedate.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithReminderScheduler(rs ReminderScheduler) Option {
	return func(s *Service) { s.reminders = rs }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

type Service struct {
	repo      Repository
	now       func() time.Time
	policy    duedate.Policy
	reminders ReminderScheduler
	log       logger.Logger
	onChange  ChangeListener
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		policy: duedate.DefaultPolicy(),
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
	VaccineName string
	DateGiven   time.Time
	NextDueDate *time.Time
	VetName     string
	BatchNumber string
	Notes       string

	// CreateReminder: si hay NextDueDate, deriva un recordatorio de vacunación.
	CreateReminder bool
}

type CreateResult struct {
	Record     VaccinationRecord
	ReminderID string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (CreateResult, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return CreateResult{}, apperr.Invalid("pet_id", nil, "required")
	}
	name := strings.TrimSpace(in.VaccineName)
	if name == "" {
		return CreateResult{}, apperr.Invalid("vaccine_name", nil, "required")
	}
	if in.DateGiven.IsZero() {
		return CreateResult{}, apperr.Invalid("date_given", nil, "required")
	}
	given := in.DateGiven.UTC()

	var next *time.Time
	if in.NextDueDate != nil {
		n := in.NextDueDate.UTC()
		if !n.After(given) {
			return CreateResult{}, apperr.Invalid("next_due_date", n.Format(time.DateOnly),
				"must be after date_given "+given.Format(time.DateOnly))
		}
		next = &n
	}

	v := VaccinationRecord{
		ID:          uuid.NewString(),
		PetID:       petID,
		VaccineName: name,
		DateGiven:   given,
		NextDueDate: next,
		VetName:     strings.TrimSpace(in.VetName),
		BatchNumber: strings.TrimSpace(in.BatchNumber),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return CreateResult{}, err
	}
	metrics.IncVaccinationCreated()

	res := CreateResult{Record: v}
	if in.CreateReminder && next != nil && s.reminders != nil {
		id, err := s.reminders.ScheduleFromVaccination(ctx, petID, v.ID, v.VaccineName, *next)
		if err != nil {
			// La vacuna ya quedó registrada; el recordatorio se puede crear a mano.
			s.log.Warn("vaccination reminder not scheduled", map[string]any{
				"pet_id": petID, "vaccination_id": v.ID, "err": err,
			})
		} else {
			res.ReminderID = id
		}
	}

	s.changed(ctx, petID)
	return res, nil
}

func (s *Service) Get(ctx context.Context, petID, id string) (VaccinationRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return VaccinationRecord{}, apperr.Invalid("vaccination_id", nil, "required")
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VaccinationRecord{}, err
	}
	if v.PetID != strings.TrimSpace(petID) {
		return VaccinationRecord{}, apperr.NotFound("vaccination", id)
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, petID, id string) error {
	v, err := s.Get(ctx, petID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, v.ID); err != nil {
		return err
	}
	s.changed(ctx, v.PetID)
	return nil
}

// ListByPet devuelve el historial completo, dosis más reciente primero.
func (s *Service) ListByPet(ctx context.Context, petID string) ([]VaccinationRecord, error) {
	items, err := s.repo.ListByPet(ctx, strings.TrimSpace(petID))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []VaccinationRecord{}
	}
	return items, nil
}

// UpcomingFor devuelve la obligación vigente de cada vacuna cuyo NextDueDate es
// posterior a now, ordenadas por NextDueDate asc y luego por nombre.
func (s *Service) UpcomingFor(ctx context.Context, petID string, now time.Time) ([]VaccinationRecord, error) {
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	n := now.UTC()
	out := make([]VaccinationRecord, 0)
	for _, v := range latestByVaccine(items) {
		if v.NextDueDate != nil && v.NextDueDate.After(n) {
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].NextDueDate, *out[j].NextDueDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].VaccineName < out[j].VaccineName
	})
	return out, nil
}

// Compliance clasifica la última dosis de cada vacuna distinta dada hasta now,
// ordenado por nombre.
func (s *Service) Compliance(ctx context.Context, petID string, now time.Time) ([]VaccineStatus, error) {
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	n := now.UTC()
	given := make([]VaccinationRecord, 0, len(items))
	for _, v := range items {
		if !v.DateGiven.After(n) {
			given = append(given, v)
		}
	}

	latest := latestByVaccine(given)
	out := make([]VaccineStatus, 0, len(latest))
	for _, v := range latest {
		out = append(out, VaccineStatus{
			VaccineName: v.VaccineName,
			Latest:      v,
			Status:      s.policy.Classify(v.NextDueDate, now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VaccineName < out[j].VaccineName })
	return out, nil
}

// ComplianceRatio es la fracción de vacunas distintas que no están overdue.
// Sin historial devuelve 1.0: no hay nada que incumplir.
func (s *Service) ComplianceRatio(ctx context.Context, petID string, now time.Time) (float64, error) {
	statuses, err := s.Compliance(ctx, petID, now)
	if err != nil {
		return 0, err
	}
	return Ratio(statuses), nil
}

// Ratio calcula la fracción de estados no vencidos.
func Ratio(statuses []VaccineStatus) float64 {
	if len(statuses) == 0 {
		return 1.0
	}
	ok := 0
	for _, st := range statuses {
		if st.Status != duedate.StatusOverdue {
			ok++
		}
	}
	return float64(ok) / float64(len(statuses))
}

func (s *Service) changed(ctx context.Context, petID string) {
	if s.onChange != nil {
		s.onChange(ctx, petID)
	}
}

// latestByVaccine agrupa por nombre (sin distinguir mayúsculas) y se queda con la
// dosis de DateGiven más reciente; empate por CreatedAt.
func latestByVaccine(items []VaccinationRecord) []VaccinationRecord {
	byName := make(map[string]VaccinationRecord, len(items))
	order := make([]string, 0, len(items))

	for _, v := range items {
		key := vaccineKey(v.VaccineName)
		cur, ok := byName[key]
		if !ok {
			byName[key] = v
			order = append(order, key)
			continue
		}
		if v.DateGiven.After(cur.DateGiven) ||
			(v.DateGiven.Equal(cur.DateGiven) && v.CreatedAt.After(cur.CreatedAt)) {
			byName[key] = v
		}
	}

	out := make([]VaccinationRecord, 0, len(order))
	for _, k := range order {
		out = append(out, byName[k])
	}
	return out
}

func vaccineKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
