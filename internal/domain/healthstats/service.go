package healthstats

import (
	"context"
	"math"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/domain/reminders"
	"pet-health/internal/domain/vaccinations"
	"pet-health/internal/platform/apperr"
	"pet-health/internal/platform/logger"
	"pet-health/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("pet-health/healthstats")

// Interfaces mínimas sobre los tres stores; los *Service de cada paquete las cumplen.
type RecordSource interface {
	CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error)
	CountBetween(ctx context.Context, petID string, recordType healthrecords.RecordType, from, to time.Time) (int, error)
	LatestOfType(ctx context.Context, petID string, recordType healthrecords.RecordType, asOf time.Time) (*time.Time, error)
}

type VaccinationSource interface {
	Compliance(ctx context.Context, petID string, now time.Time) ([]vaccinations.VaccineStatus, error)
}

type ReminderSource interface {
	Upcoming(ctx context.Context, petID string, now time.Time, horizonDays int) ([]reminders.Reminder, error)
	CountOverdue(ctx context.Context, petID string, now time.Time) (int, error)
}

// Cache guarda el último Stats calculado "a ahora" por mascota, marcado con la
// generación de la mascota al momento de leerla. Invalidate sube la generación:
// una entrada escrita con una generación anterior ya no vuelve a servirse.
type Cache interface {
	// Get devuelve la generación actual y, si la entrada es de esa generación, las stats.
	Get(ctx context.Context, petID string) (st Stats, gen int64, ok bool, err error)
	Set(ctx context.Context, petID string, gen int64, st Stats) error
	Invalidate(ctx context.Context, petID string) error
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

type Service struct {
	records      RecordSource
	vaccinations VaccinationSource
	reminders    ReminderSource

	policy Policy
	cache  Cache
	log    logger.Logger
	now    func() time.Time
}

func NewService(records RecordSource, vacc VaccinationSource, rem ReminderSource, opts ...Option) *Service {
	s := &Service{
		records:      records,
		vaccinations: vacc,
		reminders:    rem,
		policy:       DefaultPolicy(),
		log:          logger.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Current calcula las stats a "ahora", pasando por el cache si hay uno.
// Un cache caído no rompe el request: se loguea y se calcula directo.
// Lo calculado se guarda con la generación leída antes de Compute; si en el
// medio hubo un Invalidate, esa entrada queda vieja y el próximo Get no la usa.
func (s *Service) Current(ctx context.Context, petID string) (Stats, error) {
	petID = strings.TrimSpace(petID)
	if s.cache == nil {
		return s.Compute(ctx, petID, s.now())
	}

	st, gen, ok, cacheErr := s.cache.Get(ctx, petID)
	switch {
	case cacheErr != nil:
		metrics.IncStatsCache("error")
		s.log.Warn("stats cache get failed", map[string]any{"pet_id": petID, "err": cacheErr})
	case ok:
		metrics.IncStatsCache("hit")
		return st, nil
	default:
		metrics.IncStatsCache("miss")
	}

	st, err := s.Compute(ctx, petID, s.now())
	if err != nil {
		return Stats{}, err
	}
	// Sin generación conocida no se escribe.
	if cacheErr != nil {
		return st, nil
	}
	if err := s.cache.Set(ctx, petID, gen, st); err != nil {
		s.log.Warn("stats cache set failed", map[string]any{"pet_id": petID, "err": err})
	}
	return st, nil
}

// Compute deriva las stats y el health score de la mascota en el instante now.
func (s *Service) Compute(ctx context.Context, petID string, now time.Time) (st Stats, err error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Stats{}, apperr.Invalid("pet_id", nil, "required")
	}
	now = now.UTC()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "healthstats.Compute",
		trace.WithAttributes(attribute.String("pet.id", petID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("health.score", st.HealthScore))
		}
		span.End()
	}()

	var (
		total, recent, overdue int
		lastCheckup            *time.Time
		statuses               []vaccinations.VaccineStatus
		upcoming               []reminders.Reminder
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.records.CountByPet(gctx, petID, now)
		total = n
		return err
	})
	g.Go(func() error {
		n, err := s.records.CountBetween(gctx, petID, healthrecords.RecordTypeCheckup, now.Add(-s.policy.RecentCheckupAge), now)
		recent = n
		return err
	})
	g.Go(func() error {
		d, err := s.records.LatestOfType(gctx, petID, healthrecords.RecordTypeCheckup, now)
		lastCheckup = d
		return err
	})
	g.Go(func() error {
		v, err := s.vaccinations.Compliance(gctx, petID, now)
		statuses = v
		return err
	})
	g.Go(func() error {
		items, err := s.reminders.Upcoming(gctx, petID, now, s.policy.UpcomingHorizonDays)
		upcoming = items
		return err
	})
	g.Go(func() error {
		n, err := s.reminders.CountOverdue(gctx, petID, now)
		overdue = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	ratio := vaccinations.Ratio(statuses)
	comp := Components{
		Recency:     s.recencyScore(lastCheckup, now),
		Vaccination: s.vaccinationScore(ratio),
		Reminders:   s.reminderScore(overdue),
	}

	st = Stats{
		PetID:                 petID,
		TotalRecords:          total,
		RecentCheckups:        recent,
		VaccinationsUpToDate:  upToDate(statuses),
		UpcomingReminders:     len(upcoming),
		OverdueReminders:      overdue,
		VaccinationCompliance: ratio,
		HealthScore:           clamp(comp.Recency+comp.Vaccination+comp.Reminders, 0, 100),
		Components:            comp,
		LastCheckup:           lastCheckup,
		ComputedAt:            now,
	}

	metrics.ObserveStatsCompute(time.Since(start))
	metrics.ObserveHealthScore(st.HealthScore)
	return st, nil
}

// Invalidate descarta el cache de la mascota y sube su generación. Se engancha
// como ChangeListener de los tres stores.
func (s *Service) Invalidate(ctx context.Context, petID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, strings.TrimSpace(petID)); err != nil {
		s.log.Warn("stats cache invalidate failed", map[string]any{"pet_id": petID, "err": err})
	}
}

func (s *Service) Now() time.Time { return s.now().UTC() }

// recencyScore: peso completo hasta RecentCheckupAge, cero desde StaleCheckupAge,
// interpolación lineal entre ambos. Sin checkup: cero.
func (s *Service) recencyScore(last *time.Time, now time.Time) int {
	w := s.policy.Weights.Recency
	if last == nil {
		return 0
	}
	age := now.Sub(*last)
	recentAge, staleAge := s.policy.RecentCheckupAge, s.policy.StaleCheckupAge
	switch {
	case age <= recentAge:
		return w
	case age >= staleAge:
		return 0
	}
	frac := float64(staleAge-age) / float64(staleAge-recentAge)
	return int(math.Round(float64(w) * frac))
}

func (s *Service) vaccinationScore(ratio float64) int {
	return int(math.Round(float64(s.policy.Weights.Vaccination) * ratio))
}

func (s *Service) reminderScore(overdue int) int {
	w := s.policy.Weights.Reminders
	return w - min(w, s.policy.OverduePenalty*overdue)
}

func upToDate(statuses []vaccinations.VaccineStatus) int {
	n := 0
	for _, st := range statuses {
		if st.Status != duedate.StatusOverdue {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
