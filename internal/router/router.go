package router

import (
	"context"
	"database/sql"
	"net/http"

	_ "pet-health/docs"
	rediscache "pet-health/internal/adapters/cache/redis"
	mem "pet-health/internal/adapters/storage/memory"
	pg "pet-health/internal/adapters/storage/postgres"
	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/domain/healthstats"
	"pet-health/internal/domain/pets"
	"pet-health/internal/domain/reminders"
	"pet-health/internal/domain/vaccinations"
	"pet-health/internal/middleware"
	"pet-health/internal/platform/config"
	"pet-health/internal/platform/logger"
	"pet-health/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: cache de stats. nil = siempre se calcula.
	Redis *goredis.Client

	Logger logger.Logger
	Config *config.Config // nil = config.Default()
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		petRepo      pets.Repository
		recordRepo   healthrecords.Repository
		vaccineRepo  vaccinations.Repository
		reminderRepo reminders.Repository
	)
	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		recordRepo = pg.NewHealthRecordsRepo(opts.DB)
		vaccineRepo = pg.NewVaccinationsRepo(opts.DB)
		reminderRepo = pg.NewRemindersRepo(opts.DB)
	} else {
		log.Warn("no database configured, using in-memory repositories", nil)
		petRepo = mem.NewPetRepo()
		recordRepo = mem.NewHealthRecordRepo()
		vaccineRepo = mem.NewVaccinationRepo()
		reminderRepo = mem.NewReminderRepo()
	}

	// Stats depende de los tres stores y los stores invalidan su cache:
	// el listener se resuelve recién cuando statsSvc existe.
	var statsSvc *healthstats.Service
	invalidate := func(ctx context.Context, petID string) {
		if statsSvc != nil {
			statsSvc.Invalidate(ctx, petID)
		}
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	recordsSvc := healthrecords.NewService(recordRepo,
		healthrecords.WithChangeListener(invalidate),
		healthrecords.WithLogger(log),
	)
	remindersSvc := reminders.NewService(reminderRepo,
		reminders.WithPolicy(cfg.Policy.Reminders()),
		reminders.WithChangeListener(invalidate),
		reminders.WithLogger(log),
	)
	vaccinationsSvc := vaccinations.NewService(vaccineRepo,
		vaccinations.WithPolicy(cfg.Policy.DueDate()),
		vaccinations.WithReminderScheduler(remindersSvc),
		vaccinations.WithChangeListener(invalidate),
		vaccinations.WithLogger(log),
	)

	statsOpts := []healthstats.Option{
		healthstats.WithPolicy(cfg.Policy.Stats()),
		healthstats.WithLogger(log),
	}
	if opts.Redis != nil {
		statsOpts = append(statsOpts, healthstats.WithCache(rediscache.NewStatsCache(opts.Redis, cfg.Redis.StatsTTL, log)))
	}
	statsSvc = healthstats.NewService(recordsSvc, vaccinationsSvc, remindersSvc, statsOpts...)

	// Rutas por módulo
	r.Route("/pets", func(pr chi.Router) {
		pets.RegisterRoutes(pr, petsSvc)

		pr.Route("/{petID}/health", func(hr chi.Router) {
			hr.Use(middleware.RequirePetOwner(petsSvc))

			healthrecords.RegisterRoutes(hr, recordsSvc)
			vaccinations.RegisterRoutes(hr, vaccinationsSvc)
			reminders.RegisterRoutes(hr, remindersSvc)
			healthstats.RegisterRoutes(hr, statsSvc)
		})
	})

	return r
}
