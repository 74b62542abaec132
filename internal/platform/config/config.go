package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/domain/healthstats"
	"pet-health/internal/domain/reminders"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Odin     OdinConfig     `yaml:"odin"`
	Policy   PolicyConfig   `yaml:"policy"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Port string `yaml:"port"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig: DSN vacío = repos in-memory (solo dev/tests).
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig: URL vacía = sin cache de stats.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	StatsTTL time.Duration `yaml:"stats_ttl"`
}

type OdinConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// PolicyConfig junta todas las constantes de negocio ajustables.
type PolicyConfig struct {
	DueSoonDays         int                 `yaml:"due_soon_days"`
	RecentCheckupDays   int                 `yaml:"recent_checkup_days"`
	StaleCheckupDays    int                 `yaml:"stale_checkup_days"`
	OverduePenalty      int                 `yaml:"overdue_penalty"`
	UpcomingHorizonDays int                 `yaml:"upcoming_horizon_days"`
	VaccinationLeadDays int                 `yaml:"vaccination_lead_days"`
	Weights             healthstats.Weights `yaml:"weights"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Name:            "pet-health",
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Redis: RedisConfig{StatsTTL: 5 * time.Minute},
		Policy: PolicyConfig{
			DueSoonDays:         30,
			RecentCheckupDays:   365,
			StaleCheckupDays:    730,
			OverduePenalty:      10,
			UpcomingHorizonDays: 30,
			VaccinationLeadDays: 14,
			Weights:             healthstats.Weights{Recency: 30, Vaccination: 40, Reminders: 30},
		},
	}
}

// Load aplica en orden: defaults, archivo YAML de CONFIG_FILE (opcional), env vars.
func Load() (Config, error) {
	return load(os.Getenv("CONFIG_FILE"), os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("APP_NAME", &cfg.App.Name)
	str("PORT", &cfg.App.Port)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("DB_DSN", &cfg.Database.DSN)
	str("REDIS_URL", &cfg.Redis.URL)
	str("ODIN_BASE_URL", &cfg.Odin.BaseURL)
	str("ODIN_API_KEY", &cfg.Odin.APIKey)

	if v := strings.TrimSpace(getenv("STATS_CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STATS_CACHE_TTL: %w", err)
		}
		cfg.Redis.StatsTTL = d
	}
	if v := strings.TrimSpace(getenv("POLICY_DUE_SOON_DAYS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLICY_DUE_SOON_DAYS: %w", err)
		}
		cfg.Policy.DueSoonDays = n
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.App.Port) == "" {
		errs = append(errs, errors.New("app.port is required"))
	}
	if c.Redis.URL != "" && c.Redis.StatsTTL <= 0 {
		errs = append(errs, errors.New("redis.stats_ttl must be positive"))
	}
	if c.Policy.DueSoonDays <= 0 {
		errs = append(errs, errors.New("policy.due_soon_days must be positive"))
	}
	if c.Policy.VaccinationLeadDays < 0 {
		errs = append(errs, errors.New("policy.vaccination_lead_days must be >= 0"))
	}
	if err := c.Policy.Stats().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("policy: %w", err))
	}
	return errors.Join(errs...)
}

func (p PolicyConfig) DueDate() duedate.Policy {
	return duedate.Policy{DueSoonWindow: time.Duration(p.DueSoonDays) * duedate.Day}
}

func (p PolicyConfig) Reminders() reminders.Policy {
	return reminders.Policy{
		DueDate:             p.DueDate(),
		DefaultHorizonDays:  p.UpcomingHorizonDays,
		VaccinationLeadDays: p.VaccinationLeadDays,
	}
}

func (p PolicyConfig) Stats() healthstats.Policy {
	return healthstats.Policy{
		Weights:             p.Weights,
		RecentCheckupAge:    time.Duration(p.RecentCheckupDays) * duedate.Day,
		StaleCheckupAge:     time.Duration(p.StaleCheckupDays) * duedate.Day,
		OverduePenalty:      p.OverduePenalty,
		UpcomingHorizonDays: p.UpcomingHorizonDays,
	}
}
