package healthstats

import (
	"fmt"
	"time"

	"pet-health/internal/domain/duedate"
)

// Weights reparte los 100 puntos del score entre sus tres componentes.
type Weights struct {
	Recency     int `yaml:"recency"`
	Vaccination int `yaml:"vaccination"`
	Reminders   int `yaml:"reminders"`
}

func (w Weights) Sum() int { return w.Recency + w.Vaccination + w.Reminders }

type Policy struct {
	Weights Weights

	// Checkup dentro de RecentCheckupAge: puntaje completo. Desde StaleCheckupAge: cero.
	RecentCheckupAge time.Duration
	StaleCheckupAge  time.Duration

	// OverduePenalty: puntos que resta cada recordatorio pendiente vencido.
	OverduePenalty int

	UpcomingHorizonDays int
}

func DefaultPolicy() Policy {
	return Policy{
		Weights:             Weights{Recency: 30, Vaccination: 40, Reminders: 30},
		RecentCheckupAge:    365 * duedate.Day,
		StaleCheckupAge:     730 * duedate.Day,
		OverduePenalty:      10,
		UpcomingHorizonDays: 30,
	}
}

func (p Policy) Validate() error {
	if p.Weights.Recency < 0 || p.Weights.Vaccination < 0 || p.Weights.Reminders < 0 {
		return fmt.Errorf("score weights must be non-negative: %+v", p.Weights)
	}
	if p.Weights.Sum() != 100 {
		return fmt.Errorf("score weights must sum to 100, got %d", p.Weights.Sum())
	}
	if p.RecentCheckupAge <= 0 {
		return fmt.Errorf("recent checkup age must be positive")
	}
	if p.StaleCheckupAge <= p.RecentCheckupAge {
		return fmt.Errorf("stale checkup age (%s) must be greater than recent checkup age (%s)", p.StaleCheckupAge, p.RecentCheckupAge)
	}
	if p.OverduePenalty < 0 {
		return fmt.Errorf("overdue penalty must be non-negative")
	}
	if p.UpcomingHorizonDays < 0 {
		return fmt.Errorf("upcoming horizon must be non-negative")
	}
	return nil
}
