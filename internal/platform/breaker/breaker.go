package breaker

import (
	"time"

	"pet-health/internal/platform/logger"

	"github.com/sony/gobreaker"
)

type Config struct {
	Name        string
	MaxRequests uint32        // requests permitidos en half-open
	Interval    time.Duration // ventana para resetear contadores en closed
	Timeout     time.Duration // tiempo en open antes de pasar a half-open

	// Se abre si en la ventana hubo al menos MinRequests y el ratio de fallas >= FailureRatio.
	MinRequests  uint32
	FailureRatio float64
}

func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  3,
		Interval:     30 * time.Second,
		Timeout:      15 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// New arma un breaker. isSuccessful decide qué errores no cuentan como falla
// (p.ej. un 401 de upstream o un cache miss); nil = todo error es falla.
func New(cfg Config, log logger.Logger, isSuccessful func(error) bool) *gobreaker.CircuitBreaker {
	if log == nil {
		log = logger.Nop()
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", map[string]any{
				"breaker": name, "from": from.String(), "to": to.String(),
			})
		},
	}
	if isSuccessful != nil {
		st.IsSuccessful = isSuccessful
	}
	return gobreaker.NewCircuitBreaker(st)
}

// Rejected indica que el breaker cortó el request sin llegar al backend.
func Rejected(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}
