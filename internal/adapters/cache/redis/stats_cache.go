package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-health/internal/domain/healthstats"
	"pet-health/internal/platform/breaker"
	"pet-health/internal/platform/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	keyPrefix  = "pethealth:stats:"
	genPrefix  = "pethealth:stats:gen:"
	DefaultTTL = 5 * time.Minute
)

// Open parsea una URL redis:// y verifica la conexión.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// StatsCache implementa healthstats.Cache sobre Redis. Cada mascota tiene un
// contador de generación sin TTL y una entrada JSON con TTL que guarda la
// generación con la que se escribió; Get sólo la devuelve si coinciden.
type StatsCache struct {
	client  goredis.Cmdable
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

var _ healthstats.Cache = (*StatsCache)(nil)

type entry struct {
	Generation int64             `json:"generation"`
	Stats      healthstats.Stats `json:"stats"`
}

func NewStatsCache(client goredis.Cmdable, ttl time.Duration, log logger.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	// Un miss (redis.Nil) no es falla del backend.
	cb := breaker.New(breaker.DefaultConfig("redis-stats"), log, func(err error) bool {
		return err == nil || errors.Is(err, goredis.Nil)
	})
	return &StatsCache{client: client, ttl: ttl, breaker: cb, log: log}
}

func key(petID string) string    { return keyPrefix + petID }
func genKey(petID string) string { return genPrefix + petID }

func (c *StatsCache) Get(ctx context.Context, petID string) (healthstats.Stats, int64, bool, error) {
	var genCmd *goredis.StringCmd
	var valCmd *goredis.StringCmd
	_, err := c.exec("get", petID, func() (interface{}, error) {
		pipe := c.client.Pipeline()
		genCmd = pipe.Get(ctx, genKey(petID))
		valCmd = pipe.Get(ctx, key(petID))
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return healthstats.Stats{}, 0, false, err
	}

	gen, err := genCmd.Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return healthstats.Stats{}, 0, false, fmt.Errorf("decode stats generation: %w", err)
	}

	raw, err := valCmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return healthstats.Stats{}, gen, false, nil
	}
	if err != nil {
		return healthstats.Stats{}, 0, false, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return healthstats.Stats{}, 0, false, fmt.Errorf("decode cached stats: %w", err)
	}
	if e.Generation != gen {
		return healthstats.Stats{}, gen, false, nil
	}
	return e.Stats, gen, true, nil
}

func (c *StatsCache) Set(ctx context.Context, petID string, gen int64, st healthstats.Stats) error {
	b, err := json.Marshal(entry{Generation: gen, Stats: st})
	if err != nil {
		return err
	}
	_, err = c.exec("set", petID, func() (interface{}, error) {
		return nil, c.client.Set(ctx, key(petID), b, c.ttl).Err()
	})
	return err
}

// Invalidate sube la generación y borra la entrada en una sola transacción.
func (c *StatsCache) Invalidate(ctx context.Context, petID string) error {
	_, err := c.exec("invalidate", petID, func() (interface{}, error) {
		_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Incr(ctx, genKey(petID))
			pipe.Del(ctx, key(petID))
			return nil
		})
		return nil, err
	})
	return err
}

func (c *StatsCache) exec(op, petID string, fn func() (interface{}, error)) (interface{}, error) {
	res, err := c.breaker.Execute(fn)
	if breaker.Rejected(err) {
		c.log.Warn("stats cache circuit open", map[string]any{"op": op, "pet_id": petID, "err": err})
	}
	return res, err
}
