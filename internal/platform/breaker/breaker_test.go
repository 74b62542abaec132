package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")
var errIgnored = errors.New("ignored")

func TestBreaker_OpensAfterFailureRatio(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.Timeout = time.Hour
	cb := New(cfg, nil, nil)

	for i := 0; i < int(cfg.MinRequests); i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errBoom })
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return "never", nil })
	assert.True(t, Rejected(err))
}

func TestBreaker_IsSuccessfulKeepsClosed(t *testing.T) {
	cb := New(DefaultConfig("test"), nil, func(err error) bool {
		return err == nil || errors.Is(err, errIgnored)
	})

	for i := 0; i < 20; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errIgnored })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, Rejected(errIgnored))
}
