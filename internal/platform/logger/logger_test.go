package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel(" DEBUG "))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("logfmt"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.With(map[string]any{"pet_id": "p-1", "": "ignored"}).
		Info("reminder completed", map[string]any{"reminder_id": "r-1", "err": errors.New("boom")})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "reminder completed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "p-1", ctx["pet_id"])
	assert.Equal(t, "r-1", ctx["reminder_id"])
	assert.Equal(t, "boom", ctx["err"])
	_, hasEmpty := ctx[""]
	assert.False(t, hasEmpty)
}

func TestZapLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewFromZap(zap.New(core))

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}
