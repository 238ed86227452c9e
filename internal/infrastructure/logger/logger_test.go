// internal/infrastructure/logger/logger_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &ZapLogger{zl: zap.New(core)}, logs
}

func TestLogLevels(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Debug("debug message", nil)
	log.Info("info message", map[string]interface{}{"currency": "EUR"})
	log.Warn("warn message", nil)
	log.Error("error message", nil)

	require.Equal(t, 3, logs.Len(), "debug must be filtered at info level")

	entries := logs.All()
	assert.Equal(t, "info message", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "EUR", entries[0].ContextMap()["currency"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestWithField(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	scoped := log.WithField("request_id", "r-1")
	scoped.Info("scoped", nil)
	log.Info("unscoped", nil)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "r-1", logs.All()[0].ContextMap()["request_id"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "request_id")
}

func TestWithFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	scoped := log.WithFields(map[string]interface{}{
		"source":      "USD",
		"destination": "EUR",
	})
	scoped.Info("scoped", map[string]interface{}{"amount": "100"})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "USD", fields["source"])
	assert.Equal(t, "EUR", fields["destination"])
	assert.Equal(t, "100", fields["amount"])

	// Empty field maps return the same logger.
	assert.Equal(t, log, log.WithFields(nil))
}

func TestNewFallsBackToInfo(t *testing.T) {
	assert.NotNil(t, New("not-a-level"))
	assert.NotNil(t, New("debug"))
}
