package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromCore(core).With("run_id", "run-1")

	log.Info("batch trigger", "batch_secret", "hunter2", "trigger", "daily")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["batch_secret"])
	assert.Equal(t, "daily", fields["trigger"])
	assert.Equal(t, "run-1", fields["run_id"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() {
		log.Info("ignored", "k", "v")
		log.With("k", "v").Error("ignored")
		log.Sync()
	})
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)

	log, err := New("production")
	require.NoError(t, err)
	assert.NotNil(t, log.SugaredLogger)
}
