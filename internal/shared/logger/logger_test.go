package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageLevelWrappers(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { Logger = prev })

	Debug("debug line", "k", "v")
	Info("info line")
	Warn("warn line")
	Error("error line", "error", assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "debug line")
	assert.Contains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestInterfaceKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithSlog(slog.New(slog.NewTextHandler(&buf, nil)))

	log.Infow("request handled", "status", 200)
	log.Errorw("request failed", "error", assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "request handled")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "request failed")
}
