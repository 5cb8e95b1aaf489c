package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "json").Info("packet received", "messages", 3)
	assert.Contains(t, buf.String(), `"msg":"packet received"`)
	assert.Contains(t, buf.String(), `"messages":3`)

	buf.Reset()
	newLogger(&buf, "info", "text").Info("packet received", "messages", 3)
	assert.Contains(t, buf.String(), "msg=\"packet received\" messages=3")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	require.NotNil(t, m)

	m.Messages.WithLabelValues("submitted").Add(2)
	m.Messages.WithLabelValues("skipped").Inc()
	assert.InDelta(t, 2, testutil.ToFloat64(m.Messages.WithLabelValues("submitted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Messages.WithLabelValues("skipped")), 0)

	// Fresh instances never share state or collide on registration.
	other := NewMetricsForTesting()
	assert.InDelta(t, 0, testutil.ToFloat64(other.Messages.WithLabelValues("submitted")), 0)
}
