package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
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

func TestTemporalAdapterCarriesFields(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := InitLoggerTo(&buf, "debug", "worker")
	NewTemporalSlogAdapter(logger).With("workflow_id", "wf-1").Info("started", "queue", "comuneros-pagos")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "worker", rec["service"])
	assert.Equal(t, "temporal", rec["component"])
	assert.Equal(t, "wf-1", rec["workflow_id"])
	assert.Equal(t, "comuneros-pagos", rec["queue"])
}

func TestInitLoggerFiltersBelowLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitLoggerTo(&buf, "warn", "api")
	slog.Info("dropped")
	assert.Zero(t, buf.Len())
	slog.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordSubmission(ctx, "propuesta-generica", "create_proposal", "ok")
		m.RecordBackendCall(ctx, "deal", 200, time.Millisecond)
		m.RecordDealLoad(ctx, "ok")
		m.RecordActivity(ctx, "ObtenerURLFirma")
	})
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordSubmission(context.Background(), "ia-no-reconoce", "contact_advisor", "ok")
	})
}
