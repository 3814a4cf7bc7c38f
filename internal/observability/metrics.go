package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for the onboarding service.
// A nil *Metrics records nothing.
type Metrics struct {
	Submissions    metric.Int64Counter
	BackendCalls   metric.Int64Counter
	BackendLatency metric.Float64Histogram
	DealLoads      metric.Int64Counter
	ActivityCalls  metric.Int64Counter
}

// NewMetrics creates the metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("comuneros")

	submissions, err := meter.Int64Counter("comuneros.submission.count",
		metric.WithDescription("Wizard submissions by matched rule and outcome"),
	)
	if err != nil {
		return nil, err
	}

	backendCalls, err := meter.Int64Counter("comuneros.backend.calls",
		metric.WithDescription("Backend REST calls by endpoint and status"),
	)
	if err != nil {
		return nil, err
	}

	backendLatency, err := meter.Float64Histogram("comuneros.backend.latency_seconds",
		metric.WithDescription("Backend REST call latency"),
	)
	if err != nil {
		return nil, err
	}

	dealLoads, err := meter.Int64Counter("comuneros.deal.loads",
		metric.WithDescription("Deal preload attempts that reached the backend"),
	)
	if err != nil {
		return nil, err
	}

	activityCalls, err := meter.Int64Counter("comuneros.activity.calls",
		metric.WithDescription("Number of activity invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Submissions:    submissions,
		BackendCalls:   backendCalls,
		BackendLatency: backendLatency,
		DealLoads:      dealLoads,
		ActivityCalls:  activityCalls,
	}, nil
}

// RecordSubmission records a wizard submission.
func (m *Metrics) RecordSubmission(ctx context.Context, rule, action, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("rule", rule),
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordBackendCall records one backend call and its latency.
func (m *Metrics) RecordBackendCall(ctx context.Context, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	)
	m.BackendCalls.Add(ctx, 1, attrs)
	m.BackendLatency.Record(ctx, d.Seconds(), attrs)
}

// RecordDealLoad records a deal fetch.
func (m *Metrics) RecordDealLoad(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.DealLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordActivity records an activity invocation.
func (m *Metrics) RecordActivity(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.ActivityCalls.Add(ctx, 1,
		metric.WithAttributes(attribute.String("activity", name)),
	)
}
