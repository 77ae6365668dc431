// ABOUTME: OpenTelemetry instruments for requests and answered questions
// ABOUTME: Instruments report to the global meter provider, a no-op by default
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the agent's instruments
type Metrics struct {
	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	QuestionCounter  metric.Int64Counter
	QuestionDuration metric.Float64Histogram
}

// InitMetrics creates the instruments on the global meter
func InitMetrics(serviceName string) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	questionCounter, err := meter.Int64Counter(
		"jarvis.questions.total",
		metric.WithDescription("Questions answered, by reasoning path"),
	)
	if err != nil {
		return nil, err
	}

	questionDuration, err := meter.Float64Histogram(
		"jarvis.question.duration",
		metric.WithDescription("Time to answer a question in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		QuestionCounter:  questionCounter,
		QuestionDuration: questionDuration,
	}, nil
}

// RecordRequest records one HTTP request
func (m *Metrics) RecordRequest(ctx context.Context, method, path string, status int, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.Int("http.status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}

// RecordQuestion records one answered or failed question
func (m *Metrics) RecordQuestion(ctx context.Context, path, outcome string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("jarvis.path", path),
		attribute.String("jarvis.outcome", outcome),
	)
	m.QuestionCounter.Add(ctx, 1, attrs)
	m.QuestionDuration.Record(ctx, duration, attrs)
}
