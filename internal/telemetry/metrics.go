package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	FilesIngested     metric.Int64Counter
	ChunksIndexed     metric.Int64Counter
	QuestionsAsked    metric.Int64Counter
	IngestionDuration metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docchat-platform")

	filesIngested, err := meter.Int64Counter(
		"ingestion.files.total",
		metric.WithDescription("Files ingested, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingestion.chunks.total",
		metric.WithDescription("Document chunks written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	questionsAsked, err := meter.Int64Counter(
		"conversation.questions.total",
		metric.WithDescription("Questions answered by the conversation pipeline"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("File ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		FilesIngested:     filesIngested,
		ChunksIndexed:     chunksIndexed,
		QuestionsAsked:    questionsAsked,
		IngestionDuration: ingestionDuration,
	}, nil
}

// RecordIngestion records one completed ingestion attempt.
func (m *Metrics) RecordIngestion(ctx context.Context, outcome string, chunks int, seconds float64) {
	if m == nil {
		return
	}
	m.FilesIngested.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if chunks > 0 {
		m.ChunksIndexed.Add(ctx, int64(chunks))
	}
	m.IngestionDuration.Record(ctx, seconds)
}

// RecordQuestion records one answered (or failed) question.
func (m *Metrics) RecordQuestion(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.QuestionsAsked.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
