package logging

import (
	"context"
	"log/slog"

	"shortscout/internal/services"
)

const (
	// FieldComponent names the subsystem that emitted the record.
	FieldComponent = "component"
	// FieldRunID carries the pipeline run id minted at checkpoint start.
	FieldRunID = "run_id"
	// FieldStage carries the checkpoint stage the record was emitted from.
	FieldStage = "stage"
	// FieldCorrelationID carries the HTTP X-Request-ID.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a record so operators can filter stage lifecycle events.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what a warning means for the current run.
	FieldImpact = "impact"

	FieldVideoID = "video_id"
	FieldQuery   = "query"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// WithStage stamps the stage name onto ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return services.WithStage(ctx, stage)
}
