package logging

import (
	"context"
	"log/slog"

	"multitrack/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSession is the standardized key for the session under validation.
	FieldSession = "session"
	// FieldStage is the standardized key for validation stage names.
	FieldStage = "stage"
	// FieldEntity is the standardized key for report entities (file or folder basenames).
	FieldEntity = "entity"
	// FieldCorrelationID is the standardized key for run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if name, ok := services.SessionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSession, name))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if entity, ok := services.EntityFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEntity, entity))
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
	return logger.With(args(fields)...)
}
