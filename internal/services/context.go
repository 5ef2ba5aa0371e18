package services

import "context"

type contextKey string

const (
	sessionKey   contextKey = "session"
	stageKey     contextKey = "stage"
	entityKey    contextKey = "entity"
	requestIDKey contextKey = "request_id"
)

// WithSession annotates context with the session name under validation.
func WithSession(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, name)
}

// SessionFromContext returns the session name if present.
func SessionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the validation stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithEntity annotates context with the report entity (file or folder basename).
func WithEntity(ctx context.Context, entity string) context.Context {
	if entity == "" {
		return ctx
	}
	return context.WithValue(ctx, entityKey, entity)
}

// EntityFromContext returns the report entity if present.
func EntityFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(entityKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
