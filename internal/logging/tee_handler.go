package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to the primary stream and to the log file
// mirror. Each side filters by its own level.
type teeHandler struct {
	primary slog.Handler
	mirror  slog.Handler
}

func newTeeHandler(primary, mirror slog.Handler) slog.Handler {
	if mirror == nil {
		return primary
	}
	return &teeHandler{primary: primary, mirror: mirror}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.mirror.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errPrimary, errMirror error
	if h.primary.Enabled(ctx, record.Level) {
		errPrimary = h.primary.Handle(ctx, record.Clone())
	}
	if h.mirror.Enabled(ctx, record.Level) {
		errMirror = h.mirror.Handle(ctx, record)
	}
	return errors.Join(errPrimary, errMirror)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{primary: h.primary.WithAttrs(attrs), mirror: h.mirror.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{primary: h.primary.WithGroup(name), mirror: h.mirror.WithGroup(name)}
}
