package logging

import (
	"context"
	"log/slog"
)

// teeHandler sends each record to every child handler that accepts its level.
// The console and the daily log file use separate thresholds, so the level
// check happens per child.
type teeHandler struct {
	children []slog.Handler
}

func newTeeHandler(children ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(children))
	for _, child := range children {
		if child != nil {
			kept = append(kept, child)
		}
	}
	switch len(kept) {
	case 0:
		return discardHandler{}
	case 1:
		return kept[0]
	}
	return &teeHandler{children: kept}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(h.children) - 1
	for idx, child := range h.children {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < last {
			rec = record.Clone()
		}
		if err := child.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{children: mapChildren(h.children, func(c slog.Handler) slog.Handler { return c.WithAttrs(attrs) })}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{children: mapChildren(h.children, func(c slog.Handler) slog.Handler { return c.WithGroup(name) })}
}

func mapChildren(children []slog.Handler, fn func(slog.Handler) slog.Handler) []slog.Handler {
	out := make([]slog.Handler, len(children))
	for i, child := range children {
		out[i] = fn(child)
	}
	return out
}
