package logging

import (
	"context"
	"log/slog"
	"strings"
)

// runIDHandler stamps every record with the run identifier so that lines from
// one optimization run can be grepped out of a shared daily log file.
type runIDHandler struct {
	next  slog.Handler
	runID string
}

func (h *runIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *runIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldRunID, h.runID))
	return h.next.Handle(ctx, record)
}

func (h *runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runIDHandler{next: h.next.WithAttrs(attrs), runID: h.runID}
}

func (h *runIDHandler) WithGroup(name string) slog.Handler {
	return &runIDHandler{next: h.next.WithGroup(name), runID: h.runID}
}

// ForRun returns a logger whose records all carry run_id. A blank runID
// returns the logger unchanged.
func ForRun(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return logger
	}
	return slog.New(&runIDHandler{next: logger.Handler(), runID: runID})
}
