package logging

import (
	"context"
	"log/slog"
)

// teeHandler writes each record to the console handler and to the agent.log
// handler. Both share one level, so Enabled asks the console only.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (h teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level)
}

func (h teeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.console.Handle(ctx, record.Clone())
	if fileErr := h.file.Handle(ctx, record); err == nil {
		err = fileErr
	}
	return err
}

func (h teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{console: h.console.WithAttrs(attrs), file: h.file.WithAttrs(attrs)}
}

func (h teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{console: h.console.WithGroup(name), file: h.file.WithGroup(name)}
}
