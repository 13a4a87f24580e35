package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// Chain tries its backends in order and returns the first non-empty text.
type Chain struct {
	backends []Backend
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger, backends ...Backend) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{backends: backends, logger: logger}
}

// Backends returns the backend names in the order they are tried.
func (c *Chain) Backends() []string {
	out := make([]string, 0, len(c.backends))
	for _, b := range c.backends {
		out = append(out, b.Name())
	}
	return out
}

// Extract runs the fallback chain. A backend error is recorded and treated as
// "no text"; only exhausting every backend is an error.
func (c *Chain) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, c.logger)
	var res Result
	var errs []error

	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, common.ExtractionError("extraction cancelled", err)
		}
		if !b.Available() {
			logger.Debug("extract.backend.unavailable", "backend", b.Name(), "path", path)
			res.Attempts = append(res.Attempts, Attempt{Backend: b.Name(), Method: b.Method(), Skipped: true})
			continue
		}

		t0 := time.Now()
		text, err := runBackend(ctx, b, path)
		text = NormalizeText(text)
		att := Attempt{
			Backend:  b.Name(),
			Method:   b.Method(),
			Chars:    len(text),
			Err:      err,
			Duration: time.Since(t0),
		}
		res.Attempts = append(res.Attempts, att)

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			logger.Warn("extract.backend.failed",
				"backend", b.Name(), "path", path, "error", err,
				"elapsed_ms", att.Duration.Milliseconds(),
			)
			continue
		}
		if text == "" {
			logger.Info("extract.backend.empty", "backend", b.Name(), "path", path,
				"elapsed_ms", att.Duration.Milliseconds())
			continue
		}

		res.Text = text
		res.Method = b.Method()
		res.Backend = b.Name()
		res.Duration = time.Since(start)
		logger.Info("extract.ok",
			"path", path,
			"backend", res.Backend,
			"method", res.Method,
			"chars", len(res.Text),
			"attempts", len(res.Attempts),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
		return res, nil
	}

	res.Duration = time.Since(start)
	logger.Warn("extract.failed", "path", path, "attempts", len(res.Attempts),
		"backends", strings.Join(c.Backends(), ","))
	return res, common.ExtractionError(
		fmt.Sprintf("no text could be extracted from %s", filepath.Base(path)),
		errors.Join(errs...),
	)
}

// runBackend converts a backend panic into an error so one misbehaving parser
// cannot take down the chain.
func runBackend(ctx context.Context, b Backend, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic in %s backend: %v", b.Name(), r)
		}
	}()
	return b.ExtractText(ctx, path)
}
