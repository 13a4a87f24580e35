package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// Options describes logger construction parameters.
type Options struct {
	Level   string
	Format  string // auto, json or text; auto picks text on a terminal
	LogFile string // always JSON; empty disables the file sink
	Service string
	RunID   string

	// Console defaults to os.Stderr.
	Console io.Writer
}

// New builds the process logger: a console handler teed with a JSON
// file handler. The returned closer closes the log file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: level}
	var consoleHandler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "auto":
		if isTerminal(console) {
			consoleHandler = slog.NewTextHandler(console, hopts)
		} else {
			consoleHandler = slog.NewJSONHandler(console, hopts)
		}
	case "text":
		consoleHandler = slog.NewTextHandler(console, hopts)
	case "json":
		consoleHandler = slog.NewJSONHandler(console, hopts)
	default:
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	var closer io.Closer = nopCloser{}
	handler := consoleHandler
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handler = teeHandler{console: consoleHandler, file: slog.NewJSONHandler(f, hopts)}
		closer = f
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.RunID != "" {
		logger = logger.With("run_id", opts.RunID)
	}
	return logger, closer, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
