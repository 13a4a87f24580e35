package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/extract"
)

// runextract runs only the text extraction chain on one file, for checking
// which backend handles a document and what it produced.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runextract <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig(common.ResolveConfigPath(""))
	if err != nil {
		logger.Warn("config not loaded, using defaults", "error", err)
		cfg = common.DefaultConfig()
	}
	chain, err := extract.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("build extraction chain", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	res, err := chain.Extract(ctx, path)
	for _, a := range res.Attempts {
		logger.Info("attempt",
			"backend", a.Backend,
			"method", a.Method,
			"skipped", a.Skipped,
			"chars", a.Chars,
			"error", a.Err,
			"duration_ms", a.Duration.Milliseconds(),
		)
	}
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", res.Duration.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"backend", res.Backend,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	fmt.Println(res.Text)
}
