package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-agent/internal/classify"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/extract"
	"github.com/joseph-ayodele/pdf-agent/internal/logging"
	"github.com/joseph-ayodele/pdf-agent/internal/observability/metrics"
	"github.com/joseph-ayodele/pdf-agent/internal/organizer"
	"github.com/joseph-ayodele/pdf-agent/internal/pipeline"
	"github.com/joseph-ayodele/pdf-agent/internal/report"
	"github.com/joseph-ayodele/pdf-agent/internal/server"
)

const serviceName = "pdf-agent"

// agent is the wired process: config, logger, lock and pipeline.
type agent struct {
	cfg       *common.Config
	logger    *slog.Logger
	logCloser io.Closer
	lock      *flock.Flock
	store     *report.Store
	metrics   *metrics.PipelineMetrics
	health    *server.Health
	processor *pipeline.Processor
}

func run(ctx context.Context, stdout, stderr io.Writer, opts runOptions) error {
	a, err := bootstrap(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer a.close()

	if opts.watch {
		return a.watch(ctx)
	}
	sum, err := a.processor.RunBatch(ctx, a.cfg.InputFolder)
	fmt.Fprintln(stdout, renderSummary(sum))
	return err
}

func bootstrap(ctx context.Context, stderr io.Writer, opts runOptions) (_ *agent, err error) {
	cfg, err := common.LoadConfig(common.ResolveConfigPath(opts.configPath))
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger, logCloser, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		LogFile: cfg.LogFile(),
		Service: serviceName,
		RunID:   runID,
		Console: stderr,
	})
	if err != nil {
		return nil, common.ConfigError("build logger", err)
	}
	slog.SetDefault(logger)

	a := &agent{cfg: cfg, logger: logger, logCloser: logCloser}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	lockPath := filepath.Join(cfg.LogFolder, "pdf-agent.lock")
	a.lock = flock.New(lockPath)
	ok, err := a.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		a.lock = nil
		return nil, errors.New("another pdf-agent instance is already running (" + lockPath + ")")
	}

	chain, err := extract.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	classifier, err := classify.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	org, err := organizer.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	var reportOpts []report.Option
	procOpts := []pipeline.Option{
		pipeline.WithRunID(runID),
		pipeline.WithSettle(cfg.Watch.SettleInterval, cfg.Watch.SettleAttempts),
	}
	if cfg.Report.Database != "" {
		a.store, err = report.OpenStore(ctx, cfg.Report.Database, logger)
		if err != nil {
			return nil, err
		}
		reportOpts = append(reportOpts, report.WithStore(a.store))
		procOpts = append(procOpts, pipeline.WithHistory(a.store))
	}
	reporter, err := report.NewReporter(cfg.ReportFolder, cfg.Report.Formats, logger, reportOpts...)
	if err != nil {
		return nil, common.ConfigError("report formats", err)
	}

	a.metrics = metrics.NewPipelineMetrics()
	procOpts = append(procOpts, pipeline.WithMetrics(a.metrics))
	if opts.watch && cfg.Server.HealthAddr != "" {
		a.health, err = server.NewHealth(cfg.Server.HealthAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("health listener: %w", err)
		}
		procOpts = append(procOpts, pipeline.WithHealth(a.health))
	}

	a.processor = pipeline.NewProcessor(logger, chain, classifier, org, reporter, procOpts...)
	logger.Info("agent.started",
		"config", cfg.Path,
		"mode", mode(opts),
		"backends", chain.Backends(),
		"llm_enabled", cfg.LLMEnabled,
		"document_types", org.Rules().DocumentTypes(),
	)
	return a, nil
}

func (a *agent) watch(ctx context.Context) error {
	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, addr, a.logger); err != nil {
				a.logger.Error("metrics.serve_failed", "addr", addr, "error", err)
			}
		}()
	}
	if a.health != nil {
		go func() {
			if err := a.health.Serve(ctx); err != nil {
				a.logger.Error("health.serve_failed", "error", err)
			}
		}()
	}
	return a.processor.RunWatch(ctx, a.cfg.InputFolder)
}

func (a *agent) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			a.logger.Warn("agent.unlock_failed", "error", err)
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func mode(opts runOptions) string {
	if opts.watch {
		return "watch"
	}
	return "batch"
}
