package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
	"github.com/joseph-ayodele/pdf-agent/internal/ingest"
)

// HealthReporter is told when the watch loop starts and stops serving.
type HealthReporter interface {
	SetServing(serving bool)
}

// Summary is what one batch run did.
type Summary struct {
	RunID       string
	Outcomes    []entity.Outcome
	Reports     []string
	Interrupted bool
}

func (s Summary) Count(status constants.OutcomeStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// RunBatch processes a snapshot of inputDir in name order, then flushes the
// report. Cancellation is honoured between files; the file in flight is
// always finished.
func (p *Processor) RunBatch(ctx context.Context, inputDir string) (Summary, error) {
	sum := Summary{RunID: p.runID}
	files, err := ingest.ListPDFs(inputDir)
	if err != nil {
		return sum, fmt.Errorf("list input folder: %w", err)
	}
	p.logger.Info("pipeline.batch.start", "run_id", p.runID, "dir", inputDir, "files", len(files))

	for _, f := range files {
		if ctx.Err() != nil {
			sum.Interrupted = true
			p.logger.Warn("pipeline.batch.interrupted", "run_id", p.runID, "remaining", len(files)-len(sum.Outcomes))
			break
		}
		sum.Outcomes = append(sum.Outcomes, p.ProcessFile(context.WithoutCancel(ctx), f.Path))
	}

	reports, err := p.recorder.Flush(ctx)
	sum.Reports = reports
	p.logger.Info("pipeline.batch.done",
		"run_id", p.runID,
		"organized", sum.Count(constants.StatusOrganized),
		"skipped", sum.Count(constants.StatusSkipped),
		"failed", sum.Count(constants.StatusFailed),
	)
	if err != nil {
		return sum, fmt.Errorf("flush report: %w", err)
	}
	return sum, nil
}

// RunWatch organizes PDFs as they appear in inputDir until ctx is cancelled.
// Events are handled on this goroutine in arrival order; the report is
// flushed on the way out.
func (p *Processor) RunWatch(ctx context.Context, inputDir string) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Dir: inputDir, Logger: p.logger})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	p.setServing(true)
	p.logger.Info("pipeline.watch.start", "run_id", p.runID, "dir", inputDir)

	defer func() {
		p.setServing(false)
		if reports, err := p.recorder.Flush(context.WithoutCancel(ctx)); err != nil {
			p.logger.Error("pipeline.watch.flush_failed", "error", err)
		} else {
			p.logger.Info("pipeline.watch.stopped", "run_id", p.runID, "reports", reports)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Warn("pipeline.watch.error", "error", err)
		case path, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ctx, path)
		}
	}
}

// handleEvent waits for path to settle and processes it. A file that is still
// growing when a settle round runs out is waited on for another round, since
// fsnotify sends no second Create for it. A file that stops growing without
// settling, or is still pending at shutdown, is reported as unsettled.
func (p *Processor) handleEvent(ctx context.Context, path string) {
	logger := p.logger.With("path", path)
	lastSize := int64(-1)
	for {
		info, err := ingest.WaitStable(ctx, path, p.settleInterval, p.settleAttempts)
		if err == nil {
			break
		}
		switch {
		case ctx.Err() != nil:
			logger.Info("pipeline.watch.settle_cancelled")
			p.recordUnsettled(context.WithoutCancel(ctx), path, err)
			return
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("pipeline.watch.vanished")
			return
		case errors.Is(err, ingest.ErrUnsettled) && info != nil && info.Size() > lastSize:
			lastSize = info.Size()
			logger.Debug("pipeline.watch.still_writing", "size", lastSize)
			continue
		default:
			logger.Warn("pipeline.watch.unsettled", "error", err)
			p.recordUnsettled(ctx, path, err)
			return
		}
	}
	p.ProcessFile(context.WithoutCancel(ctx), path)
}

// recordUnsettled reports a watched file that was never handed to the chain.
// It stays in the input folder.
func (p *Processor) recordUnsettled(ctx context.Context, path string, cause error) {
	out := entity.Outcome{RunID: p.runID, Original: path, Timestamp: p.now()}
	markOutcome(&out, constants.StatusSkipped, constants.ReasonUnsettled, cause)
	p.metrics.StartFile()
	p.metrics.FinishFile(string(out.Status), string(out.Reason), 0)
	if err := p.recorder.Record(common.WithRunID(ctx, p.runID), out); err != nil {
		p.logger.Warn("pipeline.record.failed", "path", path, "error", err)
	}
}

func (p *Processor) setServing(serving bool) {
	if p.health != nil {
		p.health.SetServing(serving)
	}
}

type nopMetrics struct{}

func (nopMetrics) StartFile() {}

func (nopMetrics) FinishFile(string, string, time.Duration) {}

func (nopMetrics) ObserveExtraction(string, string) {}
