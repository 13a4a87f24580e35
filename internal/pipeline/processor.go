package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/classify"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
	"github.com/joseph-ayodele/pdf-agent/internal/extract"
	"github.com/joseph-ayodele/pdf-agent/internal/ingest"
	"github.com/joseph-ayodele/pdf-agent/internal/organizer"
)

// Organizer plans and commits one classified file.
type Organizer interface {
	Organize(ctx context.Context, src string, c *entity.Classification) (organizer.Result, error)
}

// Recorder collects outcomes and writes the report artifacts.
type Recorder interface {
	Record(ctx context.Context, o entity.Outcome) error
	Flush(ctx context.Context) ([]string, error)
}

// Metrics receives per-file counters.
type Metrics interface {
	StartFile()
	FinishFile(status, reason string, duration time.Duration)
	ObserveExtraction(method, backend string)
}

// History answers whether identical content was organized before.
type History interface {
	SeenHash(ctx context.Context, hash string) (string, bool, error)
}

// Processor drives each PDF through extract -> classify -> organize and
// records the outcome. Files are processed one at a time.
type Processor struct {
	extractor  extract.TextExtractor
	classifier classify.Classifier
	organizer  Organizer
	recorder   Recorder
	metrics    Metrics
	history    History
	health     HealthReporter

	runID          string
	settleInterval time.Duration
	settleAttempts int
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

func WithMetrics(m Metrics) Option { return func(p *Processor) { p.metrics = m } }

func WithHistory(h History) Option { return func(p *Processor) { p.history = h } }

func WithHealth(h HealthReporter) Option { return func(p *Processor) { p.health = h } }

func WithRunID(id string) Option { return func(p *Processor) { p.runID = id } }

func WithClock(now func() time.Time) Option { return func(p *Processor) { p.now = now } }

// WithSettle sets how long watch mode waits for a new file to stop growing.
func WithSettle(interval time.Duration, attempts int) Option {
	return func(p *Processor) {
		p.settleInterval = interval
		p.settleAttempts = attempts
	}
}

func NewProcessor(logger *slog.Logger, ex extract.TextExtractor, cl classify.Classifier, org Organizer, rec Recorder, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		extractor:  ex,
		classifier: cl,
		organizer:  org,
		recorder:   rec,
		metrics:    nopMetrics{},
		now:        time.Now,
		logger:     logger,
	}
	for _, o := range opts {
		o(p)
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p
}

// RunID identifies this batch or watch session in logs and reports.
func (p *Processor) RunID() string { return p.runID }

// ProcessFile runs one file through the whole chain. Every failure is local
// to the file and ends up in the returned outcome, never as an error.
func (p *Processor) ProcessFile(ctx context.Context, path string) entity.Outcome {
	start := p.now()
	p.metrics.StartFile()

	logger := p.logger.With("path", path)
	ctx = common.WithRunID(ctx, p.runID)
	ctx = common.WithLogger(ctx, logger)

	out := entity.Outcome{RunID: p.runID, Original: path}
	p.process(ctx, path, &out, logger)

	out.Timestamp = p.now()
	out.Duration = out.Timestamp.Sub(start)
	p.metrics.FinishFile(string(out.Status), string(out.Reason), out.Duration)

	switch out.Status {
	case constants.StatusOrganized:
		logger.Info("pipeline.file.organized", "new", out.New, "category", out.Category,
			"method", out.Method, "elapsed_ms", out.Duration.Milliseconds())
	case constants.StatusSkipped:
		logger.Warn("pipeline.file.skipped", "reason", out.Reason, "error", out.Error)
	default:
		logger.Error("pipeline.file.failed", "reason", out.Reason, "error", out.Error)
	}

	if err := p.recorder.Record(ctx, out); err != nil {
		logger.Warn("pipeline.record.failed", "error", err)
	}
	return out
}

func (p *Processor) process(ctx context.Context, path string, out *entity.Outcome, logger *slog.Logger) {
	hash, err := ingest.HashFile(path)
	if err != nil {
		markOutcome(out, constants.StatusSkipped, constants.ReasonUnreadable, err)
		return
	}
	out.ContentHash = hash
	if p.history != nil {
		if prev, seen, err := p.history.SeenHash(ctx, hash); err != nil {
			logger.Debug("pipeline.history.lookup_failed", "error", err)
		} else if seen {
			logger.Info("pipeline.file.duplicate", "hash", hash, "previous", prev)
		}
	}

	res, err := p.extractor.Extract(ctx, path)
	if err == nil && res.Text == "" {
		err = common.ExtractionError("no text could be extracted from "+filepath.Base(path), nil)
	}
	if err != nil {
		markOutcome(out, constants.StatusSkipped, constants.ReasonExtractionFailed, err)
		return
	}
	out.Method = res.Method
	out.Backend = res.Backend
	p.metrics.ObserveExtraction(string(res.Method), res.Backend)

	c, err := p.classifier.Classify(ctx, res.Text)
	if err == nil && c == nil {
		err = common.UnclassifiedError("classifier returned nothing", nil)
	}
	if err != nil {
		markOutcome(out, constants.StatusSkipped, constants.ReasonUnclassified, err)
		return
	}
	out.Category = c.DocumentType

	result, err := p.organizer.Organize(ctx, path, c)
	if err != nil {
		status, reason := statusFor(err)
		markOutcome(out, status, reason, err)
		return
	}
	out.Status = constants.StatusOrganized
	out.New = result.NewPath
	if result.Resolution.DocumentType != "" {
		out.Category = result.Resolution.DocumentType
	}
}

// statusFor maps an organize error to its report status and reason.
func statusFor(err error) (constants.OutcomeStatus, constants.SkipReason) {
	switch {
	case errors.Is(err, common.ErrUnclassified):
		return constants.StatusSkipped, constants.ReasonUnclassified
	case errors.Is(err, common.ErrTemplate):
		return constants.StatusFailed, constants.ReasonTemplateError
	default:
		return constants.StatusFailed, constants.ReasonMoveFailed
	}
}

func markOutcome(out *entity.Outcome, status constants.OutcomeStatus, reason constants.SkipReason, err error) {
	out.Status = status
	out.Reason = reason
	if err != nil {
		out.Error = err.Error()
	}
}
