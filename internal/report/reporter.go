package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Format is a report artifact type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var writers = map[Format]func(string, []entity.Outcome) error{
	FormatCSV:  WriteCSV,
	FormatXLSX: WriteXLSX,
}

// Reporter buffers outcomes for the report artifacts and writes each one
// through to the store when one is configured.
type Reporter struct {
	folder  string
	formats []Format
	store   *Store
	now     func() time.Time
	logger  *slog.Logger

	mu  sync.Mutex
	buf []entity.Outcome
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithStore enables the outcome history.
func WithStore(s *Store) Option {
	return func(r *Reporter) { r.store = s }
}

// WithClock replaces time.Now for artifact names.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

func NewReporter(folder string, formats []string, logger *slog.Logger, opts ...Option) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{folder: folder, now: time.Now, logger: logger}
	if len(formats) == 0 {
		formats = []string{string(FormatCSV)}
	}
	for _, f := range formats {
		if _, ok := writers[Format(f)]; !ok {
			return nil, fmt.Errorf("unknown report format %q", f)
		}
		r.formats = append(r.formats, Format(f))
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Record buffers o and writes it to the store. A store failure is logged and
// returned but the outcome stays buffered for the artifacts.
func (r *Reporter) Record(ctx context.Context, o entity.Outcome) error {
	if o.RunID == "" {
		o.RunID = common.RunIDFromContext(ctx)
	}
	var storeErr error
	if r.store != nil {
		if err := r.store.Insert(ctx, &o); err != nil {
			r.logger.Error("report.store.insert_failed", "original", o.Original, "error", err)
			storeErr = err
		}
	}
	r.mu.Lock()
	r.buf = append(r.buf, o)
	r.mu.Unlock()
	return storeErr
}

// Flush writes report_YYYYMMDD_HHMMSS.<ext> for each format and clears the
// buffer. Nothing is written when no outcome was recorded. Flush runs during
// shutdown, so it does not observe cancellation.
func (r *Reporter) Flush(_ context.Context) ([]string, error) {
	r.mu.Lock()
	outcomes := r.buf
	r.buf = nil
	r.mu.Unlock()

	if len(outcomes) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(r.folder, 0o755); err != nil {
		r.restore(outcomes)
		return nil, fmt.Errorf("create report folder: %w", err)
	}

	stamp := r.now().Format("20060102_150405")
	var written []string
	for _, f := range r.formats {
		path := filepath.Join(r.folder, "report_"+stamp+"."+string(f))
		if err := writers[f](path, outcomes); err != nil {
			r.logger.Error("report.write_failed", "path", path, "error", err)
			r.restore(outcomes)
			return written, err
		}
		written = append(written, path)
		r.logger.Info("report.written", "path", path, "rows", len(outcomes))
	}
	return written, nil
}

func (r *Reporter) restore(outcomes []entity.Outcome) {
	r.mu.Lock()
	r.buf = append(outcomes, r.buf...)
	r.mu.Unlock()
}
