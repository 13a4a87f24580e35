package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// PdftotextBackend reads the text layer with poppler's pdftotext.
type PdftotextBackend struct {
	cfg      Config
	runner   Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

func NewPdftotextBackend(cfg Config, opts ...Option) *PdftotextBackend {
	o := buildOptions(opts)
	return &PdftotextBackend{cfg: cfg.withDefaults(), runner: o.runner, lookPath: o.lookPath, logger: o.logger}
}

func (*PdftotextBackend) Name() string                       { return constants.BackendPdftotext }
func (*PdftotextBackend) Method() constants.ExtractionMethod { return constants.MethodNative }

func (p *PdftotextBackend) Available() bool {
	return installed(p.lookPath, p.cfg.Pdftotext)
}

func (p *PdftotextBackend) ExtractText(ctx context.Context, path string) (string, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if p.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", p.cfg.MaxPages))
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	args = append(args, path, "-")
	out, errb, err := p.runner.Run(ctx, p.cfg.Pdftotext, args...)
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	// form feeds separate pages
	text := strings.ReplaceAll(string(out), "\f", "\n\n")
	p.logger.Debug("ocr.pdftotext.ok", "path", path, "pages", 1+strings.Count(string(out), "\f"), "bytes", len(out))
	return text, nil
}
