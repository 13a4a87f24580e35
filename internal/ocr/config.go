package ocr

import (
	"log/slog"
	"os/exec"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // tesseract language(s), default "deu+eng"
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	MaxPages    int    // 0 = no limit
	TessdataDir string
	PSM         int // page segmentation mode; 0 leaves tesseract's default
}

func (c Config) withDefaults() Config {
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "deu+eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return c
}

// Option customizes a backend; mostly used to inject fakes in tests.
type Option func(*options)

type options struct {
	runner   Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

func WithRunner(r Runner) Option {
	return func(o *options) { o.runner = r }
}

func WithLookPath(fn func(string) (string, error)) Option {
	return func(o *options) { o.lookPath = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{lookPath: exec.LookPath}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runner == nil {
		o.runner = ExecRunner{Logger: o.logger}
	}
	return o
}

// installed reports whether every binary resolves on PATH (or as a path).
func installed(lookPath func(string) (string, error), bins ...string) bool {
	for _, b := range bins {
		if _, err := lookPath(b); err != nil {
			return false
		}
	}
	return true
}
