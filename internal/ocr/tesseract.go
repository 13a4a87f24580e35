package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

var (
	reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-=|]{3,}\s*$`)
	rePageNum  = regexp.MustCompile(`-(\d+)\.png$`)
)

// Backend rasterizes each page with pdftoppm and recognizes it with tesseract.
type Backend struct {
	cfg      Config
	runner   Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

func NewBackend(cfg Config, opts ...Option) *Backend {
	o := buildOptions(opts)
	return &Backend{cfg: cfg.withDefaults(), runner: o.runner, lookPath: o.lookPath, logger: o.logger}
}

func (*Backend) Name() string                       { return constants.BackendOCR }
func (*Backend) Method() constants.ExtractionMethod { return constants.MethodOCR }

func (b *Backend) Available() bool {
	return installed(b.lookPath, b.cfg.Pdftoppm, b.cfg.Tesseract)
}

// ExtractText OCRs every page and joins the results in page order. A page that
// fails is logged and skipped; the call errors only if no page produced text.
func (b *Backend) ExtractText(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdf-agent-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			b.logger.Warn("ocr.tmpdir.remove_error", "dir", tmpDir, "error", err)
		}
	}()

	images, err := b.rasterize(ctx, path, tmpDir)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	var errs []error
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		txt, err := b.recognize(ctx, img)
		if err != nil {
			errs = append(errs, err)
			b.logger.Warn("ocr.page.failed", "path", path, "image", filepath.Base(img), "error", err)
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(txt)
	}
	if out.Len() == 0 && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	b.logger.Debug("ocr.ok", "path", path, "pages", len(images), "lang", b.cfg.Lang, "chars", out.Len())
	return out.String(), nil
}

func (b *Backend) rasterize(ctx context.Context, path, dir string) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	args := []string{"-r", strconv.Itoa(b.cfg.DPI), "-png"}
	if b.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(b.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args = append(args, path, prefix)
	if _, errb, err := b.runner.Run(ctx, b.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New("pdftoppm produced no images")
	}
	sortByPage(matches)
	if b.cfg.MaxPages > 0 && len(matches) > b.cfg.MaxPages {
		matches = matches[:b.cfg.MaxPages]
	}
	return matches, nil
}

func (b *Backend) recognize(ctx context.Context, img string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{img, "stdout", "-l", b.cfg.Lang}
	if b.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(b.cfg.PSM))
	}
	if b.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", b.cfg.TessdataDir)
	}
	out, errb, err := b.runner.Run(ctx, b.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// sortByPage orders pdftoppm output numerically; its zero padding depends on
// the page count, so a plain string sort is not enough.
func sortByPage(paths []string) {
	num := func(p string) int {
		m := rePageNum.FindStringSubmatch(p)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
