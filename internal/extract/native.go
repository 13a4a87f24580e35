package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// NativeBackend reads the text layer with github.com/ledongthuc/pdf.
type NativeBackend struct {
	logger *slog.Logger
}

func NewNativeBackend(logger *slog.Logger) *NativeBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeBackend{logger: logger}
}

func (*NativeBackend) Name() string                       { return constants.BackendLedongthuc }
func (*NativeBackend) Method() constants.ExtractionMethod { return constants.MethodNative }
func (*NativeBackend) Available() bool                    { return true }

// ExtractText concatenates the plain text of every page in page order.
// Pages that fail to decode are skipped and logged.
func (n *NativeBackend) ExtractText(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			n.logger.Warn("extract.native.close_error", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			n.logger.Debug("extract.native.page_error", "path", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}
