package extract

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/ocr"
)

// FromConfig builds the fallback chain in the order listed under
// extraction.backends. ocrOpts reach the poppler and tesseract backends.
func FromConfig(cfg *common.Config, logger *slog.Logger, ocrOpts ...ocr.Option) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ex := cfg.Extraction
	ocrCfg := ocr.Config{
		Pdftotext:   ex.Pdftotext,
		Pdftoppm:    ex.Pdftoppm,
		Tesseract:   ex.Tesseract,
		Lang:        ex.OCRLang,
		DPI:         ex.DPI,
		MaxPages:    ex.MaxPages,
		TessdataDir: ex.TessdataDir,
	}
	opts := append([]ocr.Option{ocr.WithLogger(logger)}, ocrOpts...)

	names := ex.Backends
	if len(names) == 0 {
		names = constants.DefaultBackends
	}
	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		switch name {
		case constants.BackendLedongthuc:
			backends = append(backends, NewNativeBackend(logger))
		case constants.BackendPDFCPU:
			backends = append(backends, NewPDFCPUBackend(logger))
		case constants.BackendPdftotext:
			backends = append(backends, ocr.NewPdftotextBackend(ocrCfg, opts...))
		case constants.BackendOCR:
			backends = append(backends, ocr.NewBackend(ocrCfg, opts...))
		default:
			return nil, common.ConfigError(fmt.Sprintf("unknown extraction backend %q", name), nil)
		}
	}
	return NewChain(logger, backends...), nil
}
