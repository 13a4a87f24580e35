package constants

// ExtractionMethod tells which family of backend supplied a document's text.
type ExtractionMethod string

const (
	MethodNative ExtractionMethod = "native"
	MethodOCR    ExtractionMethod = "ocr"
)

// Extraction backend names accepted in extraction.backends.
const (
	BackendLedongthuc = "ledongthuc"
	BackendPDFCPU     = "pdfcpu"
	BackendPdftotext  = "pdftotext"
	BackendOCR        = "ocr"
)

// KnownBackends lists every backend name the extractor can build.
var KnownBackends = []string{BackendLedongthuc, BackendPDFCPU, BackendPdftotext, BackendOCR}

// DefaultBackends is the fallback order used when none is configured.
var DefaultBackends = []string{BackendLedongthuc, BackendPDFCPU, BackendOCR}
