package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// Backend is one way of turning a PDF into text.
type Backend interface {
	Name() string
	Method() constants.ExtractionMethod
	// Available reports whether the backend can run in this deployment
	// (for example, whether its external binaries are installed).
	Available() bool
	ExtractText(ctx context.Context, path string) (string, error)
}

// TextExtractor is the file -> text stage the pipeline depends on.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result is the text of one document plus how it was obtained.
// An empty Text means extraction failed, not that the document is empty.
type Result struct {
	Text     string
	Method   constants.ExtractionMethod
	Backend  string
	Attempts []Attempt
	Duration time.Duration
}

// Attempt records what a single backend did for one document.
type Attempt struct {
	Backend  string
	Method   constants.ExtractionMethod
	Skipped  bool // backend unavailable
	Chars    int
	Err      error
	Duration time.Duration
}
