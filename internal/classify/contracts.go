package classify

import (
	"context"

	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Classifier is the interface the pipeline depends on.
//
// A returned error always wraps common.ErrUnclassified; the file is then left
// where it is.
type Classifier interface {
	Classify(ctx context.Context, text string) (*entity.Classification, error)
}

// PromptInput is what the prompt is built from.
type PromptInput struct {
	Text          string
	DocumentTypes []string
	Labels        []string
	Language      string
	MaxChars      int
}
