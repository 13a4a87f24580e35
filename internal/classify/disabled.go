package classify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Disabled is used when llm_enabled is false. Every document stays unclassified.
type Disabled struct {
	logger *slog.Logger
	once   sync.Once
}

func NewDisabled(logger *slog.Logger) *Disabled {
	if logger == nil {
		logger = slog.Default()
	}
	return &Disabled{logger: logger}
}

func (d *Disabled) Classify(context.Context, string) (*entity.Classification, error) {
	d.once.Do(func() {
		d.logger.Warn("classify.disabled", "hint", "set llm_enabled: true to organize documents")
	})
	return nil, common.UnclassifiedError("classification is disabled in config", common.ErrClassifierDisabled)
}
