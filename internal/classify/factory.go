package classify

import (
	"log/slog"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// FromConfig returns an OllamaClient when llm_enabled is set, else Disabled.
// Document types offered to the model come from document_types_list, or from
// the document_types table when the list is empty.
func FromConfig(cfg *common.Config, logger *slog.Logger, opts ...ClientOption) (Classifier, error) {
	if !cfg.LLMEnabled {
		return NewDisabled(logger), nil
	}
	types := cfg.DocumentTypesList
	if len(types) == 0 {
		types = cfg.DocumentTypes.Names()
	}
	return NewOllamaClient(Config{
		URL:           cfg.LLMURL,
		Model:         cfg.LLMModel,
		Timeout:       cfg.LLMTimeout,
		DocumentTypes: types,
		Labels:        cfg.Labels,
		Language:      cfg.Language,
	}, logger, opts...)
}
