package entity

import (
	"time"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// Outcome is the per-file report record.
type Outcome struct {
	ID          string                     `json:"id"`
	RunID       string                     `json:"run_id"`
	Original    string                     `json:"original"`
	New         string                     `json:"new"`
	Category    string                     `json:"category"`
	Timestamp   time.Time                  `json:"timestamp"`
	Status      constants.OutcomeStatus    `json:"status"`
	Reason      constants.SkipReason       `json:"reason,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Method      constants.ExtractionMethod `json:"method,omitempty"`
	Backend     string                     `json:"backend,omitempty"`
	ContentHash string                     `json:"content_hash,omitempty"`
	Duration    time.Duration              `json:"duration"`
}
