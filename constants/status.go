package constants

// OutcomeStatus is the per-file result written to reports.
type OutcomeStatus string

// Stable values (stored as-is in report artifacts and the outcome table).
const (
	StatusOrganized OutcomeStatus = "organized" // moved to its destination
	StatusSkipped   OutcomeStatus = "skipped"   // left in place: no text or no classification
	StatusFailed    OutcomeStatus = "failed"    // left in place: template or filesystem error
)

// SkipReason is the machine-readable cause attached to skipped or failed outcomes.
type SkipReason string

const (
	ReasonNone             SkipReason = ""
	ReasonExtractionFailed SkipReason = "extraction_failed"
	ReasonUnclassified     SkipReason = "unclassified"
	ReasonTemplateError    SkipReason = "template_error"
	ReasonMoveFailed       SkipReason = "move_failed"
	ReasonUnreadable       SkipReason = "unreadable"
	ReasonUnsettled        SkipReason = "unsettled" // watch mode: file never stopped changing
)
