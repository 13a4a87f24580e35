package constants

import "strings"

// Placeholder values used when the classifier leaves a naming field empty.
const (
	UnknownCompany        = "unknown"
	OtherContentSummary   = "other"
	DefaultNamingTemplate = "{date}_{category}_{company}_{content_summary}.pdf"
	DefaultDateFormat     = "%y%m%d"
	DefaultLabelThreshold = 0.75
)

var defaultDocumentTypes = []string{
	"invoice",
	"payslip",
	"contract",
	"other",
}

// DefaultDocumentTypes returns the document types offered to the classifier
// when the configuration does not list any.
func DefaultDocumentTypes() []string {
	out := make([]string, len(defaultDocumentTypes))
	copy(out, defaultDocumentTypes)
	return out
}

// Category derives the naming category from a document type.
func Category(documentType string) string {
	return strings.ToLower(strings.TrimSpace(documentType))
}
