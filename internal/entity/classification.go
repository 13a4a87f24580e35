package entity

// Classification is what the classifier reports for one document.
// Empty strings mean the classifier did not supply the field.
type Classification struct {
	DocumentType   string             `json:"document_type"`
	Labels         map[string]float64 `json:"labels"`
	Date           string             `json:"date"`
	Company        string             `json:"company"`
	ContentSummary string             `json:"content_summary"`
}
