package ingest

import "github.com/joseph-ayodele/pdf-agent/constants"

// Eligible reports whether a path should be picked up from the input folder.
func Eligible(path string) bool {
	return constants.IsPDF(path)
}
