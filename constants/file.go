package constants

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions holds the file extensions picked up from the input folder.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether path carries a .pdf extension, ignoring case.
func IsPDF(path string) bool {
	_, ok := AllowedExtensions[NormalizeExt(filepath.Ext(path))]
	return ok
}
