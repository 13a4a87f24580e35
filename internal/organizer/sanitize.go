package organizer

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the filename limit in runes, extension included.
const MaxNameLength = 120

var reservedPairs = []string{
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
	"\r", "", "\n", "",
}

var (
	nameReplacer    = strings.NewReplacer(append(reservedPairs, " ", "_")...)
	segmentReplacer = strings.NewReplacer(reservedPairs...)
)

// Sanitize makes name safe as a single path element on common filesystems.
// It is idempotent.
func Sanitize(name string) string {
	name = norm.NFC.String(name)
	name = nameReplacer.Replace(name)
	return truncateKeepExt(name, MaxNameLength)
}

func truncateKeepExt(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	ext := filepath.Ext(name)
	extLen := utf8.RuneCountInString(ext)
	if extLen >= max {
		ext, extLen = "", 0
	}
	base := []rune(strings.TrimSuffix(name, ext))
	keep := max - extLen
	if keep > len(base) {
		keep = len(base)
	}
	return string(base[:keep]) + ext
}

// sanitizeSegment is used for values substituted into folder templates, so
// that a company like "A/B" stays one directory level. Spaces are kept:
// "Acme Corp" is a folder name as written.
func sanitizeSegment(v string) string {
	v = truncateKeepExt(segmentReplacer.Replace(norm.NFC.String(v)), MaxNameLength)
	if v == "." || v == ".." {
		return "_"
	}
	return v
}
