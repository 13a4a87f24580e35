package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// OrganizedPath is the destination directory and the preferred filename.
// The committed name may carry a collision suffix.
type OrganizedPath struct {
	Dir      string
	Filename string
}

// Path joins Dir and Filename.
func (p OrganizedPath) Path() string { return filepath.Join(p.Dir, p.Filename) }

// Candidate returns the n-th name to try: Filename for n == 0, then
// base_1.ext, base_2.ext and so on. Suffixes always attach to the original base.
func (p OrganizedPath) Candidate(n int) string {
	if n <= 0 {
		return p.Filename
	}
	ext := filepath.Ext(p.Filename)
	base := strings.TrimSuffix(p.Filename, ext)
	return base + "_" + strconv.Itoa(n) + ext
}

// NextFree returns the first candidate path that does not exist yet. Commit
// does not rely on it; it is a preview for dry runs and logs.
func (p OrganizedPath) NextFree() string {
	for n := 0; ; n++ {
		cand := filepath.Join(p.Dir, p.Candidate(n))
		if _, err := os.Lstat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

// BuildPath renders the resolved templates under outputRoot.
func BuildPath(res Resolution, fields NamingFields, outputRoot string) (OrganizedPath, error) {
	folder, err := renderFolder(res.Folder, fields)
	if err != nil {
		return OrganizedPath{}, err
	}
	name, err := Render(res.Naming, fields.NameValues())
	if err != nil {
		return OrganizedPath{}, err
	}
	name = Sanitize(name)
	if name == "" || name == "." || name == ".." {
		return OrganizedPath{}, common.TemplateError(fmt.Sprintf("naming template %q renders an empty filename", res.Naming), nil)
	}
	if filepath.Ext(name) == "" {
		name = Sanitize(name + ".pdf")
	}
	return OrganizedPath{Dir: filepath.Join(outputRoot, folder), Filename: name}, nil
}

// renderFolder renders a folder template into a relative path. Substituted
// values cannot add directory levels, and the template itself may not escape
// the output root.
func renderFolder(tmpl string, fields NamingFields) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	rendered, err := render(tmpl, fields.FolderValues(), sanitizeSegment)
	if err != nil {
		return "", err
	}
	rendered = filepath.FromSlash(rendered)
	if filepath.IsAbs(rendered) || filepath.VolumeName(rendered) != "" || strings.HasPrefix(rendered, string(filepath.Separator)) {
		return "", common.TemplateError(fmt.Sprintf("folder template %q renders an absolute path", tmpl), nil)
	}
	for _, seg := range strings.Split(rendered, string(filepath.Separator)) {
		if seg == ".." {
			return "", common.TemplateError(fmt.Sprintf("folder template %q escapes the output folder", tmpl), nil)
		}
	}
	return filepath.Clean(rendered), nil
}
