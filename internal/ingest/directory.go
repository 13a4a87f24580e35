package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListPDFs takes a single snapshot of dir: regular files with a .pdf
// extension (any case), not descending into subfolders, sorted by name.
func ListPDFs(dir string) ([]Candidate, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("input folder is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}

	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !Eligible(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, candidateFromInfo(filepath.Join(dir, e.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
