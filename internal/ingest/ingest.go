package ingest

import (
	"os"
	"time"
)

// Candidate is one input file picked up by a directory snapshot.
type Candidate struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

func candidateFromInfo(path string, info os.FileInfo) Candidate {
	return Candidate{Path: path, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}
}
