package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// fakeRunner renders a fixed number of page images for pdftoppm and answers
// tesseract with per-page text.
type fakeRunner struct {
	pages    int
	pageText map[string]string // image base name -> text
	failOn   map[string]bool   // image base name -> tesseract error
	calls    []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			p := prefix + "-" + pad(i, f.pages) + ".png"
			if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := filepath.Base(args[0])
		if f.failOn[base] {
			return nil, []byte("read error"), errors.New("exit status 1")
		}
		return []byte(f.pageText[base]), nil, nil
	case "pdftotext":
		return []byte("page one\fpage two"), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

// pad mimics pdftoppm, which zero-pads page numbers to the width of the page count.
func pad(n, total int) string {
	w := len(strconv.Itoa(total))
	s := strconv.Itoa(n)
	for len(s) < w {
		s = "0" + s
	}
	return s
}

func found(string) (string, error)   { return "/usr/bin/x", nil }
func missing(string) (string, error) { return "", errors.New("not found") }

func TestBackendJoinsPagesInOrder(t *testing.T) {
	texts := map[string]string{}
	for i := 1; i <= 11; i++ {
		texts["page-"+pad(i, 11)+".png"] = "p" + strconv.Itoa(i)
	}
	r := &fakeRunner{pages: 11, pageText: texts}
	b := NewBackend(Config{}, WithRunner(r), WithLookPath(found))

	got, err := b.ExtractText(context.Background(), "/in/scan.pdf")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	parts := strings.Split(got, "\n\n")
	if len(parts) != 11 || parts[0] != "p1" || parts[1] != "p2" || parts[10] != "p11" {
		t.Fatalf("unexpected page order: %q", parts)
	}
	if !strings.Contains(r.calls[0], "-r 300 -png") {
		t.Fatalf("pdftoppm not called with default dpi: %s", r.calls[0])
	}
	if !strings.Contains(r.calls[1], "-l deu+eng") {
		t.Fatalf("tesseract not called with bilingual model: %s", r.calls[1])
	}
}

func TestBackendSkipsFailedPages(t *testing.T) {
	r := &fakeRunner{
		pages:    2,
		pageText: map[string]string{"page-2.png": "second"},
		failOn:   map[string]bool{"page-1.png": true},
	}
	b := NewBackend(Config{Lang: "eng", DPI: 150}, WithRunner(r), WithLookPath(found))

	got, err := b.ExtractText(context.Background(), "/in/scan.pdf")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "second" {
		t.Fatalf("got %q", got)
	}
}

func TestBackendErrorsWhenEveryPageFails(t *testing.T) {
	r := &fakeRunner{pages: 1, failOn: map[string]bool{"page-1.png": true}}
	b := NewBackend(Config{}, WithRunner(r), WithLookPath(found))

	if _, err := b.ExtractText(context.Background(), "/in/scan.pdf"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBackendMaxPages(t *testing.T) {
	r := &fakeRunner{pages: 3, pageText: map[string]string{"page-1.png": "a", "page-2.png": "b", "page-3.png": "c"}}
	b := NewBackend(Config{MaxPages: 2}, WithRunner(r), WithLookPath(found))

	got, err := b.ExtractText(context.Background(), "/in/scan.pdf")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "a\n\nb" {
		t.Fatalf("got %q", got)
	}
}

func TestAvailabilityFollowsLookPath(t *testing.T) {
	if NewBackend(Config{}, WithLookPath(missing)).Available() {
		t.Fatalf("ocr backend should be unavailable without binaries")
	}
	if !NewBackend(Config{}, WithLookPath(found)).Available() {
		t.Fatalf("ocr backend should be available")
	}
	if NewPdftotextBackend(Config{}, WithLookPath(missing)).Available() {
		t.Fatalf("pdftotext backend should be unavailable")
	}
}

func TestPdftotextSplitsFormFeeds(t *testing.T) {
	b := NewPdftotextBackend(Config{}, WithRunner(&fakeRunner{}), WithLookPath(found))
	got, err := b.ExtractText(context.Background(), "/in/a.pdf")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "page one\n\npage two" {
		t.Fatalf("got %q", got)
	}
}
