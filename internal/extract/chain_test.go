package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

type stubBackend struct {
	name      string
	method    constants.ExtractionMethod
	available bool
	text      string
	err       error
	panics    bool
	calls     int
}

func (s *stubBackend) Name() string                       { return s.name }
func (s *stubBackend) Method() constants.ExtractionMethod { return s.method }
func (s *stubBackend) Available() bool                    { return s.available }

func (s *stubBackend) ExtractText(context.Context, string) (string, error) {
	s.calls++
	if s.panics {
		panic("malformed xref")
	}
	return s.text, s.err
}

func native(name, text string) *stubBackend {
	return &stubBackend{name: name, method: constants.MethodNative, available: true, text: text}
}

func TestChainFallsBackToOCRForScannedDocument(t *testing.T) {
	primary := native("ledongthuc", "")
	secondary := native("pdfcpu", "  \n\t ")
	ocr := &stubBackend{name: "ocr", method: constants.MethodOCR, available: true, text: "Rechnung Nr. 42"}

	res, err := NewChain(nil, primary, secondary, ocr).Extract(context.Background(), "scan001.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != constants.MethodOCR {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodOCR)
	}
	if res.Backend != "ocr" || res.Text != "Rechnung Nr. 42" {
		t.Fatalf("unexpected result: backend=%q text=%q", res.Backend, res.Text)
	}
	if primary.calls != 1 || secondary.calls != 1 || ocr.calls != 1 {
		t.Fatalf("expected every backend to run once, got %d/%d/%d", primary.calls, secondary.calls, ocr.calls)
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(res.Attempts))
	}
}

func TestChainStopsAtFirstNonEmptyText(t *testing.T) {
	primary := native("ledongthuc", "Invoice 2023")
	secondary := native("pdfcpu", "never used")

	res, err := NewChain(nil, primary, secondary).Extract(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != constants.MethodNative || res.Backend != "ledongthuc" {
		t.Fatalf("unexpected result %+v", res)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary backend should not run")
	}
}

func TestChainSkipsUnavailableBackends(t *testing.T) {
	missing := &stubBackend{name: "pdftotext", method: constants.MethodNative, available: false, text: "x"}
	fallback := native("pdfcpu", "text")

	res, err := NewChain(nil, missing, fallback).Extract(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if missing.calls != 0 {
		t.Fatalf("unavailable backend was invoked")
	}
	if !res.Attempts[0].Skipped {
		t.Fatalf("expected first attempt to be marked skipped")
	}
}

func TestChainTreatsErrorsAndPanicsAsNoText(t *testing.T) {
	failing := native("ledongthuc", "")
	failing.err = errors.New("unsupported encoding")
	panicking := native("pdfcpu", "")
	panicking.panics = true
	ocr := &stubBackend{name: "ocr", method: constants.MethodOCR, available: true, text: "OCR text"}

	res, err := NewChain(nil, failing, panicking, ocr).Extract(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != constants.MethodOCR {
		t.Fatalf("method = %q", res.Method)
	}
	if res.Attempts[0].Err == nil || res.Attempts[1].Err == nil {
		t.Fatalf("expected recorded errors for failing backends: %+v", res.Attempts)
	}
}

func TestChainReportsExtractionFailure(t *testing.T) {
	a := native("ledongthuc", "")
	b := native("pdfcpu", "")
	b.err = errors.New("broken")
	c := &stubBackend{name: "ocr", method: constants.MethodOCR, available: false}

	res, err := NewChain(nil, a, b, c).Extract(context.Background(), "empty.pdf")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, common.ErrExtractionFailed) {
		t.Fatalf("error %v does not wrap ErrExtractionFailed", err)
	}
	if common.CodeOf(err) != common.CodeExtractionFailed {
		t.Fatalf("code = %q", common.CodeOf(err))
	}
	if res.Text != "" {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestChainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := native("ledongthuc", "text")

	_, err := NewChain(nil, a).Extract(ctx, "a.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if a.calls != 0 {
		t.Fatalf("backend ran after cancellation")
	}
}
