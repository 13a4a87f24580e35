package organizer

import (
	"testing"
	"time"

	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

var fixedNow = time.Date(2025, time.November, 4, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestFilterLabelsThreshold(t *testing.T) {
	got := FilterLabels(map[string]float64{
		"recurring":    0.9,
		"warranty":     0.75,
		"invoice_item": 0.74,
		" ":            1,
	}, 0.75)
	if len(got) != 2 || !got.Has("recurring") || !got.Has("warranty") {
		t.Fatalf("FilterLabels() = %v", got.Sorted())
	}
}

func TestParseDate(t *testing.T) {
	n := NewNormalizer("%y%m%d", 0.75, nil, WithClock(fixedClock))
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"09.02.2024", "240209", true},
		{"9.2.2024", "240209", true},
		{" 15.03.2023 ", "230315", true},
		{"2023-03-15", "230315", true},
		{"2023-3-5", "230305", true},
		{"not-a-date", "251104", false},
		{"", "251104", false},
		{"31.02.2024", "251104", false},
		{"2024/02/09", "251104", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ts, ok := n.ParseDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if got := n.FormatDate(ts); got != tt.want {
				t.Fatalf("ParseDate(%q) formatted = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer("", 0.75, nil, WithClock(fixedClock))
	f := n.Normalize(&entity.Classification{DocumentType: "Invoice", Date: "kein Datum"})
	if f.Company != "unknown" || f.ContentSummary != "other" {
		t.Fatalf("defaults not applied: %+v", f)
	}
	if f.Category != "invoice" {
		t.Fatalf("category = %q", f.Category)
	}
	if !f.DateFallback || f.Date != "251104" || f.Year != "2025" {
		t.Fatalf("date fallback not applied: %+v", f)
	}
}

func TestNormalizeParsedDate(t *testing.T) {
	n := NewNormalizer("%Y-%m-%d", 0.75, nil, WithClock(fixedClock))
	f := n.Normalize(&entity.Classification{DocumentType: "invoice", Date: "15.03.2023", Company: " Acme ", ContentSummary: "Wartung"})
	if f.DateFallback {
		t.Fatal("DateFallback set for a parseable date")
	}
	if f.Date != "2023-03-15" || f.Year != "2023" || f.Company != "Acme" {
		t.Fatalf("unexpected fields: %+v", f)
	}
}
