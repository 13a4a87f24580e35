package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *PipelineMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestPipelineMetricsExposition(t *testing.T) {
	m := NewPipelineMetrics()

	m.StartFile()
	if body := scrape(t, m); !strings.Contains(body, "pdfagent_pipeline_in_flight 1") {
		t.Fatalf("in_flight not 1:\n%s", body)
	}
	m.ObserveExtraction("native", "ledongthuc")
	m.ObserveExtraction("", "none")
	m.FinishFile("organized", "", 2*time.Second)

	m.StartFile()
	m.FinishFile("failed", "move_failed", time.Second)

	body := scrape(t, m)
	for _, want := range []string{
		"pdfagent_pipeline_in_flight 0",
		`pdfagent_pipeline_files_total{reason="move_failed",status="failed"} 1`,
		`pdfagent_pipeline_files_total{reason="",status="organized"} 1`,
		`pdfagent_extract_method_total{backend="ledongthuc",method="native"} 1`,
		`pdfagent_pipeline_file_duration_seconds_count{status="organized"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
	if strings.Contains(body, `backend="none"`) {
		t.Fatal("extraction without a method was counted")
	}
}

func TestRegistryIsPrivate(t *testing.T) {
	a, b := NewPipelineMetrics(), NewPipelineMetrics()
	a.StartFile()
	if body := scrape(t, b); !strings.Contains(body, "pdfagent_pipeline_in_flight 0") {
		t.Fatalf("registries share state:\n%s", body)
	}
}
