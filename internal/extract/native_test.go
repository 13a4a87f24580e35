package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// textPDF assembles a PDF with one Helvetica line per page.
func textPDF(pages ...string) []byte {
	n := len(pages)
	fontObj := 3 + 2*n
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, line := range pages {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", line)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// writeTextPDF validates the document with pdfcpu and writes pdfcpu's
// serialization of it, so both backends read a file pdfcpu produced.
func writeTextPDF(t *testing.T, pages ...string) string {
	t.Helper()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(textPDF(pages...)), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("pdfcpu read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "scan001.pdf")
	if err := api.WriteContextFile(ctx, path); err != nil {
		t.Fatalf("pdfcpu write fixture: %v", err)
	}
	return path
}

func TestBackendsReadTextLayer(t *testing.T) {
	path := writeTextPDF(t, "Rechnung Acme GmbH", "Wartung 2023")

	for _, b := range []Backend{NewNativeBackend(nil), NewPDFCPUBackend(nil)} {
		t.Run(b.Name(), func(t *testing.T) {
			got, err := b.ExtractText(context.Background(), path)
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			for _, want := range []string{"Rechnung Acme GmbH", "Wartung 2023"} {
				if !strings.Contains(got, want) {
					t.Fatalf("text %q missing %q", got, want)
				}
			}
			if strings.Index(got, "Rechnung") > strings.Index(got, "Wartung") {
				t.Fatalf("pages out of order: %q", got)
			}
		})
	}
}

func TestBackendsRejectNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, b := range []Backend{NewNativeBackend(nil), NewPDFCPUBackend(nil)} {
		if _, err := b.ExtractText(context.Background(), path); err == nil {
			t.Fatalf("%s: expected an error for a broken file", b.Name())
		}
	}
}

func TestChainUsesNativeTextOfRealPDF(t *testing.T) {
	path := writeTextPDF(t, "Rechnung Acme GmbH")
	chain := NewChain(nil, NewNativeBackend(nil), NewPDFCPUBackend(nil))

	res, err := chain.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != constants.MethodNative || res.Backend != constants.BackendLedongthuc {
		t.Fatalf("method/backend = %s/%s", res.Method, res.Backend)
	}
	if !strings.Contains(res.Text, "Rechnung Acme GmbH") {
		t.Fatalf("text = %q", res.Text)
	}
}
