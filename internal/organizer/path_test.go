package organizer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

func TestRender(t *testing.T) {
	values := map[string]string{"date": "230315", "company": "Acme"}
	tests := []struct {
		tmpl string
		want string
	}{
		{"{date}_{company}.pdf", "230315_Acme.pdf"},
		{"{{literal}}_{company}", "{literal}_Acme"},
		{"plain.pdf", "plain.pdf"},
	}
	for _, tt := range tests {
		got, err := Render(tt.tmpl, values)
		if err != nil {
			t.Fatalf("Render(%q) error = %v", tt.tmpl, err)
		}
		if got != tt.want {
			t.Fatalf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	values := map[string]string{"date": "230315"}
	for _, tmpl := range []string{"{amount}.pdf", "{date.pdf", "date}.pdf", "{}.pdf"} {
		_, err := Render(tmpl, values)
		if !errors.Is(err, common.ErrTemplate) {
			t.Fatalf("Render(%q) error = %v, want ErrTemplate", tmpl, err)
		}
		if common.CodeOf(err) != common.CodeTemplate {
			t.Fatalf("Render(%q) code = %q", tmpl, common.CodeOf(err))
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`a/b\c:d*e?f"g<h>i|j.pdf`, "a_b_c_d_e_f_g_h_i_j.pdf"},
		{"line\r\nbreak.pdf", "linebreak.pdf"},
		{"Stadtwerke München GmbH.pdf", "Stadtwerke_München_GmbH.pdf"},
		{"München.pdf", "München.pdf"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("ä", 200) + ".pdf"
	got := Sanitize(long)
	if utf8.RuneCountInString(got) != MaxNameLength {
		t.Fatalf("length = %d, want %d", utf8.RuneCountInString(got), MaxNameLength)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("extension lost: %q", got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"already_clean.pdf",
		"with spaces / and: colons?.pdf",
		"München\r\n.pdf",
		strings.Repeat("x y", 80) + ".pdf",
		strings.Repeat("z", 130),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCandidate(t *testing.T) {
	p := OrganizedPath{Dir: "out", Filename: "X.pdf"}
	for n, want := range []string{"X.pdf", "X_1.pdf", "X_2.pdf"} {
		if got := p.Candidate(n); got != want {
			t.Fatalf("Candidate(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestBuildPath(t *testing.T) {
	fields := NamingFields{
		Date: "230315", Category: "invoice", Company: "Acme",
		ContentSummary: "Wartung", Year: "2023",
	}
	res := Resolution{
		Folder: "{company}/{year}",
		Naming: "{date}_{category}_{company}_{content_summary}.pdf",
	}
	got, err := BuildPath(res, fields, "out")
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	want := filepath.Join("out", "Acme", "2023", "230315_invoice_Acme_Wartung.pdf")
	if got.Path() != want {
		t.Fatalf("Path() = %q, want %q", got.Path(), want)
	}
}

func TestBuildPathFolderValuesStayOneLevel(t *testing.T) {
	fields := NamingFields{Company: "A/B", Year: "2023", Date: "230315", Category: "invoice", ContentSummary: "x"}
	got, err := BuildPath(Resolution{Folder: "{company}", Naming: "{date}.pdf"}, fields, "out")
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if got.Dir != filepath.Join("out", "A_B") {
		t.Fatalf("Dir = %q", got.Dir)
	}

	fields.Company = ".."
	got, err = BuildPath(Resolution{Folder: "{company}", Naming: "{date}.pdf"}, fields, "out")
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if got.Dir != filepath.Join("out", "_") {
		t.Fatalf("Dir = %q", got.Dir)
	}
}

func TestBuildPathKeepsSpacesInFolderValues(t *testing.T) {
	fields := NamingFields{Company: "Acme Corp", Year: "2023", Date: "230315", Category: "invoice"}
	got, err := BuildPath(Resolution{Folder: "{company}/{year}", Naming: "{date}_{company}.pdf"}, fields, "out")
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if got.Dir != filepath.Join("out", "Acme Corp", "2023") {
		t.Fatalf("Dir = %q, want the company name unchanged", got.Dir)
	}
	if got.Filename != "230315_Acme_Corp.pdf" {
		t.Fatalf("Filename = %q", got.Filename)
	}
}

func TestBuildPathRejectsUnsafeFolders(t *testing.T) {
	fields := NamingFields{Company: "Acme", Year: "2023", Date: "230315"}
	for _, folder := range []string{"/etc/{company}", "../{company}", "a/../../b"} {
		_, err := BuildPath(Resolution{Folder: folder, Naming: "{date}.pdf"}, fields, "out")
		if !errors.Is(err, common.ErrTemplate) {
			t.Fatalf("BuildPath(folder=%q) error = %v, want ErrTemplate", folder, err)
		}
	}
}

func TestBuildPathFolderTemplateOnlyKnowsYearAndCompany(t *testing.T) {
	fields := NamingFields{Company: "Acme", Year: "2023", Date: "230315"}
	_, err := BuildPath(Resolution{Folder: "{date}", Naming: "{date}.pdf"}, fields, "out")
	if !errors.Is(err, common.ErrTemplate) {
		t.Fatalf("error = %v, want ErrTemplate", err)
	}
}

func TestBuildPathAddsExtension(t *testing.T) {
	fields := NamingFields{Date: "230315", Company: "Acme"}
	got, err := BuildPath(Resolution{Naming: "{date}_{company}"}, fields, "out")
	if err != nil {
		t.Fatalf("BuildPath() error = %v", err)
	}
	if got.Filename != "230315_Acme.pdf" || got.Dir != "out" {
		t.Fatalf("unexpected path: %+v", got)
	}
}
