package classify

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars caps the document text sent to the model.
const DefaultMaxChars = 8000

var summaryLanguages = map[string]string{
	"de": "German",
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"nl": "Dutch",
}

// BuildPrompt composes the single generate prompt: the fields to extract with
// examples, then the document text, then the output format instruction.
func BuildPrompt(in PromptInput) string {
	lang := summaryLanguages[strings.ToLower(strings.TrimSpace(in.Language))]
	if lang == "" {
		lang = "German"
	}

	var b strings.Builder
	b.WriteString("Given the following document text, extract these fields as JSON:\n")
	b.WriteString("- document_type: one of " + quoteList(in.DocumentTypes) + "\n")
	b.WriteString("- date: the most likely date in the document (format: DD.MM.YYYY or similar). ")
	b.WriteString("Examples: für Oktober 2022 -> 01.10.2022, Abnahme 09.02.2024 -> 09.02.2024, München den 07.06.2021 -> 07.06.2021\n")
	b.WriteString("- company: the company or sender of the document (e.g., Amazon, BMW Group, Cariad, Tchibo, ...)\n")
	b.WriteString("- content_summary: a short, human-readable summary in " + lang +
		" (max 3 words) describing the main topic or item of the document, e.g., iPhone purchase, tax return, salary statement\n")
	b.WriteString("- labels: zero or more of these: " + quoteList(in.Labels) + ". For each, provide a confidence between 0 and 1.\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("  document_type: ...\n")
	b.WriteString("  date: ...\n")
	b.WriteString("  company: ...\n")
	b.WriteString("  content_summary: ...\n")
	b.WriteString("  labels: an object of label: confidence (0-1)\n")
	b.WriteString("Document text:\n")
	b.WriteString(capText(in.Text, in.MaxChars))
	b.WriteString("\nRespond with only the JSON object, wrapped in a markdown code block.")
	return b.String()
}

func quoteList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	q := make([]string, 0, len(items))
	for _, it := range items {
		q = append(q, "'"+it+"'")
	}
	return "[" + strings.Join(q, ", ") + "]"
}

// capText keeps at most max runes of s.
func capText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		max = DefaultMaxChars
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "\n...(truncated)"
}
