package organizer

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// LabelSet is the set of labels that survived threshold filtering.
type LabelSet map[string]struct{}

// NewLabelSet builds a set from label names, trimming whitespace and
// dropping empty names.
func NewLabelSet(labels ...string) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			s[l] = struct{}{}
		}
	}
	return s
}

func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Sorted returns the labels alphabetically, for logs and reports.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// FilterLabels keeps labels whose confidence is at least threshold.
func FilterLabels(labels map[string]float64, threshold float64) LabelSet {
	out := make(LabelSet, len(labels))
	for name, conf := range labels {
		name = strings.TrimSpace(name)
		if name == "" || conf < threshold {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

// NamingFields are the values templates are rendered with.
type NamingFields struct {
	Date           string
	Category       string
	Company        string
	ContentSummary string
	Year           string

	// DateFallback is set when the processing time replaced a missing or
	// unparseable document date.
	DateFallback bool
}

// FolderValues returns the placeholders a folder template may use.
func (f NamingFields) FolderValues() map[string]string {
	return map[string]string{
		"year":    f.Year,
		"company": f.Company,
	}
}

// NameValues returns the placeholders a naming template may use.
func (f NamingFields) NameValues() map[string]string {
	return map[string]string{
		"date":            f.Date,
		"category":        f.Category,
		"company":         f.Company,
		"content_summary": f.ContentSummary,
	}
}

type dateMatcher struct {
	name   string
	layout string
}

// Single-digit days and months are accepted, matching strptime.
var dateMatchers = []dateMatcher{
	{name: "DD.MM.YYYY", layout: "2.1.2006"},
	{name: "YYYY-MM-DD", layout: "2006-1-2"},
}

// Normalizer turns raw classifier output into NamingFields.
type Normalizer struct {
	dateFormat string
	threshold  float64
	now        func() time.Time
	logger     *slog.Logger
}

// NormalizerOption customizes a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock replaces time.Now; the date fallback uses it.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

func NewNormalizer(dateFormat string, threshold float64, logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	if dateFormat == "" {
		dateFormat = constants.DefaultDateFormat
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{dateFormat: dateFormat, threshold: threshold, now: time.Now, logger: logger}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Labels filters the classifier's label confidences by the threshold.
func (n *Normalizer) Labels(c *entity.Classification) LabelSet {
	if c == nil {
		return LabelSet{}
	}
	return FilterLabels(c.Labels, n.threshold)
}

// ParseDate tries each matcher in order. When none matches it returns the
// current time and false.
func (n *Normalizer) ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, m := range dateMatchers {
			if t, err := time.Parse(m.layout, raw); err == nil {
				return t, true
			}
		}
	}
	return n.now(), false
}

// FormatDate renders t with the configured strftime format.
func (n *Normalizer) FormatDate(t time.Time) string {
	return strftime.Format(n.dateFormat, t)
}

// Normalize never fails: missing values get placeholders and an unusable
// date becomes the processing date.
func (n *Normalizer) Normalize(c *entity.Classification) NamingFields {
	if c == nil {
		c = &entity.Classification{}
	}
	t, ok := n.ParseDate(c.Date)
	if ok {
		n.logger.Debug("organizer.date.parsed", "raw_date", c.Date, "date", t.Format(time.DateOnly))
	} else {
		reason := "unparseable"
		if strings.TrimSpace(c.Date) == "" {
			reason = "missing"
		}
		n.logger.Warn("organizer.date.fallback",
			"raw_date", c.Date,
			"reason", reason,
			"used", t.Format(time.DateOnly),
		)
	}

	company := strings.TrimSpace(c.Company)
	if company == "" {
		company = constants.UnknownCompany
	}
	summary := strings.TrimSpace(c.ContentSummary)
	if summary == "" {
		summary = constants.OtherContentSummary
	}

	return NamingFields{
		Date:           n.FormatDate(t),
		Category:       constants.Category(c.DocumentType),
		Company:        company,
		ContentSummary: summary,
		Year:           strftime.Format("%Y", t),
		DateFallback:   !ok,
	}
}
