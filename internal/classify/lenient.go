package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

var reFencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

var errNoJSON = errors.New("response contains no JSON object")

var stringFields = []string{"document_type", "date", "company", "content_summary"}

// ExtractJSONBlock finds the JSON object in a model reply: the first fenced
// ```json block, else the first balanced {...} in the text.
func ExtractJSONBlock(raw string) ([]byte, error) {
	if m := reFencedJSON.FindStringSubmatch(raw); m != nil {
		return []byte(m[1]), nil
	}
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, errNoJSON
	}
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	var obj json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoJSON, err)
	}
	return bytes.TrimSpace(obj), nil
}

// CoerceFields normalizes a decoded reply in place so it can pass the schema.
// Nulls and blank strings are dropped, numbers in text fields become strings,
// and label confidences are parsed from strings and clamped to [0,1].
// It returns the keys it had to drop or rewrite.
func CoerceFields(m map[string]any) []string {
	var changed []string
	for _, k := range stringFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			changed = append(changed, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
				delete(m, k)
				changed = append(changed, k+"(empty)")
			} else {
				m[k] = s
			}
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
			changed = append(changed, k+"(number)")
		default:
			delete(m, k)
			changed = append(changed, k+"(type)")
		}
	}

	raw, ok := m["labels"]
	if !ok {
		return changed
	}
	labels, isMap := raw.(map[string]any)
	if !isMap {
		delete(m, "labels")
		return append(changed, "labels(type)")
	}
	for name, v := range labels {
		conf, ok := toConfidence(v)
		if !ok || strings.TrimSpace(name) == "" {
			delete(labels, name)
			changed = append(changed, "labels."+name)
			continue
		}
		if c := clamp01(conf); c != conf {
			changed = append(changed, "labels."+name+"(clamped)")
			conf = c
		}
		labels[name] = conf
	}
	return changed
}

func toConfidence(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		if strings.HasSuffix(strings.TrimSpace(t), "%") {
			f /= 100
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// toClassification converts a coerced, validated document.
func toClassification(m map[string]any) *entity.Classification {
	c := &entity.Classification{Labels: map[string]float64{}}
	c.DocumentType, _ = m["document_type"].(string)
	c.Date, _ = m["date"].(string)
	c.Company, _ = m["company"].(string)
	c.ContentSummary, _ = m["content_summary"].(string)
	if labels, ok := m["labels"].(map[string]any); ok {
		for name, v := range labels {
			if f, ok := v.(float64); ok {
				c.Labels[strings.TrimSpace(name)] = f
			}
		}
	}
	return c
}
