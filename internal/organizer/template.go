package organizer

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// Render substitutes {name} placeholders from values. "{{" and "}}" produce
// literal braces. An unknown placeholder or a stray brace is a template error.
func Render(tmpl string, values map[string]string) (string, error) {
	return render(tmpl, values, nil)
}

// render applies transform, when set, to every substituted value.
func render(tmpl string, values map[string]string, transform func(string) string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", common.TemplateError(fmt.Sprintf("unclosed '{' in template %q", tmpl), nil)
			}
			name := tmpl[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{") {
				return "", common.TemplateError(fmt.Sprintf("malformed placeholder in template %q", tmpl), nil)
			}
			v, ok := values[name]
			if !ok {
				return "", common.TemplateError(fmt.Sprintf("unknown placeholder {%s} in template %q", name, tmpl), nil)
			}
			if transform != nil {
				v = transform(v)
			}
			b.WriteString(v)
			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", common.TemplateError(fmt.Sprintf("single '}' in template %q", tmpl), nil)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}
