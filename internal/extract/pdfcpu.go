package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// minPrintableRatio rejects text decoded from fonts with custom encodings,
// which comes out as byte soup rather than words.
const minPrintableRatio = 0.7

// PDFCPUBackend walks each page's content stream with pdfcpu and collects
// the strings shown by text operators.
type PDFCPUBackend struct {
	logger *slog.Logger
}

func NewPDFCPUBackend(logger *slog.Logger) *PDFCPUBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUBackend{logger: logger}
}

func (*PDFCPUBackend) Name() string                       { return constants.BackendPDFCPU }
func (*PDFCPUBackend) Method() constants.ExtractionMethod { return constants.MethodNative }
func (*PDFCPUBackend) Available() bool                    { return true }

func (p *PDFCPUBackend) ExtractText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("extract.pdfcpu.close_error", "path", path, "error", cerr)
		}
	}()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			p.logger.Debug("extract.pdfcpu.page_error", "path", path, "page", pageNr, "error", err)
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		txt := strings.TrimSpace(textFromContentStream(data))
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}

	text := b.String()
	if text != "" && printableRatio(text) < minPrintableRatio {
		return "", fmt.Errorf("pdfcpu: decoded text is not readable (printable ratio %.2f)", printableRatio(text))
	}
	return text, nil
}

// textFromContentStream is a small tokenizer over PDF content-stream syntax.
// It keeps string operands until the next operator and emits them for the
// text-showing operators (Tj, TJ, ', ").
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	var operands [][]byte

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		if sb.Len() > 0 {
			last := sb.String()[sb.Len()-1]
			if last != ' ' && last != '\n' {
				sb.WriteByte(' ')
			}
		}
	}
	show := func() {
		for _, o := range operands {
			sb.WriteString(decodeWinAnsi(o))
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteralString(data[i:])
			operands = append(operands, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, n := readHexString(data[i:])
			operands = append(operands, s)
			i += n
		case c == '/':
			i++
			for i < len(data) && isRegularByte(data[i]) {
				i++
			}
		case isRegularByte(c):
			start := i
			for i < len(data) && isRegularByte(data[i]) {
				i++
			}
			tok := string(data[start:i])
			if isNumberToken(tok) {
				continue
			}
			switch tok {
			case "Tj", "TJ":
				show()
			case "'", `"`:
				newline()
				show()
			case "T*", "ET":
				newline()
			case "Td", "TD", "Tm":
				space()
			case "ID":
				i = skipInlineImage(data, i)
			}
			operands = operands[:0]
		default:
			i++
		}
	}
	return sb.String()
}

func isRegularByte(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

func isNumberToken(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) && r != '.' && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

// readLiteralString parses a balanced (...) string starting at data[0] and
// returns its decoded bytes plus the number of input bytes consumed.
func readLiteralString(data []byte) ([]byte, int) {
	var out []byte
	depth := 0
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			e := data[i]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if i+1 < len(data) && data[i+1] == '\n' {
					i++
				}
			case '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(data[i]-'0')
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
			i++
		case c == '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return out, i
			}
			out = append(out, c)
		default:
			out = append(out, c)
			i++
		}
	}
	return out, i
}

func readHexString(data []byte) ([]byte, int) {
	var out []byte
	var hi byte
	half := false
	i := 1
	for ; i < len(data) && data[i] != '>'; i++ {
		v, ok := hexVal(data[i])
		if !ok {
			continue
		}
		if !half {
			hi, half = v, true
			continue
		}
		out = append(out, hi<<4|v)
		half = false
	}
	if half {
		out = append(out, hi<<4)
	}
	if i < len(data) {
		i++
	}
	return out, i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage moves past binary inline image data up to the EI operator.
func skipInlineImage(data []byte, i int) int {
	for ; i+1 < len(data); i++ {
		if data[i] == 'E' && data[i+1] == 'I' && isWhite(data[i-1]) && (i+2 >= len(data) || isWhite(data[i+2])) {
			return i + 2
		}
	}
	return len(data)
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func decodeWinAnsi(b []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// printableRatio is the share of letters, digits, punctuation and spaces in s.
func printableRatio(s string) float64 {
	var total, good int
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}
