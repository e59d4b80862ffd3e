package extractor

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pageFileRegex = regexp.MustCompile(`_page_(\d+)`)

// pdfText extracts the text of the first maxPages pages. pdfcpu dumps each
// page's content stream to a file; the text-showing operators are decoded
// from those streams.
func (e *HTTPExtractor) pdfText(content []byte) (string, error) {
	dir, err := os.MkdirTemp("", "daily-brief-pdf-")
	if err != nil {
		return "", fmt.Errorf("extractor: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inFile := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(inFile, content, 0o600); err != nil {
		return "", fmt.Errorf("extractor: write temp pdf: %w", err)
	}

	outDir := filepath.Join(dir, "pages")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("extractor: create pages dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	selected := []string{fmt.Sprintf("1-%d", e.maxPages)}
	if err := api.ExtractContentFile(inFile, outDir, selected, conf); err != nil {
		return "", fmt.Errorf("extractor: extract pdf content: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("extractor: read pages dir: %w", err)
	}

	pages := make(map[int]string)
	for _, f := range files {
		m := pageFileRegex.FindStringSubmatch(f.Name())
		if f.IsDir() || len(m) != 2 {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		stream, err := os.ReadFile(filepath.Join(outDir, f.Name()))
		if err != nil {
			continue
		}
		pages[n] += contentText(string(stream))
	}

	nums := make([]int, 0, len(pages))
	for n := range pages {
		if n <= e.maxPages {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pages[n])
	}
	return b.String(), nil
}

// contentText decodes the strings shown by Tj, TJ, ' and " operators in a
// page content stream. Line moves become newlines; wide negative kerning in
// TJ arrays becomes a space.
func contentText(stream string) string {
	var (
		out      strings.Builder
		pending  strings.Builder
		operands []string
	)

	newline := func() {
		s := out.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			out.WriteByte('\n')
		}
	}
	flush := func() {
		out.WriteString(pending.String())
		pending.Reset()
	}

	inArray := false
	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteral(stream, i)
			pending.WriteString(s)
			i = next
		case c == '<' && i+1 < len(stream) && stream[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(stream) && stream[i+1] == '>':
			i += 2
		case c == '<':
			end := strings.IndexByte(stream[i:], '>')
			if end < 0 {
				i = len(stream)
				break
			}
			pending.WriteString(decodeHex(stream[i+1 : i+end]))
			i += end + 1
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case isSpace(c):
			i++
		default:
			start := i
			for i < len(stream) && !isSpace(stream[i]) && !isDelimiter(stream[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			tok := stream[start:i]
			if isNumber(tok) {
				if inArray {
					if v, err := strconv.ParseFloat(tok, 64); err == nil && v < -200 {
						pending.WriteByte(' ')
					}
				} else {
					operands = append(operands, tok)
				}
				continue
			}
			switch tok {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				newline()
				flush()
			case "T*", "ET":
				newline()
			case "Td", "TD":
				if len(operands) >= 2 && operands[len(operands)-1] != "0" {
					newline()
				} else {
					out.WriteByte(' ')
				}
			}
			pending.Reset()
			operands = operands[:0]
		}
	}
	return out.String()
}

// readLiteral reads a balanced literal string starting at stream[start]=='('
// and returns its decoded value and the index after the closing paren.
func readLiteral(stream string, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '\\':
			i++
			if i >= len(stream) {
				return b.String(), i
			}
			e := stream[i]
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					j := i
					for j < len(stream) && j < i+3 && stream[j] >= '0' && stream[j] <= '7' {
						j++
					}
					v, _ := strconv.ParseUint(stream[i:j], 8, 8)
					writePrintable(&b, byte(v))
					i = j
					continue
				}
				b.WriteByte(e)
			}
			i++
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return b.String(), i
			}
			b.WriteByte(c)
		default:
			writePrintable(&b, c)
			i++
		}
	}
	return b.String(), i
}

func decodeHex(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if len(s)%2 == 1 {
		s += "0"
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range raw {
		writePrintable(&b, c)
	}
	return b.String()
}

// writePrintable writes c as a Latin-1 rune, dropping control bytes.
func writePrintable(b *strings.Builder, c byte) {
	if c < 0x20 && c != '\n' && c != '\t' {
		return
	}
	b.WriteRune(rune(c))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isNumber(tok string) bool {
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}
