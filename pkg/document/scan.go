package document

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type chunkKind int

const (
	chunkTrivia chunkKind = iota // blank or comment-only line
	chunkTable                   // [table]
	chunkArrayTable              // [[table]]
	chunkKeyValue                // key = value
)

// chunk is one logical line of the source. Chunks tile the input: every byte
// belongs to exactly one chunk, so concatenating them reproduces the file.
type chunk struct {
	kind       chunkKind
	start, end int // whole chunk, end includes the line terminator
	keyStart   int
	keyEnd     int
	valStart   int
	valEnd     int // value end with trailing blanks removed
	textEnd    int // end of line content, before the terminator
}

// scan splits src into chunks. src must already be valid TOML; scan only
// finds statement boundaries and does not re-validate values.
func scan(src []byte) ([]chunk, error) {
	var out []chunk
	for i := 0; i < len(src); {
		c := chunk{start: i}
		j := skipBlank(src, i)

		switch {
		case j >= len(src) || src[j] == '\n' || src[j] == '\r' || src[j] == '#':
			c.kind = chunkTrivia
			c.textEnd, c.end = lineEnd(src, j)

		case src[j] == '[':
			c.kind = chunkTable
			k := j + 1
			if k < len(src) && src[k] == '[' {
				c.kind = chunkArrayTable
				k++
			}
			closing, err := scanKeyUntil(src, k, ']')
			if err != nil {
				return nil, err
			}
			c.keyStart, c.keyEnd = k, closing
			after := closing + 1
			if c.kind == chunkArrayTable {
				after++
			}
			c.textEnd, c.end = lineEnd(src, after)

		default:
			c.kind = chunkKeyValue
			eq, err := scanKeyUntil(src, j, '=')
			if err != nil {
				return nil, err
			}
			c.keyStart, c.keyEnd = j, eq
			c.valStart = skipBlank(src, eq+1)
			c.valEnd = scanValue(src, c.valStart)
			for c.valEnd > c.valStart && isBlank(src[c.valEnd-1]) {
				c.valEnd--
			}
			c.textEnd, c.end = lineEnd(src, c.valEnd)
		}

		out = append(out, c)
		i = c.end
	}
	return out, nil
}

// lineEnd returns the end of the line content starting the search at i and
// the index just past the line terminator.
func lineEnd(src []byte, i int) (text, end int) {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	if i >= len(src) {
		return len(src), len(src)
	}
	text = i
	if text > 0 && src[text-1] == '\r' {
		text--
	}
	return text, i + 1
}

// scanKeyUntil returns the index of stop outside of quoted key parts.
func scanKeyUntil(src []byte, i int, stop byte) (int, error) {
	for i < len(src) {
		switch c := src[i]; {
		case c == stop:
			return i, nil
		case c == '"' || c == '\'':
			i = skipString(src, i)
		case c == '\n':
			return 0, fmt.Errorf("unterminated key at offset %d", i)
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated key at offset %d", i)
}

// scanValue returns the offset where the value starting at i ends: the first
// newline or comment outside of strings and brackets.
func scanValue(src []byte, i int) int {
	depth := 0
	for i < len(src) {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			i = skipString(src, i)
		case c == '[' || c == '{':
			depth++
			i++
		case c == ']' || c == '}':
			depth--
			i++
		case c == '#':
			if depth == 0 {
				return i
			}
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '\n' || c == '\r':
			if depth == 0 {
				return i
			}
			i++
		default:
			i++
		}
	}
	return i
}

// skipString returns the index just past the string literal starting at i.
// It handles basic, literal and both multi-line forms.
func skipString(src []byte, i int) int {
	q := src[i]
	escapes := q == '"'

	if i+2 < len(src) && src[i+1] == q && src[i+2] == q {
		j := i + 3
		for j < len(src) {
			if escapes && src[j] == '\\' {
				j += 2
				continue
			}
			if src[j] == q && j+2 < len(src) && src[j+1] == q && src[j+2] == q {
				end := j + 3
				// Up to two quotes may sit directly before the closing delimiter.
				for n := 0; n < 2 && end < len(src) && src[end] == q; n++ {
					end++
				}
				return end
			}
			j++
		}
		return len(src)
	}

	for j := i + 1; j < len(src); j++ {
		if escapes && src[j] == '\\' {
			j++
			continue
		}
		if src[j] == q {
			return j + 1
		}
	}
	return len(src)
}

func skipBlank(src []byte, i int) int {
	for i < len(src) && isBlank(src[i]) {
		i++
	}
	return i
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// parseKey splits a possibly dotted, possibly quoted key into its parts.
func parseKey(s string) ([]string, error) {
	var parts []string
	i := 0
	for {
		for i < len(s) && isBlank(s[i]) {
			i++
		}
		if i >= len(s) {
			return nil, fmt.Errorf("empty key in %q", s)
		}

		switch s[i] {
		case '"':
			end := skipString([]byte(s), i)
			part, err := unquoteBasic(s[i:end])
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
			i = end
		case '\'':
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated key in %q", s)
			}
			parts = append(parts, s[i+1:i+1+end])
			i += end + 2
		default:
			j := i
			for j < len(s) && isBareKeyChar(s[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("invalid key %q", s)
			}
			parts = append(parts, s[i:j])
			i = j
		}

		for i < len(s) && isBlank(s[i]) {
			i++
		}
		if i >= len(s) {
			return parts, nil
		}
		if s[i] != '.' {
			return nil, fmt.Errorf("invalid key %q", s)
		}
		i++
	}
}

// unquoteBasic decodes a basic-string key part with TOML's escape rules.
func unquoteBasic(quoted string) (string, error) {
	var m map[string]string
	if err := toml.Unmarshal([]byte("k = "+quoted), &m); err != nil {
		return "", fmt.Errorf("decode quoted key %s: %w", quoted, err)
	}
	return m["k"], nil
}

// formatKey renders key parts, quoting those that are not bare.
func formatKey(parts []string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = formatKeyPart(p)
	}
	return strings.Join(out, ".")
}

func formatKeyPart(p string) string {
	if p == "" {
		return `""`
	}
	for i := 0; i < len(p); i++ {
		if !isBareKeyChar(p[i]) {
			return quoteBasic(p)
		}
	}
	return p
}

// quoteBasic renders s as a TOML basic string.
func quoteBasic(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
