package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrNullValue is returned when an edit stores a nil value, which TOML
// cannot represent.
var ErrNullValue = errors.New("toml has no null value")

// Bytes renders the document. Untouched lines are written back byte for
// byte, including a byte order mark the source started with. The result is
// validated before it is returned.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, sec := range d.sections {
		if err := d.renderSection(&buf, sec); err != nil {
			return nil, err
		}
	}
	out := buf.Bytes()
	if err := validate(out); err != nil {
		return nil, fmt.Errorf("rendered document is invalid: %w", err)
	}
	if d.bom {
		out = append(append([]byte(nil), utf8BOM...), out...)
	}
	return out, nil
}

func (d *Document) renderSection(buf *bytes.Buffer, sec *section) error {
	if sec.deleted {
		// Trivia after the last statement usually describes what follows.
		last := -1
		for i, it := range sec.items {
			if it.stmt != nil {
				last = i
			}
		}
		for _, it := range sec.items[last+1:] {
			d.write(buf, it.raw)
		}
		return nil
	}

	switch {
	case sec.fresh:
		if buf.Len() > 0 {
			d.endLine(buf)
			buf.WriteString(d.eol)
		}
		buf.WriteString("[" + formatKey(sec.path) + "]" + d.eol)
	case sec.header != nil:
		d.write(buf, sec.header)
	}

	for _, it := range sec.items {
		st := it.stmt
		switch {
		case st == nil:
			d.write(buf, it.raw)
		case st.deleted:
		case !st.dirty:
			d.write(buf, it.raw)
		default:
			line, err := st.render()
			if err != nil {
				return err
			}
			d.write(buf, []byte(line))
		}
	}
	return nil
}

// write appends b on a fresh line.
func (d *Document) write(buf *bytes.Buffer, b []byte) {
	if len(b) == 0 {
		return
	}
	d.endLine(buf)
	buf.Write(b)
}

func (d *Document) endLine(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] != '\n' {
		buf.WriteString(d.eol)
	}
}

func (st *statement) render() (string, error) {
	e, ok := st.owner.entries[st.name]
	if !ok {
		return "", nil
	}
	v, err := encodeValue(e.value)
	if err != nil {
		path := append(append([]string(nil), st.owner.path...), st.name)
		return "", fmt.Errorf("encode %s: %w", formatKey(path), err)
	}
	return st.indent + st.rawKey + st.sep + v + st.suffix + st.eol, nil
}

// encodeValue renders v as an inline TOML value.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", ErrNullValue
	case *Table:
		return encodeInlineTable(x.keys, func(k string) any { return x.entries[k].value })
	case tableArray:
		parts := make([]any, len(x))
		for i, el := range x {
			parts[i] = el
		}
		return encodeArray(parts)
	case map[string]any:
		return encodeInlineTable(sortedKeys(x), func(k string) any { return x[k] })
	case []any:
		return encodeArray(x)
	case string:
		return quoteBasic(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", fmt.Errorf("invalid number %q", x)
		}
		return encodeScalar(f)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]any, rv.Len())
		for i := range parts {
			parts[i] = rv.Index(i).Interface()
		}
		return encodeArray(parts)
	}
	return encodeScalar(v)
}

func encodeInlineTable(keys []string, get func(string) any) (string, error) {
	if len(keys) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := encodeValue(get(k))
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		parts = append(parts, formatKeyPart(k)+" = "+v)
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

func encodeArray(items []any) (string, error) {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		v, err := encodeValue(it)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// encodeScalar lets go-toml/v2 encode floats, dates and times.
func encodeScalar(v any) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]any{"v": v}); err != nil {
		return "", err
	}
	out, ok := strings.CutPrefix(strings.TrimSpace(buf.String()), "v = ")
	if !ok {
		return "", fmt.Errorf("cannot encode %T as a toml value", v)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the table as a JSON object in file key order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(jsonValue(t.entries[k].value))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue maps TOML values JSON cannot carry to strings.
func jsonValue(v any) any {
	switch x := v.(type) {
	case tableArray:
		out := make([]*Table, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonValue(e)
		}
		return out
	case float64:
		switch {
		case math.IsNaN(x):
			return "nan"
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
	}
	return v
}
