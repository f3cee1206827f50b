package merge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned by DecodeJSON when the body is valid JSON but not
// an object.
var ErrNotObject = errors.New("patch must be a JSON object")

// DecodeJSON reads a JSON object patch from r, keeping the key order of
// every object. Numbers are normalized with Normalize so integers stay
// integers when written back to TOML.
func DecodeJSON(r io.Reader) (*Object, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	raw, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode patch: trailing data after JSON object")
	}

	obj, ok := raw.(*Object)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// DecodeJSONBytes is DecodeJSON over a byte slice.
func DecodeJSONBytes(b []byte) (*Object, error) {
	return DecodeJSON(bytes.NewReader(b))
}

// decodeValue reads one value token by token. Objects become *Object.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil

		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)

	case json.Number:
		return Normalize(t), nil
	}
	return tok, nil
}

// Normalize converts json.Number values to int64 when integral and float64
// otherwise, descending into maps and slices.
func Normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = Normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = Normalize(e)
		}
		return x
	default:
		return v
	}
}
