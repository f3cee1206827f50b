// Package document loads and saves TOML configuration files as ordered trees
// that remember their source text.
//
// Parse keeps every comment, blank line and untouched statement; Bytes
// writes them back unchanged and only re-encodes the statements whose values
// were edited. Values are decoded and encoded with go-toml/v2. A *Table is a
// merge.Tree, so JSON patches can be merged straight into a parsed file.
package document

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// SyntaxError reports a malformed TOML document.
type SyntaxError struct {
	Line   int
	Column int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("toml syntax error at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// utf8BOM is written by some Windows editors at the start of a file.
var utf8BOM = []byte("\xef\xbb\xbf")

// Document is a parsed TOML file.
type Document struct {
	bom      bool
	eol      string
	root     *Table
	sections []*section
}

// section is a [header] line and the lines that follow it up to the next
// header. The first section of a file has no header.
type section struct {
	header  []byte
	fresh   bool     // created by an edit; header is rendered from path
	path    []string // table path of a fresh section
	items   []*item
	deleted bool
}

// item is a trivia line or a statement inside a section.
type item struct {
	raw  []byte
	stmt *statement
}

// statement is a key = value line. owner.entries[name] holds its value.
type statement struct {
	indent  string
	rawKey  string
	sep     string // text between key and value, "=" with its blanks
	suffix  string // blanks and comment after the value
	eol     string
	owner   *Table
	name    string
	dirty   bool
	deleted bool
}

// Empty returns a document with no content.
func Empty() *Document {
	d := &Document{eol: "\n"}
	d.root = newRoot(d)
	return d
}

// Parse parses src. The whole input is validated by go-toml/v2 first, so
// malformed files are reported as *SyntaxError with the library's position.
// A leading UTF-8 byte order mark is skipped and written back by Bytes.
func Parse(src []byte) (*Document, error) {
	bom := bytes.HasPrefix(src, utf8BOM)
	src = bytes.TrimPrefix(src, utf8BOM)

	if err := validate(src); err != nil {
		return nil, err
	}
	chunks, err := scan(src)
	if err != nil {
		return nil, fmt.Errorf("scan toml: %w", err)
	}

	d := Empty()
	d.bom = bom
	d.eol = detectEOL(src)

	sec := d.root.section
	current := d.root
	for _, c := range chunks {
		raw := src[c.start:c.end]
		switch c.kind {
		case chunkTrivia:
			sec.items = append(sec.items, &item{raw: raw})

		case chunkTable, chunkArrayTable:
			keys, err := parseKey(string(src[c.keyStart:c.keyEnd]))
			if err != nil {
				return nil, err
			}
			sec = &section{header: raw}
			d.sections = append(d.sections, sec)
			current = d.root.openHeader(keys, sec, c.kind == chunkArrayTable)

		case chunkKeyValue:
			rawKey := bytes.TrimSpace(src[c.keyStart:c.keyEnd])
			keys, err := parseKey(string(rawKey))
			if err != nil {
				return nil, err
			}
			value, err := decodeStatement(src[c.keyStart:c.valEnd], keys)
			if err != nil {
				return nil, err
			}
			st := &statement{
				indent: string(src[c.start:c.keyStart]),
				rawKey: string(rawKey),
				sep:    string(src[c.keyStart+len(rawKey) : c.valStart]),
				suffix: string(src[c.valEnd:c.textEnd]),
				eol:    string(src[c.textEnd:c.end]),
			}
			sec.items = append(sec.items, &item{raw: raw, stmt: st})
			current.define(keys, st, value, sec)
		}
	}
	return d, nil
}

// Root returns the top-level table.
func (d *Document) Root() *Table {
	return d.root
}

// Map returns the document as plain Go values, like toml.Unmarshal would.
func (d *Document) Map() map[string]any {
	return d.root.Map()
}

// MarshalJSON encodes the document as a JSON object in file key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.root.MarshalJSON()
}

func (d *Document) appendSection(path []string) *section {
	sec := &section{fresh: true, path: append([]string(nil), path...)}
	d.sections = append(d.sections, sec)
	return sec
}

func validate(src []byte) error {
	var v map[string]any
	if err := toml.Unmarshal(src, &v); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return &SyntaxError{Line: row, Column: col, Err: err}
		}
		return fmt.Errorf("parse toml: %w", err)
	}
	return nil
}

// decodeStatement decodes a single key = value statement and returns the
// value at keys.
func decodeStatement(text []byte, keys []string) (any, error) {
	var m map[string]any
	if err := toml.Unmarshal(text, &m); err != nil {
		return nil, fmt.Errorf("decode %q: %w", text, err)
	}
	var v any = m
	for _, k := range keys {
		mm, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode %q: key %s is not a table", text, k)
		}
		v = mm[k]
	}
	return v, nil
}

func detectEOL(src []byte) string {
	if i := bytes.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
