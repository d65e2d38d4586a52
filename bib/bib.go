// Package bib parses BibTeX citation databases and resolves \citep markers
// in narrative text into formatted inline citations.
package bib

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Author is a single author of a bibliography entry.
type Author struct {
	// Full is the author name as written in the database.
	Full string
	// Surname is the family name, extracted from "Surname, Given" form or
	// taken as the last whitespace-separated token otherwise.
	Surname string
}

// Entry is one parsed bibliography entry. Entries are immutable once parsed.
type Entry struct {
	Key     string
	Type    string
	Authors []Author
	Year    string
	Fields  map[string]string
}

// Bibliography is an indexed, immutable collection of entries.
type Bibliography struct {
	entries map[string]Entry
	keys    []string
}

// Parse reads a BibTeX file and builds an indexed bibliography.
// A malformed database yields a *ParseError.
func Parse(path string) (*Bibliography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bibliography: %w", err)
	}
	return parseBibTeX(path, string(data))
}

// Entry returns the entry for a citation key.
func (b *Bibliography) Entry(key string) (Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Keys returns all citation keys in ascending lexicographic order.
func (b *Bibliography) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of entries.
func (b *Bibliography) Len() int { return len(b.keys) }

func parseBibTeX(path, src string) (*Bibliography, error) {
	p := &parser{path: path, src: src, line: 1}
	entries := make(map[string]Entry)
	var keys []string

	for {
		if !p.seekEntry() {
			break
		}
		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			// @comment, @preamble or @string: skipped.
			continue
		}
		if _, dup := entries[entry.Key]; dup {
			return nil, p.errorf("duplicate citation key %q", entry.Key)
		}
		entries[entry.Key] = *entry
		keys = append(keys, entry.Key)
	}

	sort.Strings(keys)
	return &Bibliography{entries: entries, keys: keys}, nil
}

// parser is a single-pass scanner over BibTeX source. Text between entries
// is ignored, matching the common convention of free comments outside @.
type parser struct {
	path string
	src  string
	pos  int
	line int
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Path: p.path, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() byte {
	c := p.src[p.pos]
	if c == '\n' {
		p.line++
	}
	p.pos++
	return c
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// seekEntry advances to the next '@', returning false at end of input.
func (p *parser) seekEntry() bool {
	for !p.eof() {
		if p.src[p.pos] == '@' {
			p.next()
			return true
		}
		p.next()
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return
		}
		p.next()
	}
}

func (p *parser) readName() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '{' || c == '(' || c == ',' || c == '}' || c == '=' ||
			c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			break
		}
		p.next()
	}
	return p.src[start:p.pos]
}

// parseEntry parses one @type{key, field = value, ...} block. The '@' has
// already been consumed. Returns nil for non-citation blocks.
func (p *parser) parseEntry() (*Entry, error) {
	entryType := strings.ToLower(p.readName())
	if entryType == "" {
		return nil, p.errorf("missing entry type after '@'")
	}

	p.skipSpace()
	if p.eof() || p.src[p.pos] != '{' {
		return nil, p.errorf("expected '{' after @%s", entryType)
	}
	p.next()

	switch entryType {
	case "comment", "preamble", "string":
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	p.skipSpace()
	key := p.readName()
	if key == "" {
		return nil, p.errorf("missing citation key in @%s entry", entryType)
	}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unterminated @%s entry %q", entryType, key)
	}
	if p.src[p.pos] == ',' {
		p.next()
	}

	fields := make(map[string]string)
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated @%s entry %q", entryType, key)
		}
		if p.src[p.pos] == '}' {
			p.next()
			break
		}
		name := strings.ToLower(p.readName())
		if name == "" {
			return nil, p.errorf("malformed field in entry %q", key)
		}
		p.skipSpace()
		if p.eof() || p.src[p.pos] != '=' {
			return nil, p.errorf("expected '=' after field %q in entry %q", name, key)
		}
		p.next()
		value, err := p.readValue(key)
		if err != nil {
			return nil, err
		}
		fields[name] = value
		p.skipSpace()
		if !p.eof() && p.src[p.pos] == ',' {
			p.next()
		}
	}

	entry := &Entry{
		Key:     key,
		Type:    entryType,
		Authors: parseAuthors(fields["author"]),
		Year:    fields["year"],
		Fields:  fields,
	}
	return entry, nil
}

// readValue reads a brace-delimited, quote-delimited or bare field value.
func (p *parser) readValue(key string) (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("missing field value in entry %q", key)
	}
	switch p.src[p.pos] {
	case '{':
		p.next()
		return p.readBraced(key)
	case '"':
		p.next()
		start := p.pos
		for !p.eof() {
			if p.src[p.pos] == '"' {
				v := p.src[start:p.pos]
				p.next()
				return cleanValue(v), nil
			}
			p.next()
		}
		return "", p.errorf("unterminated quoted value in entry %q", key)
	default:
		start := p.pos
		for !p.eof() {
			c := p.src[p.pos]
			if c == ',' || c == '}' || c == '\n' {
				break
			}
			p.next()
		}
		return cleanValue(p.src[start:p.pos]), nil
	}
}

// readBraced consumes a value up to the matching close brace. The opening
// brace has already been consumed.
func (p *parser) readBraced(key string) (string, error) {
	depth := 1
	start := p.pos
	for !p.eof() {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				v := p.src[start:p.pos]
				p.next()
				return cleanValue(v), nil
			}
		}
		p.next()
	}
	return "", p.errorf("unterminated braced value in entry %q", key)
}

// skipBalanced consumes the remainder of a block whose opening brace has
// already been consumed.
func (p *parser) skipBalanced() error {
	depth := 1
	for !p.eof() {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.next()
				return nil
			}
		}
		p.next()
	}
	return p.errorf("unterminated block")
}

// cleanValue strips inner braces and collapses whitespace runs.
func cleanValue(v string) string {
	v = strings.ReplaceAll(v, "{", "")
	v = strings.ReplaceAll(v, "}", "")
	return strings.Join(strings.Fields(v), " ")
}

// parseAuthors splits a BibTeX author field on " and " separators.
func parseAuthors(field string) []Author {
	if field == "" {
		return nil
	}
	parts := strings.Split(field, " and ")
	authors := make([]Author, 0, len(parts))
	for _, part := range parts {
		full := strings.TrimSpace(part)
		if full == "" {
			continue
		}
		authors = append(authors, Author{Full: full, Surname: surname(full)})
	}
	return authors
}

// surname extracts the family name from "Surname, Given" or "Given Surname".
func surname(full string) string {
	if idx := strings.Index(full, ","); idx >= 0 {
		return strings.TrimSpace(full[:idx])
	}
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	return fields[len(fields)-1]
}
