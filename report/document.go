package report

import (
	"errors"
	"fmt"
	"html/template"
	"os"
)

// ErrAlreadyWritten is returned when a document is asked to write twice.
var ErrAlreadyWritten = errors.New("report document already written")

// Section is one named slot of the report in composition order. Disabled
// sections are carried (so ordering stays fixed) but never rendered.
type Section struct {
	Name     string
	Enabled  bool
	Fragment template.HTML
}

// Document is the ordered sequence of report sections. It is assembled
// bottom-up in a single pass, written exactly once, and immutable after the
// write: there are no incremental or partial writes.
type Document struct {
	sections []Section
	written  bool
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Append adds a section. Appending after the write is a programming error.
func (d *Document) Append(name string, enabled bool, fragment template.HTML) error {
	if d.written {
		return fmt.Errorf("append section %q: %w", name, ErrAlreadyWritten)
	}
	d.sections = append(d.sections, Section{Name: name, Enabled: enabled, Fragment: fragment})
	return nil
}

// Sections returns the sections in composition order.
func (d *Document) Sections() []Section {
	out := make([]Section, len(d.sections))
	copy(out, d.sections)
	return out
}

// Body concatenates the enabled section fragments in order.
func (d *Document) Body() template.HTML {
	var body template.HTML
	for _, section := range d.sections {
		if section.Enabled {
			body += section.Fragment
		}
	}
	return body
}

// WriteOnce renders the document through the shell and commits the single
// terminal write. The whole document is materialized in memory first, so a
// failing shell render leaves no partial artifact behind.
func (d *Document) WriteOnce(path string, shell func(body template.HTML) ([]byte, error)) error {
	if d.written {
		return ErrAlreadyWritten
	}

	html, err := shell(d.Body())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	d.written = true
	return nil
}
