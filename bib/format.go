package bib

import (
	"fmt"
	"html"
	"strings"
)

// Formatter renders bibliography entries in an academic citation style.
// It replaces the plugin-registry style lookup of the original tooling with
// an explicitly constructed object injected wherever rendering happens.
type Formatter struct {
	// MaxAuthors caps the number of authors listed per entry before the
	// remainder collapses to "et al.".
	MaxAuthors int
}

// NewAPAFormatter returns a Formatter approximating APA conventions.
func NewAPAFormatter() *Formatter {
	return &Formatter{MaxAuthors: 7}
}

// InlineCitation formats one entry for in-text use: "<Surname> et al. <Year>".
func (f *Formatter) InlineCitation(e Entry) (string, error) {
	if len(e.Authors) == 0 {
		return "", fmt.Errorf("entry %q has no author field", e.Key)
	}
	if e.Year == "" {
		return "", fmt.Errorf("entry %q has no year field", e.Key)
	}
	return fmt.Sprintf("%s et al. %s", e.Authors[0].Surname, e.Year), nil
}

// FormatEntry renders one entry as an HTML list item body.
func (f *Formatter) FormatEntry(e Entry) string {
	var sb strings.Builder

	sb.WriteString(html.EscapeString(f.authorList(e.Authors)))
	if e.Year != "" {
		fmt.Fprintf(&sb, " (%s).", html.EscapeString(e.Year))
	}
	if title := e.Fields["title"]; title != "" {
		fmt.Fprintf(&sb, " %s.", html.EscapeString(title))
	}
	if venue := f.venue(e); venue != "" {
		fmt.Fprintf(&sb, " <i>%s</i>.", html.EscapeString(venue))
	}
	if doi := e.Fields["doi"]; doi != "" {
		fmt.Fprintf(&sb, " doi:%s", html.EscapeString(doi))
	}
	return sb.String()
}

// venue picks the publication venue field appropriate to the entry type.
func (f *Formatter) venue(e Entry) string {
	for _, field := range []string{"journal", "booktitle", "publisher", "howpublished", "archiveprefix"} {
		if v := e.Fields[field]; v != "" {
			return v
		}
	}
	return ""
}

func (f *Formatter) authorList(authors []Author) string {
	if len(authors) == 0 {
		return "Anonymous"
	}
	names := make([]string, 0, len(authors))
	truncated := false
	for i, a := range authors {
		if f.MaxAuthors > 0 && i >= f.MaxAuthors {
			truncated = true
			break
		}
		names = append(names, a.Full)
	}
	list := strings.Join(names, ", ")
	if truncated {
		list += ", et al."
	}
	return list
}

// RenderHTML formats the full bibliography as a sequence of <li> items,
// ordered by citation key so output is stable across runs.
func (b *Bibliography) RenderHTML(f *Formatter) string {
	var sb strings.Builder
	for _, key := range b.keys {
		sb.WriteString("<li>")
		sb.WriteString(f.FormatEntry(b.entries[key]))
		sb.WriteString("</li>")
	}
	return sb.String()
}
