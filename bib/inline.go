package bib

import (
	"fmt"
	"regexp"
	"strings"
)

var citepRe = regexp.MustCompile(`\\citep{(.*?)}`)

// InlineCitations rewrites every \citep{key1,key2,...} marker in text with a
// parenthesized inline citation formatted via the injected Formatter.
//
// Each key of a marker group resolves to "<Surname> et al. <Year>"; multiple
// keys within one group are joined with ", ". A marker text appearing more
// than once is replaced at every occurrence. Formatted citations cannot
// contain marker syntax, so a single forward pass never re-scans produced
// text. An unknown key yields a *MissingCitationError.
func InlineCitations(text string, bibliography *Bibliography, f *Formatter) (string, error) {
	matches := citepRe.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool, len(matches))
	updated := text
	for _, match := range matches {
		marker, keyGroup := match[0], match[1]
		if seen[marker] {
			continue
		}
		seen[marker] = true

		citation, err := formatGroup(keyGroup, bibliography, f)
		if err != nil {
			return "", err
		}
		updated = strings.ReplaceAll(updated, marker, "("+citation+")")
	}
	return updated, nil
}

// formatGroup resolves the comma-separated keys of one marker group.
func formatGroup(keyGroup string, bibliography *Bibliography, f *Formatter) (string, error) {
	keys := strings.Split(keyGroup, ",")
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		entry, ok := bibliography.Entry(key)
		if !ok {
			return "", &MissingCitationError{Key: key}
		}
		citation, err := f.InlineCitation(entry)
		if err != nil {
			return "", fmt.Errorf("format citation %q: %w", key, err)
		}
		parts = append(parts, citation)
	}
	return strings.Join(parts, ", "), nil
}
