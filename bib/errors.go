package bib

import "fmt"

// ParseError reports a malformed bibliography database. It is fatal: report
// generation aborts and no output is written.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %s", e.Path, e.Line, e.Msg)
}

// MissingCitationError reports a \citep marker referencing a key that is not
// present in the parsed bibliography. It is fatal.
type MissingCitationError struct {
	Key string
}

func (e *MissingCitationError) Error() string {
	return fmt.Sprintf("citation key %q not found in bibliography", e.Key)
}
