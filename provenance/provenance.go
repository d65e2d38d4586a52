// Package provenance loads the run-description record and formats it into
// the report's info table.
package provenance

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"sort"
	"strings"
)

// MissingFieldError reports an absent required field in the provenance
// record. It propagates unrecovered: a run description with holes means the
// pipeline output cannot be trusted to describe itself.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("provenance record is missing required field %q", e.Field)
}

// Node describes the host the pipeline ran on.
type Node struct {
	System    string `json:"System"`
	Name      string `json:"Name"`
	Release   string `json:"Release"`
	Version   string `json:"Version"`
	Machine   string `json:"Machine"`
	Processor string `json:"Processor"`
}

// Record is the generator-info object of the run description: the invoking
// command, tool version, host node, and library versions.
type Record struct {
	Name      string            `json:"Name"`
	Version   string            `json:"Version"`
	Command   string            `json:"Command"`
	Node      Node              `json:"Node"`
	Libraries map[string]string `json:"Libraries"`
}

// description is the top-level run description schema.
type description struct {
	GeneratedBy []json.RawMessage `json:"GeneratedBy"`
}

// requiredFields are the keys the info table cannot render without.
var requiredFields = []string{"Command", "Version", "Node"}

// requiredNodeFields mirror the host identity surfaced in the table.
var requiredNodeFields = []string{"System", "Name", "Release", "Version", "Machine", "Processor"}

// Load reads the run description JSON and extracts the first generator
// record. Missing required fields yield a *MissingFieldError.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run description: %w", err)
	}

	var desc description
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse run description %s: %w", path, err)
	}
	if len(desc.GeneratedBy) == 0 {
		return nil, &MissingFieldError{Field: "GeneratedBy"}
	}

	raw := desc.GeneratedBy[0]
	if err := checkFields(raw, "", requiredFields); err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse generator record: %w", err)
	}

	var generator map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generator); err != nil {
		return nil, fmt.Errorf("parse generator record: %w", err)
	}
	if err := checkFields(generator["Node"], "Node.", requiredNodeFields); err != nil {
		return nil, err
	}

	return &record, nil
}

// checkFields verifies key presence (not just zero values) in a JSON object.
func checkFields(raw json.RawMessage, prefix string, fields []string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("parse provenance object: %w", err)
	}
	for _, field := range fields {
		if _, ok := obj[field]; !ok {
			return &MissingFieldError{Field: prefix + field}
		}
	}
	return nil
}

// BuildInfoTable formats the record into an HTML table fragment. Formatting
// only; validation already happened at load time.
func BuildInfoTable(record *Record) string {
	var sb strings.Builder

	sb.WriteString(`<table class="info-table">`)
	row(&sb, "Command", record.Command)
	row(&sb, "System", record.Node.System)
	row(&sb, "Node", record.Node.Name)
	row(&sb, "Release", record.Node.Release)
	row(&sb, "System version", record.Node.Version)
	row(&sb, "Machine", record.Node.Machine)
	row(&sb, "Processor", record.Node.Processor)
	row(&sb, "Version", record.Version)

	// Library versions in name order so the fragment is stable across runs.
	libs := make([]string, 0, len(record.Libraries))
	for name := range record.Libraries {
		libs = append(libs, name)
	}
	sort.Strings(libs)
	for _, name := range libs {
		row(&sb, name, record.Libraries[name])
	}

	sb.WriteString(`</table>`)
	return sb.String()
}

func row(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, `<tr><td class="info-label">%s</td><td>%s</td></tr>`,
		html.EscapeString(label), html.EscapeString(value))
}
