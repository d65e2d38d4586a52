// Package metrics loads the per-component metrics produced by the
// decomposition pipeline and resolves derived threshold values.
package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// ComponentTable holds the tab-separated per-component metrics. Rows are
// indexed by dense component ID in original decomposition order; that order
// is preserved and semantically meaningful. The table is read-only after load.
type ComponentTable struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// LoadComponentTable reads a tab-separated metrics table with a header row.
func LoadComponentTable(path string) (*ComponentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open component table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read component table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("component table %s is empty", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	return &ComponentTable{columns: header, index: index, rows: records[1:]}, nil
}

// NComponents returns the number of component rows.
func (t *ComponentTable) NComponents() int { return len(t.rows) }

// Columns returns the column names in file order.
func (t *ComponentTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether a named column exists.
func (t *ComponentTable) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the raw string values of a named column in row order.
func (t *ComponentTable) Column(name string) ([]string, bool) {
	col, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		if col < len(row) {
			out[i] = row[col]
		}
	}
	return out, true
}

// Floats returns a named column parsed as float64 values.
func (t *ComponentTable) Floats(name string) ([]float64, error) {
	values, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("component table has no column %q", name)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = parsed
	}
	return out, nil
}

// TimeSeriesShape is the dimensions of the component mixing matrix: rows are
// time points, columns are components.
type TimeSeriesShape struct {
	NVols  int
	NComps int
}

// LoadTimeSeriesShape reads the tab-separated component time-series file.
// Only the shape is consumed by the report.
func LoadTimeSeriesShape(path string) (TimeSeriesShape, error) {
	f, err := os.Open(path)
	if err != nil {
		return TimeSeriesShape{}, fmt.Errorf("open component time series: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return TimeSeriesShape{}, fmt.Errorf("read component time series %s: %w", path, err)
	}
	if len(records) < 2 {
		return TimeSeriesShape{}, fmt.Errorf("component time series %s has no data rows", path)
	}
	// First row is the header of component ids.
	return TimeSeriesShape{NVols: len(records) - 1, NComps: len(records[0])}, nil
}

// CrossMetrics maps derived metric names to scalar values. Names may share
// prefixes (e.g. several kappa_elbow_* variants).
type CrossMetrics map[string]float64

// LoadCrossMetrics reads the flat name-to-scalar JSON map of cross-component
// metrics. Non-numeric values cannot serve as thresholds and are dropped.
func LoadCrossMetrics(path string) (CrossMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cross-component metrics: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cross-component metrics %s: %w", path, err)
	}

	cross := make(CrossMetrics, len(raw))
	for name, value := range raw {
		if v, ok := value.(float64); ok {
			cross[name] = v
		}
	}
	return cross, nil
}
