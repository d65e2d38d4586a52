// Package figures builds the linked multi-panel visualization over the
// component metrics table: one shared row-indexed selection source, N chart
// panels observing it, and a detail panel resolving the selected component's
// diagnostic image.
package figures

import (
	"encoding/json"
	"fmt"
	"sort"

	"tedreport/metrics"
)

// classification → plot color, matching the pipeline's accept/reject palette.
var classificationColors = map[string]string{
	"accepted": "#2ecc71",
	"rejected": "#e74c3c",
	"ignored":  "#95a5a6",
}

const defaultColor = "#7f8c8d"

// ComponentRow is one row of the selection source.
type ComponentRow struct {
	Index          int     `json:"index"`
	Label          string  `json:"label"`
	Kappa          float64 `json:"kappa"`
	Rho            float64 `json:"rho"`
	KappaRank      int     `json:"kappaRank"`
	RhoRank        int     `json:"rhoRank"`
	VarExp         float64 `json:"varExp"`
	Classification string  `json:"classification"`
	Color          string  `json:"color"`
	ImagePath      string  `json:"imagePath"`
}

// SelectionSource is the single shared, row-indexed structure every linked
// panel reads from. No panel holds a private copy, so row indices mean the
// same thing in every view. Read-only after construction.
type SelectionSource struct {
	rows         []ComponentRow
	defaultImage string
}

// NewSelectionSource builds the selection source from the metrics table.
// Rank columns are used when the table provides them and derived from the
// metric ordering otherwise. Each row resolves its diagnostic image path;
// the default image backs the empty selection.
func NewSelectionSource(table *metrics.ComponentTable, prefix string) (*SelectionSource, error) {
	kappa, err := table.Floats("kappa")
	if err != nil {
		return nil, fmt.Errorf("selection source: %w", err)
	}
	rho, err := table.Floats("rho")
	if err != nil {
		return nil, fmt.Errorf("selection source: %w", err)
	}
	varExp, err := table.Floats("variance explained")
	if err != nil {
		return nil, fmt.Errorf("selection source: %w", err)
	}

	kappaRank, err := ranks(table, "kappa_rank", kappa)
	if err != nil {
		return nil, err
	}
	rhoRank, err := ranks(table, "rho_rank", rho)
	if err != nil {
		return nil, err
	}

	classification, _ := table.Column("classification")

	rows := make([]ComponentRow, table.NComponents())
	for i := range rows {
		class := ""
		if i < len(classification) {
			class = classification[i]
		}
		color, ok := classificationColors[class]
		if !ok {
			color = defaultColor
		}
		rows[i] = ComponentRow{
			Index:          i,
			Label:          fmt.Sprintf("ICA_%02d", i),
			Kappa:          kappa[i],
			Rho:            rho[i],
			KappaRank:      kappaRank[i],
			RhoRank:        rhoRank[i],
			VarExp:         varExp[i],
			Classification: class,
			Color:          color,
			ImagePath:      ComponentImagePath(prefix, i),
		}
	}

	return &SelectionSource{
		rows:         rows,
		defaultImage: DefaultImagePath(prefix),
	}, nil
}

// ComponentImagePath is the diagnostic image for one component.
func ComponentImagePath(prefix string, index int) string {
	return fmt.Sprintf("./figures/%scomp_%03d.png", prefix, index)
}

// DefaultImagePath is the aggregate image shown on empty selection.
func DefaultImagePath(prefix string) string {
	return fmt.Sprintf("./figures/%scarpet_optcom.svg", prefix)
}

// Len returns the number of component rows.
func (s *SelectionSource) Len() int { return len(s.rows) }

// Row returns a component row by index.
func (s *SelectionSource) Row(index int) (ComponentRow, bool) {
	if index < 0 || index >= len(s.rows) {
		return ComponentRow{}, false
	}
	return s.rows[index], true
}

// DefaultImage returns the image path backing the empty selection.
func (s *SelectionSource) DefaultImage() string { return s.defaultImage }

// MarshalJSON serializes the rows for the client-side script.
func (s *SelectionSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.rows)
}

// ranks reads an explicit rank column or derives 1-based descending ranks
// from the metric values.
func ranks(table *metrics.ComponentTable, column string, values []float64) ([]int, error) {
	if table.HasColumn(column) {
		raw, err := table.Floats(column)
		if err != nil {
			return nil, fmt.Errorf("selection source: %w", err)
		}
		out := make([]int, len(raw))
		for i, v := range raw {
			out[i] = int(v)
		}
		return out, nil
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})
	out := make([]int, len(values))
	for rank, idx := range order {
		out[idx] = rank + 1
	}
	return out, nil
}
