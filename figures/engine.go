package figures

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// FragmentVersion identifies the emitted visualization fragment format. It is
// surfaced in the report's trailing metadata.
const FragmentVersion = "1.2.0"

// PanelKind selects the client-side renderer for a panel.
type PanelKind string

const (
	KindScatter    PanelKind = "scatter"
	KindSortedLine PanelKind = "sorted"
	KindPie        PanelKind = "pie"
)

// Threshold is a static reference line drawn on a panel.
type Threshold struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Panel is one chart view over the shared selection source. Panels hold no
// private copy of the data; they carry only presentation parameters and the
// mirrored highlight state.
type Panel struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Kind       PanelKind   `json:"kind"`
	XField     string      `json:"xField"`
	YField     string      `json:"yField"`
	XLabel     string      `json:"xLabel"`
	YLabel     string      `json:"yLabel"`
	Thresholds []Threshold `json:"thresholds,omitempty"`

	highlight []int
}

// ApplyHighlight mirrors a published selection onto this panel.
func (p *Panel) ApplyHighlight(indices []int) {
	p.highlight = indices
}

// Highlight returns the panel's current highlighted row indices.
func (p *Panel) Highlight() []int {
	return p.highlight
}

// DetailPanel resolves the current selection to a diagnostic image path.
type DetailPanel struct {
	source  *SelectionSource
	current string
}

// Resolve maps the selection to the image of its first row index, or the
// default aggregate image when the selection is empty.
func (d *DetailPanel) Resolve(indices []int) {
	if len(indices) == 0 {
		d.current = d.source.DefaultImage()
		return
	}
	if row, ok := d.source.Row(indices[0]); ok {
		d.current = row.ImagePath
		return
	}
	d.current = d.source.DefaultImage()
}

// CurrentImage returns the resolved detail image path.
func (d *DetailPanel) CurrentImage() string { return d.current }

// Options carries the resolved threshold values. A nil elbow omits the
// corresponding reference line.
type Options struct {
	KappaElbow *float64
	RhoElbow   *float64
}

// Engine assembles the linked panels over one selection source and emits the
// markup/script fragment embedded in the final report.
type Engine struct {
	source *SelectionSource
	bus    *SelectionBus
	panels []*Panel
	detail *DetailPanel
}

// NewEngine builds the four chart panels and the detail panel, subscribing
// each of them to the shared selection bus. A selection published from any
// panel is mirrored onto every panel and resolved by the detail panel.
func NewEngine(source *SelectionSource, opts Options) *Engine {
	var kappaLines, rhoLines, scatterLines []Threshold
	if opts.KappaElbow != nil {
		line := Threshold{Label: "kappa elbow", Value: *opts.KappaElbow}
		kappaLines = append(kappaLines, line)
		scatterLines = append(scatterLines, line)
	}
	if opts.RhoElbow != nil {
		line := Threshold{Label: "rho elbow", Value: *opts.RhoElbow}
		rhoLines = append(rhoLines, line)
		scatterLines = append(scatterLines, line)
	}

	panels := []*Panel{
		{
			ID: "kappa-rho", Title: "Kappa / Rho", Kind: KindScatter,
			XField: "kappa", YField: "rho",
			XLabel: "Kappa", YLabel: "Rho",
			Thresholds: scatterLines,
		},
		{
			ID: "kappa-rank", Title: "Kappa Rank", Kind: KindSortedLine,
			XField: "kappaRank", YField: "kappa",
			XLabel: "Components sorted by Kappa", YLabel: "Kappa",
			Thresholds: kappaLines,
		},
		{
			ID: "rho-rank", Title: "Rho Rank", Kind: KindSortedLine,
			XField: "rhoRank", YField: "rho",
			XLabel: "Components sorted by Rho", YLabel: "Rho",
			Thresholds: rhoLines,
		},
		{
			// Variance summary carries no threshold line.
			ID: "varexp", Title: "Variance Explained", Kind: KindPie,
			YField: "varExp",
		},
	}

	e := &Engine{
		source: source,
		bus:    NewSelectionBus(),
		panels: panels,
		detail: &DetailPanel{source: source, current: source.DefaultImage()},
	}
	for _, panel := range panels {
		panel := panel
		e.bus.Subscribe(panel.ID, panel.ApplyHighlight)
	}
	e.bus.Subscribe("detail", e.detail.Resolve)
	return e
}

// Bus exposes the selection bus.
func (e *Engine) Bus() *SelectionBus { return e.bus }

// Panels returns the chart panels in layout order.
func (e *Engine) Panels() []*Panel { return e.panels }

// Detail returns the detail panel.
func (e *Engine) Detail() *DetailPanel { return e.detail }

// Select simulates a selection interaction originating from one panel: the
// index set is published to every panel and the detail panel.
func (e *Engine) Select(indices []int) {
	e.bus.Publish(indices)
}

// Fragment is the embeddable output of the engine. After emission all
// interactivity is client-side; the engine performs no further computation.
type Fragment struct {
	Markup string
	Script string
}

// Fragment renders the panel markup and the client-side wiring script.
func (e *Engine) Fragment() (Fragment, error) {
	data, err := json.Marshal(e.source)
	if err != nil {
		return Fragment{}, fmt.Errorf("marshal selection source: %w", err)
	}
	panelCfg, err := json.Marshal(e.panels)
	if err != nil {
		return Fragment{}, fmt.Errorf("marshal panel config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="linked-figures" id="linked-figures">` + "\n")
	sb.WriteString(`  <div class="panel-grid">` + "\n")
	for _, panel := range e.panels {
		fmt.Fprintf(&sb, `    <div class="panel" id="panel-%s"><h3>%s</h3><svg class="panel-plot" data-panel="%s" viewBox="0 0 320 240"></svg></div>`+"\n",
			html.EscapeString(panel.ID), html.EscapeString(panel.Title), html.EscapeString(panel.ID))
	}
	sb.WriteString(`  </div>` + "\n")
	fmt.Fprintf(&sb, `  <div class="panel detail" id="panel-detail"><h3>Component Detail</h3><img id="detail-image" src="%s" alt="component detail"></div>`+"\n",
		html.EscapeString(e.source.DefaultImage()))
	sb.WriteString(`</div>`)

	script := strings.NewReplacer(
		"__COMPONENT_DATA__", string(data),
		"__PANEL_CONFIG__", string(panelCfg),
		"__DEFAULT_IMAGE__", jsString(e.source.DefaultImage()),
	).Replace(linkedFiguresJS)

	return Fragment{Markup: sb.String(), Script: script}, nil
}

// jsString quotes a value for embedding in the script.
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
