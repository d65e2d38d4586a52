package report

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tedreport/artifacts"
	"tedreport/bib"
	"tedreport/config"
	"tedreport/figures"
	"tedreport/metrics"
	"tedreport/provenance"
)

// section titles for the known artifact families; anything else gets a
// title derived from its name.
var familyTitles = map[string]string{
	"adaptive_mask": "Adaptive Mask",
	"t2star":        "T2* Maps",
	"s0":            "S0 Maps",
	"rmse":          "RMSE",
}

// Params configures one report generation run.
type Params struct {
	// OutDir is the decomposition output directory.
	OutDir string
	// Prefix is the run-specific filename prefix (may be empty).
	Prefix string
	// Config describes the input layout and artifact families.
	Config *config.Config
	// ToolVersion is stamped into the trailing metadata.
	ToolVersion string
	// Markdown also writes a markdown companion next to the HTML report.
	Markdown bool
}

// Composer merges all fragment producers into the final report document.
// Its template set and citation formatter are explicit dependencies
// constructed by the caller.
type Composer struct {
	templates *TemplateSet
	formatter *bib.Formatter
	logger    *slog.Logger
}

// NewComposer creates a report composer.
func NewComposer(templates *TemplateSet, formatter *bib.Formatter, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{templates: templates, formatter: formatter, logger: logger}
}

// Generate assembles and writes `<prefix>tedana_report.html` under the
// output directory, returning the written path.
//
// Composition is a single synchronous pass: every fragment producer runs to
// completion before the document's one terminal write. Any fatal condition
// (missing required input, malformed bibliography, unknown citation key,
// incomplete provenance) aborts before that write, so the output file is
// either complete and consistent or not produced at all.
func (c *Composer) Generate(params Params) (string, error) {
	cfg := params.Config
	inputs := cfg.Inputs
	input := func(name string) string {
		return filepath.Join(params.OutDir, config.ResolveInput(name, params.Prefix))
	}

	// Required inputs load first; each failure is fatal.
	shape, err := metrics.LoadTimeSeriesShape(input(inputs.TimeSeries))
	if err != nil {
		return "", err
	}
	table, err := metrics.LoadComponentTable(input(inputs.Metrics))
	if err != nil {
		return "", err
	}
	cross, err := metrics.LoadCrossMetrics(input(inputs.CrossMetrics))
	if err != nil {
		return "", err
	}
	record, err := provenance.Load(input(inputs.Description))
	if err != nil {
		return "", err
	}
	narrative, err := os.ReadFile(input(inputs.Narrative))
	if err != nil {
		return "", fmt.Errorf("read narrative: %w", err)
	}
	bibliography, err := bib.Parse(input(inputs.Bibliography))
	if err != nil {
		return "", err
	}

	c.logger.Info("Loaded decomposition outputs",
		"components", table.NComponents(),
		"volumes", shape.NVols,
		"bibliography_entries", bibliography.Len())

	about, err := bib.InlineCitations(string(narrative), bibliography, c.formatter)
	if err != nil {
		return "", err
	}

	// Derived thresholds degrade gracefully when absent.
	opts := figures.Options{}
	if v, ok := metrics.ResolveThreshold(cross, "kappa_elbow", c.logger); ok {
		opts.KappaElbow = &v
	}
	if v, ok := metrics.ResolveThreshold(cross, "rho_elbow", c.logger); ok {
		opts.RhoElbow = &v
	}

	source, err := figures.NewSelectionSource(table, params.Prefix)
	if err != nil {
		return "", err
	}
	fragment, err := figures.NewEngine(source, opts).Fragment()
	if err != nil {
		return "", err
	}

	inventory, err := artifacts.Snapshot(filepath.Join(params.OutDir, inputs.FiguresDir))
	if err != nil {
		return "", err
	}
	families := cfg.Families()
	probed := artifacts.Probe(inventory, params.Prefix, families, c.logger)

	doc := NewDocument()
	appendRendered := func(name string, enabled bool, templateName string, data any) error {
		fragment, err := c.templates.Render(templateName, data)
		if err != nil {
			return err
		}
		return doc.Append(name, enabled, fragment)
	}

	if err := appendRendered("info", true, "info", map[string]any{
		"Table": template.HTML(provenance.BuildInfoTable(record)),
	}); err != nil {
		return "", err
	}
	if err := appendRendered("about", true, "about", map[string]any{
		"About": about,
	}); err != nil {
		return "", err
	}
	if err := appendRendered("figures", true, "figures", map[string]any{
		"Markup": template.HTML(fragment.Markup),
		"Script": template.JS(fragment.Script),
	}); err != nil {
		return "", err
	}

	type toggle struct {
		Name string
		Path string
	}
	var toggles []toggle
	for _, family := range families {
		res := probed[family.Name]
		if family.Label == "" || !res.Enabled || len(res.Paths) == 0 {
			continue
		}
		toggles = append(toggles, toggle{Name: family.Label, Path: res.Paths[0]})
	}
	if err := appendRendered("carpet", true, "carpet", map[string]any{
		"InitialCarpet": figures.DefaultImagePath(params.Prefix),
		"Toggles":       toggles,
	}); err != nil {
		return "", err
	}

	// Conditional image sections, gated on the probe flags, in family order.
	for _, family := range families {
		if family.Label != "" {
			// Toggle variants render through the carpet controls.
			continue
		}
		res := probed[family.Name]
		if err := appendRendered(family.Name, res.Enabled, "images", map[string]any{
			"Name":  family.Name,
			"Title": familyTitle(family.Name),
			"Paths": res.Paths,
		}); err != nil {
			return "", err
		}
	}

	if err := appendRendered("references", true, "references", map[string]any{
		"References": template.HTML(bibliography.RenderHTML(c.formatter)),
	}); err != nil {
		return "", err
	}

	// The run ID is derived from the provenance command and prefix so
	// identical inputs produce byte-identical reports.
	runID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("tedreport:"+record.Command+":"+params.Prefix))
	if err := appendRendered("footer", true, "footer", map[string]any{
		"ToolVersion":     params.ToolVersion,
		"FragmentVersion": figures.FragmentVersion,
		"RunID":           runID.String(),
	}); err != nil {
		return "", err
	}

	outPath := filepath.Join(params.OutDir, params.Prefix+"tedana_report.html")
	err = doc.WriteOnce(outPath, func(body template.HTML) ([]byte, error) {
		shell, err := c.templates.Render("head", map[string]any{"Body": body})
		if err != nil {
			return nil, err
		}
		return []byte(shell), nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("Wrote report", "path", outPath)

	if params.Markdown {
		mdPath := filepath.Join(params.OutDir, params.Prefix+"tedana_report.md")
		if err := ExportMarkdown(outPath, mdPath); err != nil {
			return "", err
		}
		c.logger.Info("Wrote markdown companion", "path", mdPath)
	}

	return outPath, nil
}

// familyTitle derives a section heading from the family name.
func familyTitle(name string) string {
	if title, ok := familyTitles[name]; ok {
		return title
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
