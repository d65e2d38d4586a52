// Package artifacts probes the figures directory of a decomposition run and
// computes presence flags for each optional artifact family.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Family names a group of figure files that are rendered together. The
// family's section only appears in the report when every member is present:
// partial artifact sets never produce a partially rendered section.
type Family struct {
	// Name identifies the family in the report template.
	Name string `yaml:"name"`
	// Files are the required member filenames relative to the figures
	// directory. The "{prefix}" placeholder expands to the run prefix, and
	// entries may use doublestar glob syntax.
	Files []string `yaml:"files"`
	// Label is an optional toggle-button label shown when the family is
	// present (e.g. "before MIR" for the carpet variants).
	Label string `yaml:"label,omitempty"`
}

// DefaultFamilies is the artifact layout of the decomposition pipeline.
func DefaultFamilies() []Family {
	return []Family{
		{Name: "adaptive_mask", Files: []string{"{prefix}adaptive_mask.svg"}},
		{Name: "t2star", Files: []string{"{prefix}t2star_brain.svg", "{prefix}t2star_histogram.svg"}},
		{Name: "s0", Files: []string{"{prefix}s0_brain.svg", "{prefix}s0_histogram.svg"}},
		{Name: "rmse", Files: []string{"{prefix}rmse_brain.svg", "{prefix}rmse_timeseries.svg"}},
		{Name: "carpet_optcom_nogsr", Files: []string{"{prefix}carpet_optcom_nogsr.svg"}, Label: "before MIR"},
		{Name: "carpet_denoised_mir", Files: []string{"{prefix}carpet_denoised_mir.svg"}, Label: "before MIR"},
		{Name: "carpet_accepted_mir", Files: []string{"{prefix}carpet_accepted_mir.svg"}, Label: "before MIR"},
	}
}

// Resolution is the probe outcome for one family.
type Resolution struct {
	Enabled bool
	// Paths are the resolved member paths, relative to the report document
	// ("./figures/<name>"), in the order the family declares them. Paths for
	// unmatched members are empty.
	Paths []string
	Label string
}

// Inventory is a one-time snapshot of the figures directory listing. All
// membership tests run against the snapshot, so probing is idempotent for an
// unchanged directory.
type Inventory struct {
	names []string
}

// Snapshot lists the figures directory once. A missing directory yields an
// empty inventory: absent artifacts are a normal, expected outcome.
func Snapshot(figuresDir string) (*Inventory, error) {
	entries, err := os.ReadDir(figuresDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Inventory{}, nil
		}
		return nil, fmt.Errorf("list figures directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return &Inventory{names: names}, nil
}

// Names returns the snapshot filenames in sorted order.
func (inv *Inventory) Names() []string {
	out := make([]string, len(inv.names))
	copy(out, inv.names)
	return out
}

// Contains reports exact filename membership in the snapshot.
func (inv *Inventory) Contains(name string) bool {
	i := sort.SearchStrings(inv.names, name)
	return i < len(inv.names) && inv.names[i] == name
}

// glob resolves a doublestar pattern against the snapshot, returning the
// lexicographically smallest match.
func (inv *Inventory) glob(pattern string) (string, bool) {
	for _, name := range inv.names {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return name, true
		}
	}
	return "", false
}

// Probe computes the presence flag and resolved paths for every family.
// Missing members disable the family; they are never an error.
func Probe(inv *Inventory, prefix string, families []Family, logger *slog.Logger) map[string]Resolution {
	if logger == nil {
		logger = slog.Default()
	}

	results := make(map[string]Resolution, len(families))
	for _, family := range families {
		res := Resolution{Enabled: true, Label: family.Label, Paths: make([]string, len(family.Files))}
		for i, member := range family.Files {
			name := strings.ReplaceAll(member, "{prefix}", prefix)

			resolved := name
			present := false
			if strings.ContainsAny(name, "*?[{") {
				resolved, present = inv.glob(name)
			} else {
				present = inv.Contains(name)
			}
			if !present {
				res.Enabled = false
				continue
			}
			res.Paths[i] = "./figures/" + resolved
		}

		logger.Debug("Probed artifact family",
			"family", family.Name,
			"enabled", res.Enabled)
		results[family.Name] = res
	}
	return results
}
