package figures

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tedreport/metrics"
)

func testTable(t *testing.T) *metrics.ComponentTable {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/metrics.tsv"
	content := "Component\tkappa\trho\tvariance explained\tclassification\n" +
		"ICA_00\t60.0\t10.0\t25.0\taccepted\n" +
		"ICA_01\t50.0\t30.0\t20.0\trejected\n" +
		"ICA_02\t40.0\t20.0\t15.0\taccepted\n" +
		"ICA_03\t30.0\t40.0\t10.0\trejected\n" +
		"ICA_04\t20.0\t50.0\t18.0\tignored\n" +
		"ICA_05\t10.0\t60.0\t12.0\taccepted\n"
	require.NoError(t, writeFile(path, content))

	table, err := metrics.LoadComponentTable(path)
	require.NoError(t, err)
	return table
}

func TestNewSelectionSource(t *testing.T) {
	source, err := NewSelectionSource(testTable(t), "sub-01_")
	require.NoError(t, err)

	assert.Equal(t, 6, source.Len())

	row, ok := source.Row(0)
	require.True(t, ok)
	assert.Equal(t, 60.0, row.Kappa)
	// Derived ranks: components are already in descending kappa order.
	assert.Equal(t, 1, row.KappaRank)
	assert.Equal(t, 6, row.RhoRank)
	assert.Equal(t, "./figures/sub-01_comp_000.png", row.ImagePath)
	assert.Equal(t, "#2ecc71", row.Color)

	assert.Equal(t, "./figures/sub-01_carpet_optcom.svg", source.DefaultImage())

	_, ok = source.Row(-1)
	assert.False(t, ok)
	_, ok = source.Row(6)
	assert.False(t, ok)
}

func TestNewSelectionSource_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/metrics.tsv"
	require.NoError(t, writeFile(path, "Component\tkappa\nICA_00\t1.0\n"))
	table, err := metrics.LoadComponentTable(path)
	require.NoError(t, err)

	_, err = NewSelectionSource(table, "")
	require.Error(t, err)
}

func TestEngine_LinkedSelection(t *testing.T) {
	source, err := NewSelectionSource(testTable(t), "sub-01_")
	require.NoError(t, err)

	kappaElbow := 35.0
	engine := NewEngine(source, Options{KappaElbow: &kappaElbow})

	// A selection published from any panel is mirrored on every panel and
	// resolved by the detail panel.
	engine.Select([]int{5})
	for _, panel := range engine.Panels() {
		assert.Equal(t, []int{5}, panel.Highlight(), "panel %s", panel.ID)
	}
	assert.Equal(t, "./figures/sub-01_comp_005.png", engine.Detail().CurrentImage())

	// Overlapping rapid selections: last write wins.
	engine.Select([]int{1})
	engine.Select([]int{2, 3})
	for _, panel := range engine.Panels() {
		assert.Equal(t, []int{2, 3}, panel.Highlight(), "panel %s", panel.ID)
	}
	assert.Equal(t, "./figures/sub-01_comp_002.png", engine.Detail().CurrentImage())

	// Empty selection falls back to the default aggregate image.
	engine.Select(nil)
	assert.Equal(t, source.DefaultImage(), engine.Detail().CurrentImage())
}

func TestEngine_ThresholdPlacement(t *testing.T) {
	source, err := NewSelectionSource(testTable(t), "")
	require.NoError(t, err)

	kappa, rho := 35.0, 22.5
	engine := NewEngine(source, Options{KappaElbow: &kappa, RhoElbow: &rho})

	byID := make(map[string]*Panel)
	for _, panel := range engine.Panels() {
		byID[panel.ID] = panel
	}

	require.Len(t, byID["kappa-rank"].Thresholds, 1)
	assert.Equal(t, 35.0, byID["kappa-rank"].Thresholds[0].Value)
	require.Len(t, byID["rho-rank"].Thresholds, 1)
	assert.Equal(t, 22.5, byID["rho-rank"].Thresholds[0].Value)
	assert.Len(t, byID["kappa-rho"].Thresholds, 2)
	// The variance summary panel never carries a reference line.
	assert.Empty(t, byID["varexp"].Thresholds)
}

func TestEngine_ThresholdAbsence(t *testing.T) {
	source, err := NewSelectionSource(testTable(t), "")
	require.NoError(t, err)

	engine := NewEngine(source, Options{})
	for _, panel := range engine.Panels() {
		assert.Empty(t, panel.Thresholds, "panel %s", panel.ID)
	}
}

func TestEngine_Fragment(t *testing.T) {
	source, err := NewSelectionSource(testTable(t), "sub-01_")
	require.NoError(t, err)

	engine := NewEngine(source, Options{})
	fragment, err := engine.Fragment()
	require.NoError(t, err)

	for _, id := range []string{"kappa-rho", "kappa-rank", "rho-rank", "varexp"} {
		assert.Contains(t, fragment.Markup, `id="panel-`+id+`"`)
	}
	assert.Contains(t, fragment.Markup, `id="detail-image"`)
	assert.Contains(t, fragment.Markup, "sub-01_carpet_optcom.svg")

	// The emitted script carries the shared data and bus wiring, with no
	// leftover substitution placeholders.
	assert.Contains(t, fragment.Script, "selectionBus")
	assert.Contains(t, fragment.Script, "sub-01_comp_000.png")
	assert.NotContains(t, fragment.Script, "__COMPONENT_DATA__")
	assert.NotContains(t, fragment.Script, "__PANEL_CONFIG__")
	assert.NotContains(t, fragment.Script, "__DEFAULT_IMAGE__")

	// Determinism: emitting twice yields identical fragments.
	again, err := engine.Fragment()
	require.NoError(t, err)
	assert.Equal(t, fragment, again)
}

func TestSelectionBus(t *testing.T) {
	bus := NewSelectionBus()

	var got [][]int
	bus.Subscribe("a", func(indices []int) { got = append(got, indices) })
	bus.Subscribe("b", func(indices []int) { got = append(got, indices) })

	bus.Publish([]int{4, 2})
	require.Len(t, got, 2)
	assert.Equal(t, []int{4, 2}, got[0])
	assert.Equal(t, []int{4, 2}, got[1])

	// Handlers receive copies: mutating one view never leaks to another.
	got[0][0] = 99
	assert.Equal(t, []int{4, 2}, got[1])

	assert.Equal(t, []string{"a", "b"}, bus.Subscribers())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
