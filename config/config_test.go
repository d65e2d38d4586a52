package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tedreport/artifacts"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "figures", cfg.Inputs.FiguresDir)
	assert.Equal(t, "{prefix}references.bib", cfg.Inputs.Bibliography)
	assert.Equal(t, 500, cfg.Watch.DebounceMillis)

	// Without overrides the default artifact layout applies.
	families := cfg.Families()
	require.NotEmpty(t, families)
	assert.Equal(t, "adaptive_mask", families[0].Name)
}

func TestResolveInput(t *testing.T) {
	assert.Equal(t, "sub-01_report.txt", ResolveInput("{prefix}report.txt", "sub-01_"))
	assert.Equal(t, "dataset_description.json", ResolveInput("dataset_description.json", "sub-01_"))
}

func TestConfig_Merge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		Inputs: InputsConfig{Narrative: "{prefix}methods.txt"},
		Artifacts: ArtifactsConfig{
			Families: []artifacts.Family{{Name: "custom", Files: []string{"{prefix}custom.svg"}}},
		},
		Watch: WatchConfig{DebounceMillis: 100},
	})

	assert.Equal(t, "{prefix}methods.txt", cfg.Inputs.Narrative)
	// Untouched fields keep defaults.
	assert.Equal(t, "{prefix}references.bib", cfg.Inputs.Bibliography)
	assert.Equal(t, 100, cfg.Watch.DebounceMillis)

	families := cfg.Families()
	require.Len(t, families, 1)
	assert.Equal(t, "custom", families[0].Name)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Inputs.Metrics = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Artifacts.Families = []artifacts.Family{{Name: "broken"}}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Watch.DebounceMillis = -1
	assert.Error(t, cfg.Validate())
}

func TestLoader_Load(t *testing.T) {
	outDir := t.TempDir()
	project := `inputs:
  narrative: "{prefix}methods.txt"
`
	require.NoError(t, os.WriteFile(filepath.Join(outDir, ProjectConfigFile), []byte(project), 0644))

	explicitPath := filepath.Join(t.TempDir(), "override.yaml")
	explicit := `watch:
  debounce_millis: 50
`
	require.NoError(t, os.WriteFile(explicitPath, []byte(explicit), 0644))

	cfg, err := NewLoader(nil).Load(outDir, explicitPath)
	require.NoError(t, err)
	assert.Equal(t, "{prefix}methods.txt", cfg.Inputs.Narrative)
	assert.Equal(t, 50, cfg.Watch.DebounceMillis)
	assert.Equal(t, "{prefix}references.bib", cfg.Inputs.Bibliography)
}

func TestLoader_Load_NoFiles(t *testing.T) {
	cfg, err := NewLoader(nil).Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Inputs, cfg.Inputs)
}

func TestLoader_Load_MissingExplicitConfig(t *testing.T) {
	_, err := NewLoader(nil).Load(t.TempDir(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConfig_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tedreport.yaml")
	cfg := DefaultConfig()
	cfg.Inputs.Narrative = "{prefix}methods.txt"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Inputs, loaded.Inputs)
}
