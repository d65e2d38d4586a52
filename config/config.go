// Package config provides configuration loading and management for tedreport.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tedreport/artifacts"
)

// Config represents the complete tedreport configuration.
type Config struct {
	Inputs    InputsConfig    `yaml:"inputs"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Watch     WatchConfig     `yaml:"watch"`
}

// InputsConfig names the pipeline output files the report consumes. Entries
// may contain a "{prefix}" placeholder expanded with the run prefix.
type InputsConfig struct {
	// FiguresDir is the figures directory name under the output directory.
	FiguresDir string `yaml:"figures_dir"`
	// TimeSeries is the tab-separated component mixing matrix.
	TimeSeries string `yaml:"time_series"`
	// Metrics is the tab-separated per-component metrics table.
	Metrics string `yaml:"metrics"`
	// CrossMetrics is the JSON map of cross-component derived metrics.
	CrossMetrics string `yaml:"cross_metrics"`
	// Description is the JSON provenance record.
	Description string `yaml:"description"`
	// Narrative is the free-text methods narrative with \citep markers.
	Narrative string `yaml:"narrative"`
	// Bibliography is the BibTeX citation database.
	Bibliography string `yaml:"bibliography"`
}

// ArtifactsConfig configures the optional artifact families probed in the
// figures directory.
type ArtifactsConfig struct {
	// Families overrides the default artifact layout when non-empty.
	Families []artifacts.Family `yaml:"families"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// DebounceMillis is how long to wait for further changes before
	// regenerating (default 500).
	DebounceMillis int `yaml:"debounce_millis"`
}

// DefaultConfig returns a Config matching the decomposition pipeline's
// output layout.
func DefaultConfig() *Config {
	return &Config{
		Inputs: InputsConfig{
			FiguresDir:   "figures",
			TimeSeries:   "{prefix}desc_ICA_mixing.tsv",
			Metrics:      "{prefix}desc_tedana_metrics.tsv",
			CrossMetrics: "{prefix}desc_ICA_cross_component_metrics.json",
			Description:  "dataset_description.json",
			Narrative:    "{prefix}report.txt",
			Bibliography: "{prefix}references.bib",
		},
		Watch: WatchConfig{
			DebounceMillis: 500,
		},
	}
}

// Families returns the configured artifact families, defaulting to the
// pipeline layout.
func (c *Config) Families() []artifacts.Family {
	if len(c.Artifacts.Families) > 0 {
		return c.Artifacts.Families
	}
	return artifacts.DefaultFamilies()
}

// ResolveInput expands the {prefix} placeholder in an input name.
func ResolveInput(name, prefix string) string {
	return strings.ReplaceAll(name, "{prefix}", prefix)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Inputs.FiguresDir == "" {
		return fmt.Errorf("inputs.figures_dir is required")
	}
	for name, value := range map[string]string{
		"inputs.time_series":   c.Inputs.TimeSeries,
		"inputs.metrics":       c.Inputs.Metrics,
		"inputs.cross_metrics": c.Inputs.CrossMetrics,
		"inputs.description":   c.Inputs.Description,
		"inputs.narrative":     c.Inputs.Narrative,
		"inputs.bibliography":  c.Inputs.Bibliography,
	} {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	for _, family := range c.Artifacts.Families {
		if family.Name == "" {
			return fmt.Errorf("artifact family with empty name")
		}
		if len(family.Files) == 0 {
			return fmt.Errorf("artifact family %q has no member files", family.Name)
		}
	}
	if c.Watch.DebounceMillis < 0 {
		return fmt.Errorf("watch.debounce_millis must not be negative")
	}
	return nil
}

// Merge overlays non-zero fields from other onto this config.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	mergeString(&c.Inputs.FiguresDir, other.Inputs.FiguresDir)
	mergeString(&c.Inputs.TimeSeries, other.Inputs.TimeSeries)
	mergeString(&c.Inputs.Metrics, other.Inputs.Metrics)
	mergeString(&c.Inputs.CrossMetrics, other.Inputs.CrossMetrics)
	mergeString(&c.Inputs.Description, other.Inputs.Description)
	mergeString(&c.Inputs.Narrative, other.Inputs.Narrative)
	mergeString(&c.Inputs.Bibliography, other.Inputs.Bibliography)
	if len(other.Artifacts.Families) > 0 {
		c.Artifacts.Families = other.Artifacts.Families
	}
	if other.Watch.DebounceMillis > 0 {
		c.Watch.DebounceMillis = other.Watch.DebounceMillis
	}
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &config, nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
