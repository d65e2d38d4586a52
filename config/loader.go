package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is the name of the per-output-directory config file.
const ProjectConfigFile = "tedreport.yaml"

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (tedreport.yaml in the output directory)
// 3. Explicit config file (--config flag), when given
func (l *Loader) Load(outDir, configPath string) (*Config, error) {
	config := DefaultConfig()

	projectPath := filepath.Join(outDir, ProjectConfigFile)
	if projectConfig, err := LoadFromFile(projectPath); err == nil {
		l.logger.Debug("Loaded project config", slog.String("path", projectPath))
		config.Merge(projectConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load project config",
			slog.String("path", projectPath), slog.String("error", err.Error()))
	}

	if configPath != "" {
		explicit, err := LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", configPath))
		config.Merge(explicit)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
