package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	return LoadFs(afero.NewBasePathFs(afero.NewOsFs(), path))
}

// LoadFs loads the configuration from the root of the given filesystem.
func LoadFs(configFs afero.Fs) (*Configuration, error) {
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	out.configFs = configFs
	return &out, nil
}

// LoadOrDefault loads the configuration from path, falling back to the
// built-in defaults if the directory was never initialized. The fallback never
// writes an event log because there is no directory to hold it.
func LoadOrDefault(path string, logger *log.Logger) (*Configuration, error) {
	cfg, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("No %s in %q, using defaults. Run init to create one.", ConfigurationName, path)
		cfg = defaultConfig()
		cfg.EventLog = false
		return cfg, nil
	case err != nil:
		return nil, err
	}
	return cfg, nil
}
