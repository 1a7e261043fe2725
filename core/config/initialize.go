package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration into dir if one doesn't already
// exist there and returns the loaded result.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	configFs := afero.NewBasePathFs(afero.NewOsFs(), dir)
	return InitializeFs(configFs, filepath.Join(dir, ConfigurationName), logger)
}

// InitializeFs is Initialize over an arbitrary filesystem, displayName is only
// used for logging.
func InitializeFs(configFs afero.Fs, displayName string, logger *log.Logger) (*Configuration, error) {
	exists, err := afero.Exists(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}

	if exists {
		logger.Printf("- Config exists: %s\n", displayName)
	} else {
		logger.Printf("- Writing default config: %s\n", displayName)
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return LoadFs(configFs)
}
