package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	Prompt        string `json:"prompt"`
	Banner        string `json:"banner"`
	DefaultPath   string `json:"default_path" validate:"required"`
	MaxLineLength int    `json:"max_line_length" validate:"gte=1,lte=65535"`
	ClearLines    int    `json:"clear_lines" validate:"gte=0,lte=4096"`
	Color         string `json:"color" validate:"oneof=always auto never"`
	EventLog      bool   `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewMemMapFs()
	}
	return c.configFs
}

// SetFs replaces the filesystem the configuration reads and writes its
// auxiliary files through.
func (c *Configuration) SetFs(fs afero.Fs) {
	c.configFs = fs
}

// DefaultSearchPath splits DefaultPath into its directories.
func (c *Configuration) DefaultSearchPath() []string {
	return filepath.SplitList(c.DefaultPath)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration backed by an in-memory
// filesystem.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
