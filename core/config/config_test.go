package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.Nil(t, cfg.Validate())

	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, []string{"/bin", "/usr/bin"}, cfg.DefaultSearchPath())
	assert.Equal(t, 1023, cfg.MaxLineLength)
	assert.Equal(t, 255, cfg.ClearLines)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*Configuration)
		wantErr string
	}{
		"default": {
			mutate: func(*Configuration) {},
		},
		"zero-line-length": {
			mutate:  func(c *Configuration) { c.MaxLineLength = 0 },
			wantErr: "max_line_length",
		},
		"bad-color": {
			mutate:  func(c *Configuration) { c.Color = "sometimes" },
			wantErr: "color",
		},
		"no-path": {
			mutate:  func(c *Configuration) { c.DefaultPath = "" },
			wantErr: "default_path",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFs_strict(t *testing.T) {
	memFs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(memFs, ConfigurationName, []byte("prompt: '$ '\nunknown_field: 1\n"), 0600))

	_, err := LoadFs(memFs)
	assert.NotNil(t, err)
}

func TestAppLog(t *testing.T) {
	cfg := defaultConfig()
	cfg.SetFs(afero.NewMemMapFs())

	w, err := cfg.OpenAppLog()
	require.Nil(t, err)
	_, err = w.Write([]byte("line\n"))
	assert.Nil(t, err)
	assert.Nil(t, w.Close())

	r, err := cfg.ReadAppLog()
	require.Nil(t, err)
	defer r.Close()
	contents, err := afero.ReadAll(r)
	assert.Nil(t, err)
	assert.Equal(t, "line\n", string(contents))
}
