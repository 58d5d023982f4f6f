package config

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err, "failed to get project root")

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	cfg, err := ReadConfig(configPath)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Title)
	assert.NotZero(t, cfg.Webserver.Port)
	assert.NotEmpty(t, cfg.Webserver.URL)
	assert.NotEmpty(t, cfg.Token.Issuer)
	assert.NotEmpty(t, cfg.DB.Host)
}

func TestReadConfigEnvOverride(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err)

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	t.Setenv(EnvConfigJSON, `{"Webserver":{"Port":8443},"Token":{"Issuer":"from-env"}}`)

	cfg, err := ReadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Webserver.Port)
	assert.Equal(t, "from-env", cfg.Token.Issuer)
	// Untouched values still come from the file.
	assert.NotEmpty(t, cfg.Webserver.URL)
}

func TestReadConfigEnvOverrideInvalidJSON(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err)

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	t.Setenv(EnvConfigJSON, `{not json`)

	_, err = ReadConfig(configPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Webserver: Webserver{Port: 3000, URL: "http://localhost:3000"},
		Token:     Token{Issuer: "backoffice"},
	}

	testCases := []struct {
		name     string
		mutate   func(c Config) Config
		expected error
	}{
		{
			name:   "valid",
			mutate: func(c Config) Config { return c },
		},
		{
			name: "missing port",
			mutate: func(c Config) Config {
				c.Webserver.Port = 0
				return c
			},
			expected: ErrWebServerPortCanNotBeZero,
		},
		{
			name: "missing url",
			mutate: func(c Config) Config {
				c.Webserver.URL = ""
				return c
			},
			expected: ErrEmptyURL,
		},
		{
			name: "missing token issuer",
			mutate: func(c Config) Config {
				c.Token.Issuer = ""
				return c
			},
			expected: ErrEmptyTokenIssuer,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.mutate(valid))

			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			assert.True(t, errors.Is(err, tc.expected))
		})
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:     "backoffice-test",
		Webserver: Webserver{Port: 3000, URL: "http://localhost:3000"},
		Token:     Token{Issuer: "backoffice"},
	}

	dump, err := DumpConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, dump, "backoffice-test")
	assert.Contains(t, dump, "Issuer")
}
