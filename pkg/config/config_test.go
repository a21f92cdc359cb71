package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedConfig struct {
	Host string `env:"TEST_NESTED_HOST" yaml:"host" default:"localhost"`
	Port int    `env:"TEST_NESTED_PORT" yaml:"port" default:"8080"`
}

type testConfig struct {
	Name     string        `env:"TEST_NAME" yaml:"name" required:"true"`
	Interval time.Duration `env:"TEST_INTERVAL" yaml:"interval" default:"30s"`
	Rate     float64       `env:"TEST_RATE" yaml:"rate" default:"1.5"`
	Debug    bool          `env:"TEST_DEBUG" yaml:"debug" default:"false"`
	Tags     []string      `env:"TEST_TAGS" yaml:"tags" default:"a,b"`
	Nested   nestedConfig  `yaml:"nested"`
}

type validatedConfig struct {
	Mode string `env:"TEST_MODE" yaml:"mode" default:"safe"`
}

func (v validatedConfig) Validate() error {
	if v.Mode == "forbidden" {
		return errors.New("forbidden mode")
	}
	return nil
}

func TestGetConfigFromEnvVars(t *testing.T) {
	t.Run("applies defaults and env overrides", func(t *testing.T) {
		t.Setenv("TEST_NAME", "companion")
		t.Setenv("TEST_INTERVAL", "5s")

		var cfg testConfig
		require.NoError(t, GetConfigFromEnvVars(&cfg))

		assert.Equal(t, "companion", cfg.Name)
		assert.Equal(t, 5*time.Second, cfg.Interval)
		assert.Equal(t, 1.5, cfg.Rate)
		assert.Equal(t, []string{"a", "b"}, cfg.Tags)
		assert.Equal(t, "localhost", cfg.Nested.Host)
		assert.Equal(t, 8080, cfg.Nested.Port)
	})

	t.Run("missing required field fails and resets config", func(t *testing.T) {
		var cfg testConfig
		err := GetConfigFromEnvVars(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEST_NAME")
		assert.Zero(t, cfg.Name)
		assert.Zero(t, cfg.Interval)
	})

	t.Run("comma-separated slice from env", func(t *testing.T) {
		t.Setenv("TEST_NAME", "x")
		t.Setenv("TEST_TAGS", "one, two ,three")

		var cfg testConfig
		require.NoError(t, GetConfigFromEnvVars(&cfg))
		assert.Equal(t, []string{"one", "two", "three"}, cfg.Tags)
	})

	t.Run("invalid int env value errors", func(t *testing.T) {
		t.Setenv("TEST_NAME", "x")
		t.Setenv("TEST_NESTED_PORT", "not-a-number")

		var cfg testConfig
		assert.Error(t, GetConfigFromEnvVars(&cfg))
	})

	t.Run("validator hook runs after load", func(t *testing.T) {
		t.Setenv("TEST_MODE", "forbidden")

		var cfg validatedConfig
		err := GetConfigFromEnvVars(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}

func TestGetConfig(t *testing.T) {
	writeYAML := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("yaml values loaded, env overlays win", func(t *testing.T) {
		path := writeYAML(t, "name: from-yaml\nrate: 2.5\n")
		t.Setenv("TEST_RATE", "9.5")

		var cfg testConfig
		require.NoError(t, GetConfig(&cfg, path, false))
		assert.Equal(t, "from-yaml", cfg.Name)
		assert.Equal(t, 9.5, cfg.Rate)
	})

	t.Run("missing file with allowFileErrors falls back to env", func(t *testing.T) {
		t.Setenv("TEST_NAME", "from-env")

		var cfg testConfig
		require.NoError(t, GetConfig(&cfg, "/nonexistent/config.yaml", true))
		assert.Equal(t, "from-env", cfg.Name)
	})

	t.Run("missing file without allowFileErrors errors", func(t *testing.T) {
		var cfg testConfig
		assert.Error(t, GetConfig(&cfg, "/nonexistent/config.yaml", false))
	})

	t.Run("malformed yaml without allowFileErrors errors", func(t *testing.T) {
		path := writeYAML(t, "{not yaml")
		var cfg testConfig
		assert.Error(t, GetConfig(&cfg, path, false))
	})
}
