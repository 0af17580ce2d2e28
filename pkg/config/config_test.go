package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmatic/actionsched/pkg/config"
)

type testConfig struct {
	Addr    string `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Timeout int    `env:"TEST_CFG_TIMEOUT" envDefault:"60"`
	Debug   bool   `env:"TEST_CFG_DEBUG" envDefault:"false"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("TEST_CFG_ADDR", ":9090")
		t.Setenv("TEST_CFG_TIMEOUT", "120")
		t.Setenv("TEST_CFG_DEBUG", "true")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 120, cfg.Timeout)
		assert.True(t, cfg.Debug)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		os.Unsetenv("TEST_CFG_ADDR")
		os.Unsetenv("TEST_CFG_TIMEOUT")
		os.Unsetenv("TEST_CFG_DEBUG")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 60, cfg.Timeout)
		assert.False(t, cfg.Debug)
	})

	t.Run("missing required variable", func(t *testing.T) {
		os.Unsetenv("TEST_CFG_SECRET")

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, config.ErrParsingConfig))
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		os.Unsetenv("TEST_CFG_SECRET")

		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("returns populated config", func(t *testing.T) {
		t.Setenv("TEST_CFG_SECRET", "s3cret")

		var cfg requiredConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "s3cret", cfg.Secret)
	})
}
