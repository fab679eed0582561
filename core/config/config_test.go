package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/config"
)

type testConfig struct {
	Host    string        `env:"CONFIG_TEST_HOST" envDefault:"localhost"`
	Port    int           `env:"CONFIG_TEST_PORT" envDefault:"5432"`
	Timeout time.Duration `env:"CONFIG_TEST_TIMEOUT" envDefault:"30s"`
}

type overrideConfig struct {
	Value string `env:"CONFIG_TEST_VALUE" envDefault:"fallback"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_TEST_VALUE", "from-env")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "from-env", cfg.Value)
}

func TestLoad_CachesPerType(t *testing.T) {
	var first testConfig
	require.NoError(t, config.Load(&first))

	// Environment changes after the first load are ignored for this type.
	t.Setenv("CONFIG_TEST_PORT", "9999")

	var second testConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}

func TestLoad_NilTarget(t *testing.T) {
	assert.Error(t, config.Load[testConfig](nil))
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() {
		var cfg testConfig
		config.MustLoad(&cfg)
	})
}
