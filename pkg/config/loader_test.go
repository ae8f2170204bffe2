package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/config"
)

type serviceConfig struct {
	Name    string        `env:"TEST_SVC_NAME" envDefault:"admissiond"`
	Secret  string        `env:"TEST_SVC_SECRET,required"`
	Timeout time.Duration `env:"TEST_SVC_TIMEOUT" envDefault:"5s"`
	Mode    string        `env:"TEST_SVC_MODE" envDefault:"postgres"`
}

func (c *serviceConfig) Validate() error {
	if c.Mode != "postgres" && c.Mode != "redis" {
		return errors.New("unknown mode " + c.Mode)
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_SVC_SECRET", "s3cret")
	t.Setenv("TEST_SVC_TIMEOUT", "250ms")

	cfg, err := config.Load[serviceConfig](filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "admissiond", cfg.Name)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
}

func TestLoad_RequiredMissing(t *testing.T) {
	t.Setenv("TEST_SVC_SECRET", "")
	require.NoError(t, os.Unsetenv("TEST_SVC_SECRET"))

	_, err := config.Load[serviceConfig](filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Validate(t *testing.T) {
	t.Setenv("TEST_SVC_SECRET", "s3cret")
	t.Setenv("TEST_SVC_MODE", "memcached")

	_, err := config.Load[serviceConfig](filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("TEST_SVC_NAME=from-file\nTEST_SVC_SECRET=file-secret\n"), 0o600))

	t.Setenv("TEST_SVC_SECRET", "from-env")
	t.Setenv("TEST_SVC_NAME", "")
	require.NoError(t, os.Unsetenv("TEST_SVC_NAME"))

	cfg, err := config.Load[serviceConfig](file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, "from-env", cfg.Secret)
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv("TEST_SVC_SECRET", "")
	require.NoError(t, os.Unsetenv("TEST_SVC_SECRET"))

	assert.Panics(t, func() {
		config.MustLoad[serviceConfig](filepath.Join(t.TempDir(), "missing.env"))
	})
}
