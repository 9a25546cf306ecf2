package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "risk:\n  atr_multiplier: 2.0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "finazon", cfg.Source)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5000.0, cfg.Sanity.DefaultCeiling)
	assert.Equal(t, 500000.0, cfg.Sanity.Ceilings["crypto"])
	assert.Equal(t, 2.0, cfg.Risk.ATRMultiplier)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
source: testsource
sanity:
  default_ceiling: 9000
  ceilings:
    equity: 9000
feed:
  governor:
    daily_request_cap: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testsource", cfg.Source)
	assert.Equal(t, 9000.0, cfg.Sanity.DefaultCeiling)
	assert.Equal(t, 10, cfg.Feed.Governor.DailyRequestCap)
	_, hasCrypto := cfg.Sanity.Ceilings["crypto"]
	assert.False(t, hasCrypto, "explicit ceilings map must not be merged with defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
