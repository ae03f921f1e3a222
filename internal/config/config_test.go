package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyColumn(t *testing.T) {
	col, err := KeyColumn(SiteSunat)
	require.NoError(t, err)
	assert.Equal(t, "ruc", col)

	col, err = KeyColumn(SiteRedjum)
	require.NoError(t, err)
	assert.Equal(t, "dni", col)

	col, err = KeyColumn(SiteReinfo)
	require.NoError(t, err)
	assert.Empty(t, col, "registry dump takes no lookup keys")

	_, err = KeyColumn("osce")
	assert.ErrorContains(t, err, "unknown site")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Browser.FieldProbeTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scraper.SubmitSettle)
	assert.Equal(t, 2*time.Second, cfg.Scraper.PageSettle)
	assert.Equal(t, "deudoresPorDocumento", cfg.Scraper.RedjumURLFilter)
	assert.Equal(t, 20, cfg.Scraper.KeysPerMinute)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYS_PER_MINUTE", "5")
	t.Setenv("SUBMIT_SETTLE", "500ms")
	t.Setenv("PAGE_SETTLE", "4")
	t.Setenv("FIELD_PROBE_TIMEOUT", "750ms")
	t.Setenv("BROWSER_HEADLESS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Scraper.KeysPerMinute)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.SubmitSettle)
	assert.Equal(t, 750*time.Millisecond, cfg.Browser.FieldProbeTimeout)
	// Bare integers are read as seconds.
	assert.Equal(t, 4*time.Second, cfg.Scraper.PageSettle)
	assert.True(t, cfg.Browser.Headless)
}
