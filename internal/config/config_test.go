package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8501", c.ListenAddr)
	assert.Equal(t, 200, c.MaxUploadMB)
	assert.Equal(t, int64(200<<20), c.MaxUploadBytes())
	assert.Equal(t, time.Hour, c.SessionTTL())
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "console", c.LogFormat)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\nchart_width: 640\n"), 0o644))
	t.Setenv("LOOKDATA_CHART_WIDTH", "1024")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, 1024, c.ChartWidth)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.Set("histogram_bins", "12"))
	require.NoError(t, c.Set("allowed_origins", "http://a.test, http://b.test"))
	require.NoError(t, Save(c, path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, again.HistogramBins)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, again.AllowedOrigins)
}

func TestSetValidates(t *testing.T) {
	c := &Global{}
	require.Error(t, c.Set("max_upload_mb", "0"))
	require.Error(t, c.Set("chart_width", "wide"))
	require.Error(t, c.Set("log_format", "xml"))
	require.Error(t, c.Set("nope", "1"))
	require.NoError(t, c.Set("session_ttl_minutes", "0"))
	require.NoError(t, c.Set("log_level", "DEBUG"))
	assert.Equal(t, "debug", c.LogLevel)

	for _, k := range Keys() {
		_, err := c.Get(k)
		require.NoError(t, err, k)
	}
}

func TestDefaultsMatchLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}
