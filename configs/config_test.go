package configs

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultSessionDB, cfg.SessionDB)
	assert.Equal(t, 5, cfg.LookupBatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.LookupBatchPause)
	assert.Equal(t, 5.0, cfg.FinePerDay)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"LIBRARY_API_URL":            "https://lib.example/api/v1",
		"LIBRARY_SESSION_DB":         "/tmp/s.db",
		"LIBRARY_LOOKUP_BATCH_SIZE":  "8",
		"LIBRARY_LOOKUP_BATCH_PAUSE": "0s",
		"LIBRARY_FINE_PER_DAY":       "2.5",
		"LIBRARY_REQUEST_TIMEOUT":    "10s",
		"LIBRARY_LOG_LEVEL":          "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://lib.example/api/v1", cfg.APIURL)
	assert.Equal(t, "/tmp/s.db", cfg.SessionDB)
	assert.Equal(t, 8, cfg.LookupBatchSize)
	assert.Zero(t, cfg.LookupBatchPause)
	assert.Equal(t, 2.5, cfg.FinePerDay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvInvalid(t *testing.T) {
	for key, val := range map[string]string{
		"LIBRARY_LOOKUP_BATCH_SIZE":  "0",
		"LIBRARY_LOOKUP_BATCH_PAUSE": "soon",
		"LIBRARY_FINE_PER_DAY":       "-1",
		"LIBRARY_REQUEST_TIMEOUT":    "5",
		"LIBRARY_LOG_LEVEL":          "loud",
	} {
		_, err := FromEnv(envOf(map[string]string{key: val}))
		assert.Error(t, err, key)
		if err != nil {
			assert.Contains(t, err.Error(), key)
		}
	}
}

func TestLoadConfigWithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("LIBRARY_API_URL", "http://env.example/api/v1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api/v1", cfg.APIURL)
}
