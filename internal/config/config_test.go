package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, CacheNone, cfg.CacheDriver)
	assert.Equal(t, AILocal, cfg.AIProvider)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.AITimeout)
	assert.Equal(t, 5, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.False(t, cfg.NotionEnabled())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{
		"PORT":                  "9090",
		"STORE_DRIVER":          "postgres",
		"DATABASE_URL":          "postgres://localhost/finance",
		"CACHE_DRIVER":          "redis",
		"REDIS_URL":             "redis://localhost:6379/0",
		"CACHE_TTL":             "30s",
		"AI_PROVIDER":           "gemini",
		"GEMINI_API_KEY":        "key",
		"WORKER_COUNT":          "2",
		"NOTION_TOKEN":          "secret",
		"NOTION_INSIGHTS_DB_ID": "db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.True(t, cfg.NotionEnabled())
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"bigquery without project", map[string]string{"STORE_DRIVER": "bigquery"}},
		{"redis without url", map[string]string{"CACHE_DRIVER": "redis"}},
		{"unknown cache", map[string]string{"CACHE_DRIVER": "memcached"}},
		{"gemini without key", map[string]string{"AI_PROVIDER": "gemini"}},
		{"unknown provider", map[string]string{"AI_PROVIDER": "openai"}},
		{"bad ttl", map[string]string{"CACHE_TTL": "soon"}},
		{"bad workers", map[string]string{"WORKER_COUNT": "many"}},
		{"zero workers", map[string]string{"WORKER_COUNT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookup(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SQLITE_PATH=/tmp/from-file.db\n"), 0o600))
	t.Setenv("SQLITE_PATH", "")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.SQLitePath)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
