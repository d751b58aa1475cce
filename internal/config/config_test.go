package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SNAPSHOT_DEBOUNCE_MS", "")
	t.Setenv("SESSION_IDLE_MINUTES", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, 300*time.Millisecond, cfg.SnapshotDebounce)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SNAPSHOT_DEBOUNCE_MS", "50")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("MAX_DB_CONNS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, 50*time.Millisecond, cfg.SnapshotDebounce)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "practice:abc:progress", CacheKey.PracticeProgressKey("abc"))
	assert.Equal(t, "catalog:questions", CacheKey.CatalogQuestions)
	assert.Equal(t, "persist_results_queue", WorkerKey.PersistResults)
	assert.Equal(t, "persist_results_dead", WorkerKey.DeadResults)
}
