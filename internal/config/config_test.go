package config

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("CASE_LOCK_TTL_SECONDS", "12")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, 12*time.Second, cfg.CaseLockTTL)
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("CATALOG_PATH", "")

	cfg := FromEnv()

	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "./catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CASE_LOCK_TTL_SECONDS", "abc")
	assert.Equal(t, 30, getEnvInt("CASE_LOCK_TTL_SECONDS", 30))

	t.Setenv("CASE_LOCK_TTL_SECONDS", "-4")
	assert.Equal(t, 30, getEnvInt("CASE_LOCK_TTL_SECONDS", 30))
}

func TestLogErrorFields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogError(logger, "production", "DebitReplacementBank", "saldo", map[string]int{"case": 3}, errors.New("falhou"))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "falhou", entry.Message)
	assert.Equal(t, "production", entry.Data["module"])
	assert.Equal(t, "DebitReplacementBank", entry.Data["funcName"])
	assert.Contains(t, entry.Data, "data")
}
