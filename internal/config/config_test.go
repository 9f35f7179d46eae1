package config

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "listing-wizard", cfg.ServiceName)
	assert.Equal(t, DraftStoreMemory, cfg.DraftStore)
	assert.Equal(t, 168*time.Hour, cfg.DraftTTL)
	assert.Equal(t, 15*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.SessionCookieSecure)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DRAFT_STORE", " Redis ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("SESSION_COOKIE_SECURE", "true")

	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DraftStoreRedis, cfg.DraftStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.True(t, cfg.MinIOUseSSL)
	assert.True(t, cfg.SessionCookieSecure)
}

func TestLoadConfig_RejectsUnknownStore(t *testing.T) {
	t.Setenv("DRAFT_STORE", "etcd")

	_, err := LoadConfig(logger.NewNop())
	assert.ErrorContains(t, err, "unknown DRAFT_STORE")
}

func TestConfig_ValidateRequiresSecret(t *testing.T) {
	cfg := &Config{CollaboratorBaseURL: "http://x", DraftStore: DraftStoreMemory}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}
