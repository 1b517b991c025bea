package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_OWNER", "someone")
	t.Setenv("GITHUB_REPO", "blog")
	t.Setenv("BLOB_BACKEND", "Redis")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "main", cfg.GitHub.Branch)
	assert.Equal(t, "redis", cfg.Blob.Backend)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 30*time.Second, cfg.Analytics.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.GitHub.MenusCacheTTL)
	assert.True(t, cfg.Server.IsProduction())
}

func TestLoadConfigWithoutSecrets(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err, "missing secrets must not fail startup")
	assert.Empty(t, cfg.GitHub.Token)
	assert.False(t, cfg.Server.IsProduction())
}
