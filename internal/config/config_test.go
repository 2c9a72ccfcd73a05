package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 3, cfg.MaxUpdateAttempts)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RoomTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "farkle", cfg.RedisKeyPrefix)
}

func TestParseReadsPrefixedVariables(t *testing.T) {
	t.Setenv("FARKLE_PORT", "9090")
	t.Setenv("FARKLE_STORAGE_TYPE", "redis")
	t.Setenv("FARKLE_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("FARKLE_ROOM_TTL", "2h")
	t.Setenv("FARKLE_JWT_SECRET", "shh")
	t.Setenv("FARKLE_MAX_UPDATE_ATTEMPTS", "5")
	t.Setenv("FARKLE_ALLOWED_ORIGINS", "example.com,*.example.org")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.Equal(t, 2*time.Hour, cfg.RoomTTL)
	assert.Equal(t, "shh", cfg.JWTSecret)
	assert.Equal(t, 5, cfg.MaxUpdateAttempts)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
}

func TestParseIgnoresUnprefixedVariables(t *testing.T) {
	t.Setenv("PORT", "1234")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("FARKLE_PORT", "not-a-port")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown storage", map[string]string{"FARKLE_STORAGE_TYPE": "floppy"}, "invalid FARKLE_STORAGE_TYPE"},
		{"redis without url", map[string]string{"FARKLE_STORAGE_TYPE": "redis"}, "FARKLE_REDIS_URL"},
		{"postgres without url", map[string]string{"FARKLE_STORAGE_TYPE": "postgres"}, "FARKLE_POSTGRES_URL"},
		{"zero attempts", map[string]string{"FARKLE_MAX_UPDATE_ATTEMPTS": "0"}, "FARKLE_MAX_UPDATE_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FARKLE_PORT=7070\nFARKLE_JWT_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("FARKLE_PORT")
		os.Unsetenv("FARKLE_JWT_SECRET")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoadEnvironmentWinsOverDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FARKLE_PORT=7070\n"), 0o600))
	t.Setenv("FARKLE_PORT", "6060")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
}

func TestLoadMissingDotenvIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
