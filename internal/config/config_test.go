package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults in development", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("JWT_SECRET", "")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Equal(t, "mysql", cfg.DB.Driver)
		assert.Equal(t, int64(5242880), cfg.UploadMaxBytes)
	})

	t.Run("production requires a secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "")

		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("short secret is rejected", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("JWT_SECRET", "too-short")

		_, err := FromEnv()
		require.ErrorContains(t, err, "at least 32")
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_DRIVER", "postgres")

		_, err := FromEnv()
		require.ErrorContains(t, err, "DB_DRIVER")
	})

	t.Run("sqlite with custom ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DB_PATH", "/tmp/x.db")
		t.Setenv("JWT_TTL", "2h")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.DB.Driver)
		assert.Equal(t, "/tmp/x.db", cfg.DB.Path)
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	})
}
