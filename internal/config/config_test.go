package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "data/reviewsched.db", cfg.DBDSN)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.SweeperEnabled)
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("REVIEWSCHED_DB_DRIVER", "Postgres")
	t.Setenv("REVIEWSCHED_DB_DSN", "postgres://localhost/reviews?sslmode=disable")
	t.Setenv("REVIEWSCHED_SESSION_TTL", "30m")
	t.Setenv("REVIEWSCHED_SWEEPER_ENABLED", "false")
	t.Setenv("REVIEWSCHED_DEBUG", "true")

	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/reviews?sslmode=disable", cfg.DBDSN)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.SweeperEnabled)
	assert.True(t, cfg.Debug)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		val     string
		wantErr string
	}{
		{"driver", "REVIEWSCHED_DB_DRIVER", "mysql", `db_driver must be sqlite3 or postgres, got "mysql"`},
		{"ttl", "REVIEWSCHED_SESSION_TTL", "0s", "session_ttl must be positive, got 0s"},
		{"sweep", "REVIEWSCHED_SWEEP_INTERVAL", "-1m", "sweep_interval must be positive, got -1m0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := FromViper(New())
			require.EqualError(t, err, tt.wantErr)

			// errors carry a stack trace for %+v logging
			_, ok := err.(interface{ StackTrace() errors.StackTrace })
			assert.True(t, ok)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REVIEWSCHED_HTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("REVIEWSCHED_HTTP_ADDR", "")
	os.Unsetenv("REVIEWSCHED_HTTP_ADDR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}
