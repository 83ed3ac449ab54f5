package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blocks/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable FromEnv reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BLOCKS_HTTP_ADDR", "BLOCKS_CACHE_ADDR", "BLOCKS_CACHE_TTL", "BLOCKS_DEFAULT_LOCALE",
		"BLOCKS_SEED_DIR", "BLOCKS_SEED_SCHEDULE", "BLOCKS_DB_DRIVER", "BLOCKS_DB_HOST",
		"BLOCKS_DB_PORT", "BLOCKS_DB_NAME", "BLOCKS_DB_USER", "BLOCKS_DB_SSLMODE",
		"BLOCKS_DB_PATH", "BLOCKS_MONGO_URI",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "en_US", cfg.DefaultLocale)
	assert.Empty(t, cfg.CacheAddr)
	assert.Equal(t, domain.DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "blocks.db", filepath.Base(cfg.Database.Host))
}

func TestFromEnv_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLOCKS_DB_DRIVER", "POSTGRES")
	t.Setenv("BLOCKS_DB_USER", "thelia")
	t.Setenv("BLOCKS_CACHE_TTL", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, domain.DatabaseConnection{
		Driver:   domain.DatabaseDriverPostgres,
		Host:     "localhost",
		Port:     5432,
		Database: "blocks",
		Username: "thelia",
		SSLMode:  "disable",
	}, cfg.Database)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"bad ttl":        {"BLOCKS_CACHE_TTL": "soon"},
		"bad port":       {"BLOCKS_DB_DRIVER": "mysql", "BLOCKS_DB_PORT": "x"},
		"unknown driver": {"BLOCKS_DB_DRIVER": "oracle"},
		"mongo no uri":   {"BLOCKS_DB_DRIVER": "mongodb"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLOCKS_DEFAULT_LOCALE=fr_FR\nBLOCKS_HTTP_ADDR=:9090\n"), 0o644))
	t.Setenv("BLOCKS_HTTP_ADDR", ":7070")
	// godotenv only fills unset variables, blank is not enough
	require.NoError(t, os.Unsetenv("BLOCKS_DEFAULT_LOCALE"))

	require.NoError(t, LoadEnvFile(path))
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "fr_FR", cfg.DefaultLocale)
	assert.Equal(t, ":7070", cfg.HTTPAddr, "set variables are not overridden")

	err = LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
