package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"blocks/internal/domain"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration, read from the environment.
type Config struct {
	HTTPAddr      string
	Database      domain.DatabaseConnection
	CacheAddr     string
	CacheTTL      time.Duration
	DefaultLocale string
	SeedDir       string
	SeedSchedule  string
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is reported as
// fs.ErrNotExist so callers can treat it as a warning.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", path, fs.ErrNotExist)
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FromEnv builds a Config from BLOCKS_* variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getenv("BLOCKS_HTTP_ADDR", ":8080"),
		CacheAddr:     getenv("BLOCKS_CACHE_ADDR", ""),
		DefaultLocale: getenv("BLOCKS_DEFAULT_LOCALE", "en_US"),
		SeedDir:       getenv("BLOCKS_SEED_DIR", ""),
		SeedSchedule:  getenv("BLOCKS_SEED_SCHEDULE", ""),
	}

	ttl, err := time.ParseDuration(getenv("BLOCKS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("BLOCKS_CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	db, err := databaseFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Database = db
	return cfg, nil
}

func databaseFromEnv() (domain.DatabaseConnection, error) {
	conn := domain.DatabaseConnection{
		Driver:   domain.DatabaseDriver(strings.ToLower(getenv("BLOCKS_DB_DRIVER", string(domain.DatabaseDriverSQLite)))),
		Host:     getenv("BLOCKS_DB_HOST", ""),
		Database: getenv("BLOCKS_DB_NAME", ""),
		Username: getenv("BLOCKS_DB_USER", ""),
		SSLMode:  getenv("BLOCKS_DB_SSLMODE", ""),
		URI:      getenv("BLOCKS_MONGO_URI", ""),
	}

	if raw := getenv("BLOCKS_DB_PORT", ""); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return conn, fmt.Errorf("BLOCKS_DB_PORT: %w", err)
		}
		conn.Port = port
	}

	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		conn.Host = getenv("BLOCKS_DB_PATH", defaultDBPath())
	case domain.DatabaseDriverPostgres:
		if conn.Host == "" {
			conn.Host = "localhost"
		}
		if conn.Port == 0 {
			conn.Port = 5432
		}
		if conn.SSLMode == "" {
			conn.SSLMode = "disable"
		}
		if conn.Database == "" {
			conn.Database = "blocks"
		}
	case domain.DatabaseDriverMySQL:
		if conn.Host == "" {
			conn.Host = "localhost"
		}
		if conn.Port == 0 {
			conn.Port = 3306
		}
		if conn.Database == "" {
			conn.Database = "blocks"
		}
	case domain.DatabaseDriverMongoDB:
		if conn.URI == "" {
			return conn, errors.New("BLOCKS_MONGO_URI is required for the mongodb driver")
		}
	default:
		return conn, fmt.Errorf("BLOCKS_DB_DRIVER: unsupported driver %q", conn.Driver)
	}
	return conn, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "blocks.db"
	}
	return filepath.Join(home, ".local", "share", "blocks", "blocks.db")
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
