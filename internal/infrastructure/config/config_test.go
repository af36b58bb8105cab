package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackedEnv = []string{
	"BOOKS_APP_NAME",
	"BOOKS_APP_ENV",
	"BOOKS_APP_PORT",
	"BOOKS_APP_TIMEZONE",
	"BOOKS_DATABASE_DRIVER",
	"BOOKS_DATABASE_HOST",
	"BOOKS_DATABASE_PORT",
	"BOOKS_DATABASE_USER",
	"BOOKS_DATABASE_PASSWORD",
	"BOOKS_DATABASE_DBNAME",
	"BOOKS_DATABASE_SSLMODE",
	"BOOKS_DATABASE_MAX_OPEN_CONNS",
	"BOOKS_DATABASE_MAX_IDLE_CONNS",
	"BOOKS_JWT_SECRET",
	"BOOKS_STORAGE_ENABLED",
	"BOOKS_STORAGE_BUCKET",
	"BOOKS_IMPORT_MAX_ERRORS",
	"BOOKS_HTTP_CORS_ALLOW_ORIGINS",
	"BOOKS_TELEMETRY_SAMPLING_RATIO",
	"BOOKS_JWT_ALLOW_HEADER_FALLBACK",
	"BOOKS_IMPORT_FETCH_ALLOW_PRIVATE",
}

// clearEnv unsets every tracked variable and restores the originals when the test ends
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range trackedEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "trade-books", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "Asia/Tokyo", cfg.App.Timezone)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "books", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 100, cfg.Import.MaxErrors)
		assert.Equal(t, 24*time.Hour, cfg.Import.IdempotencyTTL)
		assert.Equal(t, int64(10<<20), cfg.Import.MaxFileSize)
		assert.Empty(t, cfg.Import.Profiles)
	})

	t.Run("loads values from environment variables with BOOKS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_APP_NAME", "books-test")
		t.Setenv("BOOKS_APP_PORT", "9000")
		t.Setenv("BOOKS_APP_TIMEZONE", "UTC")
		t.Setenv("BOOKS_DATABASE_HOST", "testdb.local")
		t.Setenv("BOOKS_DATABASE_PORT", "5433")
		t.Setenv("BOOKS_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("BOOKS_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("BOOKS_IMPORT_MAX_ERRORS", "20")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "books-test", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, time.UTC.String(), cfg.App.Location().String())
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 20, cfg.Import.MaxErrors)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("BOOKS_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_APP_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.timezone")
	})

	t.Run("storage requires a bucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	production := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKS_APP_ENV", "production")
		t.Setenv("BOOKS_JWT_SECRET", strings.Repeat("s", 32))
		t.Setenv("BOOKS_DATABASE_PASSWORD", "secret")
		t.Setenv("BOOKS_DATABASE_SSLMODE", "require")
	}

	t.Run("accepts a hardened configuration", func(t *testing.T) {
		production(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short jwt secret", "BOOKS_JWT_SECRET", "short", "jwt.secret"},
		{"missing db password", "BOOKS_DATABASE_PASSWORD", "", "database.password"},
		{"ssl disabled", "BOOKS_DATABASE_SSLMODE", "disable", "sslmode"},
		{"sqlite driver", "BOOKS_DATABASE_DRIVER", "sqlite", "must be postgres in production"},
		{"wildcard cors", "BOOKS_HTTP_CORS_ALLOW_ORIGINS", "*", "cors_allow_origins"},
		{"tenant header fallback", "BOOKS_JWT_ALLOW_HEADER_FALLBACK", "true", "allow_header_fallback"},
		{"private fetch targets", "BOOKS_IMPORT_FETCH_ALLOW_PRIVATE", "true", "fetch_allow_private"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			production(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("postgres url", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "db",
			Port:     5432,
			User:     "books",
			Password: "p@ss word",
			DBName:   "books",
			SSLMode:  "require",
		}
		dsn := cfg.DSN()
		assert.True(t, strings.HasPrefix(dsn, "postgres://books:"))
		assert.Contains(t, dsn, "@db:5432/books")
		assert.Contains(t, dsn, "sslmode=require")
		assert.NotContains(t, dsn, "p@ss word")
	})

	t.Run("sqlite file", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", SQLitePath: "/tmp/books.db"}
		dsn := cfg.DSN()
		assert.Equal(t, "file:/tmp/books.db?_txlock=immediate&_busy_timeout=10000&_foreign_keys=on", dsn)
	})
}
