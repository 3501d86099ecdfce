package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"IMMO_APP_NAME",
	"IMMO_APP_ENV",
	"IMMO_APP_PORT",
	"IMMO_DATABASE_HOST",
	"IMMO_DATABASE_PORT",
	"IMMO_DATABASE_USER",
	"IMMO_DATABASE_PASSWORD",
	"IMMO_DATABASE_DBNAME",
	"IMMO_DATABASE_SSLMODE",
	"IMMO_DATABASE_MAX_OPEN_CONNS",
	"IMMO_DATABASE_MAX_IDLE_CONNS",
	"IMMO_DATABASE_LOG_LEVEL",
	"IMMO_PAYMENT_LOCK_TIMEOUT",
	"IMMO_PAYMENT_IDEMPOTENCY_TTL",
	"IMMO_PAYMENT_IDEMPOTENCY_BACKEND",
	"IMMO_PAYMENT_OVERDUE_SWEEP_ENABLED",
	"IMMO_PAYMENT_OVERDUE_SWEEP_SCHEDULE",
	"IMMO_TELEMETRY_ENABLED",
	"IMMO_TELEMETRY_SAMPLING_RATIO",
	"IMMO_TELEMETRY_SERVICE_NAME",
	"IMMO_TELEMETRY_DB_LOG_FULL_SQL",
}

// isolateEnv clears every config variable and restores the originals afterwards
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "immo-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "immo", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "warn", cfg.Database.LogLevel)
		assert.Equal(t, 5*time.Second, cfg.Payment.LockTimeout)
		assert.Equal(t, 24*time.Hour, cfg.Payment.IdempotencyTTL)
		assert.Equal(t, IdempotencyBackendMemory, cfg.Payment.IdempotencyBackend)
		assert.True(t, cfg.Payment.OverdueSweepEnabled)
		assert.Equal(t, "0 2 * * *", cfg.Payment.OverdueSweepSchedule)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "immo-backend", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Telemetry.Insecure)
		assert.True(t, cfg.Telemetry.DBTraceEnabled)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
	})

	t.Run("loads values from environment variables with IMMO prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_APP_NAME", "test-app")
		os.Setenv("IMMO_DATABASE_HOST", "testdb.local")
		os.Setenv("IMMO_DATABASE_PORT", "5433")
		os.Setenv("IMMO_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("IMMO_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("IMMO_PAYMENT_LOCK_TIMEOUT", "2s")
		os.Setenv("IMMO_PAYMENT_IDEMPOTENCY_TTL", "1h")
		os.Setenv("IMMO_PAYMENT_IDEMPOTENCY_BACKEND", "redis")
		os.Setenv("IMMO_PAYMENT_OVERDUE_SWEEP_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 2*time.Second, cfg.Payment.LockTimeout)
		assert.Equal(t, time.Hour, cfg.Payment.IdempotencyTTL)
		assert.Equal(t, IdempotencyBackendRedis, cfg.Payment.IdempotencyBackend)
		assert.False(t, cfg.Payment.OverdueSweepEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("IMMO_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown idempotency backend", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_PAYMENT_IDEMPOTENCY_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment.idempotency_backend")
	})

	t.Run("rejects unknown gorm log level", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_DATABASE_LOG_LEVEL", "verbose")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.log_level")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("rejects negative lock timeout", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_PAYMENT_LOCK_TIMEOUT", "-1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment.lock_timeout")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_APP_ENV", "production")
		os.Setenv("IMMO_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_APP_ENV", "production")
		os.Setenv("IMMO_DATABASE_PASSWORD", "secure-password")
		os.Setenv("IMMO_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("refuses full SQL in traces in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_APP_ENV", "production")
		os.Setenv("IMMO_DATABASE_PASSWORD", "secure-password")
		os.Setenv("IMMO_DATABASE_SSLMODE", "require")
		os.Setenv("IMMO_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("IMMO_APP_ENV", "production")
		os.Setenv("IMMO_DATABASE_PASSWORD", "secure-password")
		os.Setenv("IMMO_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
