package telemetry_test

import (
	"testing"
	"time"

	"github.com/immo/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestRegisterDBTracing_LogsSlowQueries(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	db := openSQLite(t)

	err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
		Enabled:  true,
		DBSystem: "sqlite",
		// every statement counts as slow
		SlowQueryThresh: 0,
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE cheques (id INTEGER PRIMARY KEY, numero TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO cheques (numero) VALUES (?)", "CH-1").Error)

	var count int64
	require.NoError(t, db.Table("cheques").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	slow := logs.FilterMessage("slow query").All()
	require.GreaterOrEqual(t, len(slow), 3)
	assert.Equal(t, "cheques", slow[len(slow)-1].ContextMap()["table"])
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db := openSQLite(t)

	require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DefaultDBTracingConfig(), zap.New(core)))
	require.NoError(t, db.Exec("SELECT 1").Error)

	assert.Equal(t, 0, logs.FilterMessage("slow query").Len())
	assert.Equal(t, 1, logs.FilterMessage("Database tracing disabled").Len())
}
