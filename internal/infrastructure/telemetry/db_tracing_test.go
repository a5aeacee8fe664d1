package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sitemanager/backend/internal/infrastructure/config"
	"github.com/sitemanager/backend/internal/infrastructure/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	return db
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := DBTracingConfigFrom(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBSlowQueryThresh: time.Second})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Second, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)

	cfg = DBTracingConfigFrom(config.TelemetryConfig{DBTraceEnabled: true})
	assert.False(t, cfg.Enabled, "db tracing follows the telemetry switch")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openSQLite(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, p.Register(db))
	assert.Nil(t, db.Callback().Query().Get("sm_timing:before_query"))
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	exporter := newRecordingTracer(t)
	db := openSQLite(t)

	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, p.Register(db))
	assert.NotNil(t, db.Callback().Query().Get("sm_timing:before_query"))

	var n int
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
	assert.NotEmpty(t, exporter.GetSpans())
}

func TestDBTracingPlugin_AfterAnnotatesSpan(t *testing.T) {
	exporter := newRecordingTracer(t)
	db := openSQLite(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Millisecond}, zap.NewNop())

	ctx, span := otel.Tracer("test").Start(context.Background(), "stmt")
	ctx, _ = logger.WithSiteID(ctx, zap.NewNop(), "site-1")

	stmt := db.Session(&gorm.Session{NewDB: true})
	stmt.Statement.Context = ctx
	p.before(stmt)
	time.Sleep(5 * time.Millisecond)

	stmt.Statement.Table = "charges"
	stmt.Statement.RowsAffected = 3
	stmt.Error = errors.New("deadlock detected")
	p.after(stmt)
	span.End()

	stub := spanNamed(t, exporter, "stmt")
	table, _ := attrValue(stub, "db.sql.table")
	assert.Equal(t, "charges", table)
	rows, _ := attrValue(stub, "db.rows_affected")
	assert.Equal(t, int64(3), rows)
	site, _ := attrValue(stub, "site_id")
	assert.Equal(t, "site-1", site)
	slow, _ := attrValue(stub, "db.slow_query")
	assert.Equal(t, true, slow)
	assert.Equal(t, codes.Error, stub.Status.Code)
}

func TestDBTracingPlugin_AfterIgnoresRecordNotFound(t *testing.T) {
	exporter := newRecordingTracer(t)
	db := openSQLite(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	ctx, span := otel.Tracer("test").Start(context.Background(), "lookup")
	stmt := db.Session(&gorm.Session{NewDB: true})
	stmt.Statement.Context = ctx
	stmt.Error = gorm.ErrRecordNotFound
	p.after(stmt)
	span.End()

	stub := spanNamed(t, exporter, "lookup")
	assert.NotEqual(t, codes.Error, stub.Status.Code)
}
