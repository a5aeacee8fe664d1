package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the ledger's Postgres pool
type Database struct {
	DB *gorm.DB
}

// Option configures Open
type Option func(*openOptions)

type openOptions struct {
	logger gormlogger.Interface
	hooks  []func(*gorm.DB) error
}

// WithLogger routes SQL logging through l
func WithLogger(l gormlogger.Interface) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithHook runs fn on the connection before it is pinged, e.g. to install
// tracing plugins
func WithHook(fn func(*gorm.DB) error) Option {
	return func(o *openOptions) { o.hooks = append(o.hooks, fn) }
}

// Open connects to Postgres, sizes the pool from cfg and pings within ctx
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{logger: gormlogger.Discard}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 o.logger,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &Database{DB: db}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	for _, hook := range o.hooks {
		if err := hook(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	if err := d.Ready(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Ready pings the pool; it backs the /ready probe
func (d *Database) Ready(ctx context.Context) error {
	return PingCheck(d.DB)(ctx)
}

// PingCheck returns a readiness probe that pings db within ctx
func PingCheck(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		return nil
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Repositories returns repositories bound to the pool, outside any transaction
func (d *Database) Repositories() ledger.Repositories {
	return NewRepositories(d.DB)
}

// TransactionScope returns the ledger transaction scope over this pool
func (d *Database) TransactionScope() *GormTransactionScope {
	return NewGormTransactionScope(d.DB)
}
