// Package bootstrap wires configuration, telemetry, storage and the ledger
// services shared by the server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	ledgerapp "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/infrastructure/cache"
	"github.com/sitemanager/backend/internal/infrastructure/config"
	"github.com/sitemanager/backend/internal/infrastructure/logger"
	"github.com/sitemanager/backend/internal/infrastructure/persistence"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds the long-lived dependencies of one process
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Tracer *telemetry.TracerProvider
	Meter  *telemetry.MeterProvider
	Logs   *telemetry.LoggerProvider

	Database *persistence.Database
	Repos    ledger.Repositories
	Scope    ledger.TransactionScope
	RunLock  shared.RunLock

	Allocation *ledgerapp.AllocationService
	CashLedger *ledgerapp.CashLedgerService
	Templates  *ledgerapp.TemplateService
	Generator  *ledgerapp.TemplateGenerator
	Purger     *ledgerapp.SitePurger

	closers []func(context.Context) error
}

// New builds a Container from cfg. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config) (c *Container, err error) {
	c = &Container{Config: cfg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, c.Close(ctx))
			c = nil
		}
	}()

	if err = c.initLogging(ctx); err != nil {
		return c, err
	}
	if err = c.initTelemetry(ctx); err != nil {
		return c, err
	}
	if err = c.initStorage(ctx); err != nil {
		return c, err
	}
	if err = c.initServices(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Container) logConfig() *logger.Config {
	return &logger.Config{
		Level:  c.Config.Log.Level,
		Format: c.Config.Log.Format,
		Output: c.Config.Log.Output,
	}
}

// initLogging starts with a plain zap logger and, when log export is on,
// rebuilds it with the OpenTelemetry bridge core teed in.
func (c *Container) initLogging(ctx context.Context) error {
	base, err := logger.New(c.logConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.Logger = base

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFrom(c.Config.Telemetry), base)
	if err != nil {
		return err
	}
	c.Logs = lp
	c.closers = append(c.closers, lp.Shutdown)

	if lp.IsEnabled() {
		core := telemetry.NewZapOTELCore(lp, c.Config.Telemetry.ServiceName, logger.ParseLevel(c.Config.Log.Level))
		bridged, err := logger.New(c.logConfig(), core)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		c.Logger = bridged
	}
	c.closers = append(c.closers, func(context.Context) error { return logger.Sync(c.Logger) })
	return nil
}

func (c *Container) initTelemetry(ctx context.Context) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(c.Config.Telemetry), c.Logger)
	if err != nil {
		return err
	}
	c.Tracer = tp
	c.closers = append(c.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(c.Config.Telemetry), c.Logger)
	if err != nil {
		return err
	}
	c.Meter = mp
	c.closers = append(c.closers, mp.Shutdown)
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	gormLog := logger.NewGormLogger(c.Logger, logger.MapGormLogLevel(c.Config.Log.Level), c.Config.Telemetry.DBSlowQueryThresh)
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(c.Config.Telemetry), c.Logger)
	db, err := persistence.Open(ctx, &c.Config.Database,
		persistence.WithLogger(gormLog),
		persistence.WithHook(func(db *gorm.DB) error {
			if err := tracing.Register(db); err != nil {
				return fmt.Errorf("failed to register database tracing: %w", err)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}
	c.Database = db
	c.closers = append(c.closers, func(context.Context) error { return db.Close() })

	c.Repos = db.Repositories()
	c.Scope = db.TransactionScope()

	lock, err := cache.NewRunLockFactory(c.Config.Redis, cache.WithLogger(c.Logger)).Create()
	if err != nil {
		return err
	}
	c.RunLock = lock
	if closer, ok := lock.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	}

	c.Logger.Info("Storage ready",
		zap.String("database", c.Config.Database.DBName),
		zap.Bool("redis", c.Config.Redis.Enabled),
	)
	return nil
}

func (c *Container) initServices() error {
	loc, err := c.Config.Ledger.Location()
	if err != nil {
		return err
	}
	opts := ledgerapp.Options{
		ReceiptPrefix: c.Config.Ledger.ReceiptPrefix,
		PaymentPrefix: c.Config.Ledger.PaymentPrefix,
		Location:      loc,
	}

	metrics, err := telemetry.NewLedgerMetrics(c.Meter.Meter("sitemanager.ledger"))
	if err != nil {
		return fmt.Errorf("failed to register ledger metrics: %w", err)
	}

	c.Allocation = ledgerapp.NewAllocationService(c.Scope, c.Repos, opts, c.Logger.Named("allocation"))
	c.Allocation.SetMetrics(metrics)
	c.CashLedger = ledgerapp.NewCashLedgerService(c.Repos, c.Logger.Named("cash_ledger"))
	c.Templates = ledgerapp.NewTemplateService(c.Scope, c.Repos, c.Logger.Named("templates"))
	c.Generator = ledgerapp.NewTemplateGenerator(c.Scope, c.Repos, c.RunLock, opts, c.Logger.Named("generator"))
	c.Generator.SetMetrics(metrics)
	if c.Config.Scheduler.LockTTL > 0 {
		c.Generator.SetLockTTL(c.Config.Scheduler.LockTTL)
	}
	c.Purger = ledgerapp.NewSitePurger(c.Scope, c.Repos, c.Logger.Named("purger"))
	return nil
}

// ReadinessChecks returns the probes for the database and, when the run
// lock lives in Redis, for Redis
func (c *Container) ReadinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": c.Database.Ready,
	}
	if pinger, ok := c.RunLock.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = pinger.Ping
	}
	return checks
}

// Close releases resources in reverse order of acquisition
func (c *Container) Close(ctx context.Context) error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i](ctx))
	}
	c.closers = nil
	return err
}
