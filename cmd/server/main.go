package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sitemanager/backend/internal/bootstrap"
	"github.com/sitemanager/backend/internal/infrastructure/auth"
	"github.com/sitemanager/backend/internal/infrastructure/config"
	"github.com/sitemanager/backend/internal/infrastructure/scheduler"
	"github.com/sitemanager/backend/internal/interfaces/http/handler"
	"github.com/sitemanager/backend/internal/interfaces/http/middleware"
	"github.com/sitemanager/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(ctx, cfg)
	if err != nil {
		panic("Failed to initialize: " + err.Error())
	}
	log := c.Logger
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	log.Info("Starting Site Manager backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	checks := make(map[string]handler.ReadinessCheck)
	for name, check := range c.ReadinessChecks() {
		checks[name] = check
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRequests > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
	}

	engine := router.NewEngine(router.EngineConfig{
		Env:         cfg.App.Env,
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Logger:      log,
		JWT:         auth.NewJWTService(cfg.JWT),
		Sites:       c.Repos.Sites(),
		Handlers: router.Handlers{
			Charges:      handler.NewChargeHandler(c.Allocation),
			Receipts:     handler.NewReceiptHandler(c.Allocation),
			Expenses:     handler.NewExpenseHandler(c.Allocation),
			Payments:     handler.NewPaymentHandler(c.Allocation),
			CashAccounts: handler.NewCashAccountHandler(c.CashLedger),
			System:       handler.NewSystemHandler(cfg.App.Name, version, checks),
		},
		RateLimiter:    limiter,
		TracingEnabled: cfg.Telemetry.Enabled,
		MeterProvider:  c.Meter,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Scheduler.Enabled {
		loc, err := cfg.Ledger.Location()
		if err != nil {
			log.Fatal("Invalid ledger timezone", zap.Error(err))
		}
		trigger, err := scheduler.NewMonthlyTrigger(scheduler.TriggerConfig{
			CheckInterval: cfg.Scheduler.CheckInterval,
			Location:      loc,
			Clock:         time.Now,
		}, scheduler.GenerationJobs(c.Generator, cfg.Scheduler), log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		g.Go(func() error { return trigger.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
