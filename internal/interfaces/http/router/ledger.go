package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/auth"
	"github.com/sitemanager/backend/internal/infrastructure/config"
	"github.com/sitemanager/backend/internal/infrastructure/logger"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"github.com/sitemanager/backend/internal/interfaces/http/handler"
	"github.com/sitemanager/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers of the ledger API
type Handlers struct {
	Charges      *handler.ChargeHandler
	Receipts     *handler.ReceiptHandler
	Expenses     *handler.ExpenseHandler
	Payments     *handler.PaymentHandler
	CashAccounts *handler.CashAccountHandler
	System       *handler.SystemHandler
}

// EngineConfig carries everything NewEngine wires into the gin engine
type EngineConfig struct {
	Env         string
	ServiceName string
	HTTP        config.HTTPConfig
	Logger      *zap.Logger
	JWT         *auth.JWTService
	Sites       site.SiteRepository
	Handlers    Handlers

	// RateLimiter, when set, throttles the API per acting site
	RateLimiter *middleware.RateLimiter

	TracingEnabled bool
	TracerProvider trace.TracerProvider
	MeterProvider  *telemetry.MeterProvider
}

// publicPaths bypass authentication and site resolution
var publicPaths = []string{"/health", "/ready", "/api/v1/system/info"}

// NewEngine builds the ledger API engine. Middleware order:
// request logging, panic recovery, security headers, CORS, body limit,
// tracing, span status, HTTP metrics; then on /api/v1 only: JWT,
// site resolution, rate limit, span attributes.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	tracing := middleware.DefaultTracingConfig()
	if cfg.ServiceName != "" {
		tracing.ServiceName = cfg.ServiceName
	}
	tracing.Enabled = cfg.TracingEnabled
	tracing.TracerProvider = cfg.TracerProvider

	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(cfg.Env == "production"),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig(cfg.HTTP.CORSAllowOrigins)),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.TracingWithConfig(tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MeterProvider != nil,
		}),
	)

	h := cfg.Handlers
	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	jwtConfig := middleware.DefaultJWTConfig(cfg.JWT)
	jwtConfig.SkipPaths = publicPaths
	jwtConfig.Logger = log

	siteConfig := middleware.DefaultSiteConfig()
	siteConfig.SkipPaths = publicPaths
	siteConfig.Sites = cfg.Sites
	siteConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.SiteMiddlewareWithConfig(siteConfig),
	)
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimitByKey(cfg.RateLimiter, middleware.SiteRateKey))
	}
	r.Use(middleware.TracingAttributeInjector())
	for _, group := range LedgerRoutes(h) {
		r.Register(group)
	}
	r.Setup()

	log.Info("HTTP routes registered", zap.Int("routes", len(engine.Routes())))
	return engine
}

// LedgerRoutes returns the domain groups for the handlers that are set
func LedgerRoutes(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Charges != nil {
		charges := NewDomainGroup("charges", "/charges")
		charges.POST("", h.Charges.Create)
		charges.POST("/bulk", h.Charges.CreateBulk)
		charges.PUT("/:id/amount", h.Charges.UpdateAmount)
		charges.DELETE("/:id", h.Charges.Delete)
		charges.POST("/:id/recalculate", h.Charges.Recalculate)

		apartments := NewDomainGroup("apartments", "/apartments")
		apartments.GET("/:id/balance", h.Charges.ApartmentBalance)
		groups = append(groups, charges, apartments)
	}

	if h.Receipts != nil {
		receipts := NewDomainGroup("receipts", "/receipts")
		receipts.POST("", h.Receipts.Collect)
		receipts.POST("/batch", h.Receipts.CollectMany)
		receipts.DELETE("/:id", h.Receipts.Void)
		groups = append(groups, receipts)
	}

	if h.Expenses != nil {
		expenses := NewDomainGroup("expenses", "/expenses")
		expenses.POST("", h.Expenses.Create)
		expenses.PUT("/:id/amount", h.Expenses.UpdateAmount)
		expenses.DELETE("/:id", h.Expenses.Delete)
		expenses.POST("/:id/recalculate", h.Expenses.Recalculate)
		groups = append(groups, expenses)
	}

	if h.Payments != nil {
		payments := NewDomainGroup("payments", "/payments")
		payments.POST("", h.Payments.Pay)
		payments.POST("/batch", h.Payments.PayMany)
		payments.DELETE("/:id", h.Payments.Void)
		groups = append(groups, payments)
	}

	if h.CashAccounts != nil {
		accounts := NewDomainGroup("cash-accounts", "/cash-accounts")
		accounts.GET("", h.CashAccounts.List)
		accounts.GET("/:id/balance", h.CashAccounts.Balance)
		accounts.GET("/:id/statement", h.CashAccounts.Statement)
		groups = append(groups, accounts)
	}

	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo)
		groups = append(groups, system)
	}

	return groups
}
