package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minicrm/lead-api/internal/api/handler"
	"github.com/minicrm/lead-api/internal/api/middleware"
	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
	"github.com/minicrm/lead-api/internal/core/service"
	mongoinfra "github.com/minicrm/lead-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/minicrm/lead-api/internal/infrastructure/db/redis"
	"github.com/minicrm/lead-api/internal/infrastructure/export"
	"github.com/minicrm/lead-api/internal/pkg/phone"
)

// Options configures the HTTP layer.
type Options struct {
	Logger      zerolog.Logger
	JWTSecret   string
	JWTTTL      time.Duration
	PhoneRegion string
	CORSOrigins []string
	// Sentry enables the Sentry middleware. sentry.Init must already have run.
	Sentry bool
	// Registerer receives the HTTP request metrics. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Services are the use cases the HTTP layer dispatches to.
type Services struct {
	Leads     ports.LeadService
	Analytics ports.AnalyticsService
	Auth      ports.AuthService
	Readiness map[string]handler.Pinger
}

// NewRouter wires repositories and services on top of the given connections
// and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, opts Options) (*echo.Echo, error) {
	leadRepo := mongoinfra.NewLeadRepository(db)
	userRepo := mongoinfra.NewAuthRepository(db)
	blacklist := redisinfra.NewTokenBlacklist(rdb)

	svcs := Services{
		Leads:     service.NewLeadService(leadRepo, userRepo, phone.NewNormalizer(opts.PhoneRegion), export.NewXLSXExporter(), opts.Logger),
		Analytics: service.NewAnalyticsService(leadRepo, opts.Logger),
		Auth:      service.NewAuthService(userRepo, blacklist, opts.JWTSecret, opts.JWTTTL, opts.Logger),
		Readiness: map[string]handler.Pinger{
			"mongodb": func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}
	return NewEcho(svcs, opts)
}

// NewEcho registers middleware and routes for the given services.
func NewEcho(svcs Services, opts Options) (*echo.Echo, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(opts.Logger))
	if opts.Sentry {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Subsystem:  "http",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}
	e.Use(promMW)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svcs.Auth)
	leadHandler := handler.NewLeadHandler(svcs.Leads, svcs.Analytics)
	requireAuth := middleware.Auth(svcs.Auth)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, requireAuth)
	auth.POST("/logout", authHandler.Logout, requireAuth)

	// --- Lead routes (authenticated) ---
	leads := e.Group("/api/leads", requireAuth)
	leads.GET("", leadHandler.List)
	leads.POST("", leadHandler.Create)
	leads.GET("/analytics", leadHandler.Analytics)
	leads.GET("/export", leadHandler.Export, middleware.RequireRole(domain.RoleAdmin))
	leads.GET("/:id", leadHandler.Get)
	leads.PUT("/:id", leadHandler.Update)
	leads.DELETE("/:id", leadHandler.Delete)
	leads.POST("/:id/notes", leadHandler.AddNote)

	// --- Health checks, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(svcs.Readiness, opts.Logger).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
