// Command api serves the Mini CRM lead API.
//
//	@title						Mini CRM Lead API
//	@version					1.0
//	@description				Lead capture, pipeline tracking and dashboard analytics.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	_ "github.com/minicrm/lead-api/docs"
	"github.com/minicrm/lead-api/internal/api"
	"github.com/minicrm/lead-api/internal/infrastructure/config"
	mongoinfra "github.com/minicrm/lead-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/minicrm/lead-api/internal/infrastructure/db/redis"
	"github.com/minicrm/lead-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: "lead-api",
		Env:     cfg.Env,
	})

	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			log.Fatal().Err(err).Msg("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	if err := mongoinfra.NewLeadRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("lead indexes")
	}
	if err := mongoinfra.NewAuthRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes")
	}

	e, err := api.NewRouter(db, rdb, api.Options{
		Logger:      log,
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
		PhoneRegion: cfg.PhoneRegion,
		CORSOrigins: cfg.CORSOrigins,
		Sentry:      sentryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
