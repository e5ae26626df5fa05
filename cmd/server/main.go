package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/database"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/observability"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/router"
	"github.com/iliyamo/venue-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	engineCfg, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.EngineConfigPath).Msg("invalid engine config")
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database unavailable")
	}
	store := repository.NewStore(db)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	catalog := repository.NewCatalogRepo(db)
	deps := service.Deps{
		Store:     store,
		Resources: catalog,
		Sponsors:  catalog,
		Services:  catalog,
		Logger:    log,
		Metrics:   metrics,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Config:    engineCfg,
	}
	if cfg.RabbitURL != "" {
		deps.Notifier = queue.NewPublisher(cfg.RabbitURL, engineCfg.Breaker, log)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.ActivityLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("activity consumer stopped")
			}
		}()
	} else {
		log.Warn().Msg("RABBITMQ_URL not set; activity messages disabled")
	}
	svc := service.NewVenueService(deps)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID(), middleware.RequestLogger(log))

	venue := handler.NewVenueHandler(svc)
	router.RegisterRoutes(e, db, metrics, venue, config.LoadCacheConfig(), rdb)
	router.RegisterVenue(e, venue, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, handler.NewCatalogHandler(catalog), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
