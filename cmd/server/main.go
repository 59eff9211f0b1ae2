package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/google"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	startMetricsListener(cfg, &logger)

	redisClient, userCache := initUserCache(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	ledgerWorker := initLedgerWorker(ctx, cfg, db, redisClient, &logger)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	// A typed-nil worker must not reach the interface field.
	var ledger service.LedgerEnqueuer
	if ledgerWorker != nil {
		ledger = ledgerWorker
	}

	userService := service.NewUserService(db, userCache, &logger)
	itemService := service.NewItemService(db, eventBus, &logger)
	bookingService := service.NewBookingService(db, eventBus, ledger, &logger)
	requestService := service.NewRequestService(db, &logger)

	server := api.NewServer(cfg.Server, userService, itemService, bookingService, requestService, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}
	return nil
}

func startMetricsListener(cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Str("addr", addr).Msg("metrics listener started")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics listener error")
		}
	}()
}

func initUserCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverUserCache) {
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisUserCache(redisClient, cfg.Redis.TTL())
	fallback := repository.NewMemoryUserCache(cfg.Redis.TTL())
	return redisClient, repository.NewFailoverUserCache(primary, fallback, logger)
}

func initLedgerWorker(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.LedgerWorker {
	if !cfg.Google.Enabled {
		logger.Info().Msg("ledger sync disabled")
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.LedgerSheetID)
	if err != nil {
		logger.Error().Err(err).Msg("Google Sheets init failed, ledger sync disabled")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed, ledger sync disabled")
		return nil
	}

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	ledgerWorker := worker.NewLedgerWorker(db, sheetsService, redisClient, retryPolicy, cfg.Google.PollInterval(), cfg.Google.BatchSize, logger)
	go ledgerWorker.Start(ctx)

	logger.Info().Msg("ledger worker started")
	return ledgerWorker
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	audit := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Int64("booking_id", payload.BookingID).
			Int64("item_id", payload.ItemID).
			Str("status", string(payload.Status)).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, audit)
	bus.Subscribe(events.EventBookingApproved, audit)
	bus.Subscribe(events.EventBookingRejected, audit)
}
