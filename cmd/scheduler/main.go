package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pickupsched/internal/api"
	"pickupsched/internal/cache"
	"pickupsched/internal/clock"
	"pickupsched/internal/config"
	"pickupsched/internal/db"
	"pickupsched/internal/events"
	"pickupsched/internal/metrics"
	"pickupsched/internal/notify"
	"pickupsched/internal/schedule"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SCHEDULER_CONFIG_PATH"))
	if err != nil {
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Logging)

	database, err := db.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	store := cache.New(database, rdb, cfg.CacheTTL(), logger)

	resolver, err := clock.NewResolver(cfg.Scheduling.Timezone, time.Now)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid scheduling timezone")
	}
	bounds, err := cfg.SlotBounds()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid slot bounds")
	}

	bus := events.NewEventBus(logger)
	bus.SubscribeAll(notify.NewLogSink(logger).Handle)
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Alerts.TelegramToken)
		if err != nil {
			logger.Error().Err(err).Msg("telegram alerts disabled")
		} else {
			notify.NewTelegramSink(botAPI, cfg.Alerts.TelegramChatID, nil, logger).Subscribe(bus)
			logger.Info().Str("bot", botAPI.Self.UserName).Msg("telegram alerts enabled")
		}
	}

	svc := schedule.NewService(store, resolver, schedule.Config{
		Bounds:             bounds,
		Demand:             database,
		Policy:             schedule.CapacityPolicy{OrdersPerSlot: cfg.Scheduling.OrdersPerSlot},
		Events:             bus,
		Logger:             logger,
		DefaultAdvanceDays: cfg.Scheduling.Defaults.AdvanceBookingDays,
		DefaultMaxDays:     cfg.Scheduling.Defaults.MaxBookingDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, store, logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	if cfg.Backup.Enabled {
		backups := db.NewBackupService(database, cfg.Backup, logger)
		go backups.Start(ctx, cfg.BackupInterval())
	}

	if cfg.Scheduling.HolidaysPath != "" {
		watcher := config.NewHolidayWatcher(cfg.Scheduling.HolidaysPath, cfg.HolidayPollInterval(), cfg.HolidayReapplyInterval(), logger, func(cal *config.HolidayCalendar) {
			applyHolidays(ctx, database, svc, cal, logger)
		})
		if err := watcher.Run(ctx); err != nil {
			logger.Error().Err(err).Str("path", cfg.Scheduling.HolidaysPath).Msg("holiday calendar not loaded")
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewServer(svc, api.Options{RequestsPerSecond: cfg.RateLimit.RequestsPerSecond, Burst: cfg.RateLimit.Burst}, logger).Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", cfg.Server.Address).Str("timezone", cfg.Scheduling.Timezone).Msg("pickup scheduler started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("pickup scheduler stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func applyHolidays(ctx context.Context, database *db.DB, svc *schedule.Service, cal *config.HolidayCalendar, logger zerolog.Logger) {
	inserted, err := database.ApplyHolidays(ctx, cal.Entries(svc.Today()))
	if err != nil {
		logger.Error().Err(err).Msg("apply holidays failed")
		return
	}
	metrics.AddHolidaysApplied(len(inserted))
	warnings := svc.NotifyHolidayBlocks(ctx, inserted)
	logger.Info().Int("created", len(inserted)).Int("warnings", len(warnings)).Str("calendar", cal.String()).Msg("holiday calendar applied")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func startHealthServer(ctx context.Context, port int, database pinger, cacheStore pinger, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.Ping(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := cacheStore.Ping(ctxPing); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
