package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boulderbot/internal/backend"
	"boulderbot/internal/bot"
	"boulderbot/internal/config"
	"boulderbot/internal/conversation"
	"boulderbot/internal/events"
	"boulderbot/internal/logging"
	"boulderbot/internal/metrics"
	"boulderbot/internal/repository"
	"boulderbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessionService := initSessionService(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	var reg prometheus.Registerer
	if cfg.Monitoring.PrometheusEnabled {
		reg = prometheus.DefaultRegisterer
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}
	botMetrics := bot.NewMetrics(reg)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, redisClient, logger)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, botMetrics, logging.Component(logger, "audit"))

	backendClient := backend.New(cfg.Backend, logging.Component(logger, "backend"))
	controller := conversation.NewController(
		sessionService,
		backendClient,
		eventBus,
		cfg.DisplayLocation(),
		logging.Component(logger, "conversation"),
	)

	return startBot(ctx, cfg, sessionService, controller, botMetrics, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := logging.Component(baseLogger, "bot-main")
	logger.Info().Str("backend", cfg.Backend.BaseURL).Msg("Configuration loaded")
	return cfg, logger, closer, nil
}

// initSessionService stores sessions in Redis when configured, falling back to
// process memory whenever Redis fails.
func initSessionService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.SessionService) {
	ttl := cfg.SessionTTL()
	memoryRepo := repository.NewMemorySessionRepository(ttl)
	go sweepSessions(ctx, memoryRepo, ttl, logger)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("Redis not configured, keeping sessions in memory")
		return nil, service.NewSessionService(memoryRepo, logger)
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if errPing := repository.Ping(ctx, redisClient); errPing != nil {
		logger.Warn().Err(errPing).Msg("Redis unavailable")
	}

	primaryRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	sessionRepo := repository.NewFailoverSessionRepository(primaryRepo, memoryRepo, logging.Component(logger, "sessions"))
	return redisClient, service.NewSessionService(sessionRepo, logger)
}

func sweepSessions(ctx context.Context, repo *repository.MemorySessionRepository, ttl time.Duration, logger *zerolog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := repo.Sweep(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("Expired sessions swept")
			}
		}
	}
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	sessionService *service.SessionService,
	controller *conversation.Controller,
	botMetrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(tgService, cfg, sessionService, controller, botMetrics, logging.Component(logger, "bot"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot")
		return err
	}

	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()

	logger.Info().Msg("Bot started")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func subscribeBookingEvents(bus *events.EventBus, botMetrics *bot.Metrics, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	handler := func(result string) events.EventHandler {
		return func(ev *events.Event) error {
			var payload events.BookingEventPayload
			if err := ev.Decode(&payload); err != nil {
				logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
				return nil
			}

			botMetrics.BookingsTotal.WithLabelValues(result).Inc()
			logger.Info().
				Str("event", ev.Type).
				Int64("user_id", payload.UserID).
				Str("facility", payload.Facility).
				Str("slot_id", payload.SlotID).
				Time("start", payload.Start).
				Str("reason", payload.Reason).
				Msg("Booking event")
			return nil
		}
	}

	bus.Subscribe(events.EventBookingSubmitted, handler("submitted"))
	bus.Subscribe(events.EventBookingFailed, handler("failed"))
	bus.Subscribe(events.EventBookingCancelled, handler("cancelled"))
}
