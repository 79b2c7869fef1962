package bot

import (
	"context"
	"os"
	"time"

	"boulderbot/internal/config"
	"boulderbot/internal/conversation"
	"boulderbot/internal/domain"
	"boulderbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// workerIdleTimeout is how long a user's worker waits for more updates.
const workerIdleTimeout = time.Minute

// Conversation turns user input into replies.
type Conversation interface {
	HandleCommand(ctx context.Context, userID int64, command string) conversation.Reply
	HandleCallback(ctx context.Context, userID int64, data string, progress func(string)) conversation.Reply
}

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	sessions     domain.SessionManager
	conversation Conversation
	dispatcher   *dispatcher
	metrics      *Metrics
	logger       *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	sessions domain.SessionManager,
	conv Conversation,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Bot{
		tgService:    tgService,
		config:       config,
		sessions:     sessions,
		conversation: conv,
		dispatcher:   newDispatcher(16, workerIdleTimeout, metrics.ActiveWorkers),
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Start polls updates until ctx is done, then waits for queued updates.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.Telegram.UpdateTimeout
	if u.Timeout == 0 {
		u.Timeout = 60
	}

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	// Queued updates are still handled after ctx is done, each bounded by the
	// handler timeout.
	jobCtx := context.WithoutCancel(ctx)

	defer b.dispatcher.shutdown()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			userID := updateUserID(update)
			if userID == 0 {
				continue
			}
			queued := b.dispatcher.dispatch(userID, func() {
				b.processUpdate(jobCtx, update)
			})
			if !queued {
				b.metrics.UpdatesDropped.Inc()
				b.logger.Warn().Int64("user_id", userID).Msg("User queue full, update dropped")
				go b.rejectUpdate(update)
			}
		}
	}
}

// rejectUpdate tells the user an update was dropped.
func (b *Bot) rejectUpdate(update tgbotapi.Update) {
	l := b.logger.With().Int64("user_id", updateUserID(update)).Logger()
	switch {
	case update.CallbackQuery != nil:
		b.answerCallback(&l, update.CallbackQuery.ID, textSlowDown)
	case update.Message != nil:
		b.sendText(&l, update.Message.Chat.ID, textSlowDown)
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

func (b *Bot) handlerTimeout() time.Duration {
	seconds := b.config.Bot.HandlerTimeoutSeconds
	if seconds <= 0 {
		seconds = models.DefaultHandlerTimeout
	}
	return time.Duration(seconds) * time.Second
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	b.metrics.UpdatesProcessed.Inc()
	defer func() {
		b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
	}()

	updateCtx, cancel := context.WithTimeout(ctx, b.handlerTimeout())
	defer cancel()

	userID := updateUserID(update)
	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Int64("user_id", userID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(&l, func() {
		if userID == 0 {
			return
		}

		if !b.allow(updateCtx, userID) {
			b.metrics.RateLimited.Inc()
			l.Warn().Msg("Rate limit exceeded")
			switch {
			case update.CallbackQuery != nil:
				b.answerCallback(&l, update.CallbackQuery.ID, textSlowDown)
			case update.Message != nil:
				b.sendText(&l, update.Message.Chat.ID, textSlowDown)
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallback(updateCtx, &l, update.CallbackQuery)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, &l, update.Message)
	})
}

// allow applies the per-user inbound rate limit. Store errors let the update through.
func (b *Bot) allow(ctx context.Context, userID int64) bool {
	if b.sessions == nil || b.config.Bot.RateLimitMessages <= 0 {
		return true
	}
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.sessions.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Rate limit check failed")
		return true
	}
	return allowed
}
