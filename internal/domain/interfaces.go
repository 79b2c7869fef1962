package domain

import (
	"context"
	"time"

	"boulderbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository stores one session per user.
type SessionRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SessionManager is what the conversation controller talks to.
type SessionManager interface {
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// AvailabilityClient reads from the booking backend.
type AvailabilityClient interface {
	FetchAvailability(ctx context.Context, from, to time.Time) (models.Availability, error)
	UserExists(ctx context.Context, userID int64) bool
	FetchProfile(ctx context.Context, userID int64) (models.Profile, error)
}

// BookingClient commits reservations to the booking backend.
type BookingClient interface {
	SubmitBooking(ctx context.Context, req models.BookingRequest) error
}

// BackendClient is the full backend surface used by the bot.
type BackendClient interface {
	AvailabilityClient
	BookingClient
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	SendWithInlineKeyboard(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
