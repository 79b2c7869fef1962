package bot

import (
	"context"

	"boulderbot/internal/conversation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const textSlowDown = "⚠️ You are sending messages too often. Please wait a little."

func (b *Bot) handleMessage(ctx context.Context, l *zerolog.Logger, msg *tgbotapi.Message) {
	command := msg.Command()
	label := command
	if !msg.IsCommand() {
		label = "text"
	}
	b.metrics.CommandsProcessed.WithLabelValues(label).Inc()
	l.Debug().Str("command", label).Msg("Message received")

	reply := b.conversation.HandleCommand(ctx, msg.From.ID, command)

	text := reply.Text
	if text == "" {
		text = reply.Notice
	}
	if text == "" {
		return
	}

	if _, err := b.tgService.SendWithInlineKeyboard(msg.Chat.ID, text, inlineKeyboard(reply.Buttons)); err != nil {
		l.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send reply")
	}
}

func (b *Bot) handleCallback(ctx context.Context, l *zerolog.Logger, callback *tgbotapi.CallbackQuery) {
	kind := "invalid"
	if ev, err := conversation.ParseEvent(callback.Data); err == nil {
		kind = ev.Kind.String()
	}
	b.metrics.CallbacksProcessed.WithLabelValues(kind).Inc()

	if callback.Message == nil || callback.Message.Chat == nil {
		b.answerCallback(l, callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	progress := func(text string) {
		if _, err := b.tgService.EditMessage(chatID, messageID, text, nil); err != nil {
			l.Warn().Err(err).Msg("Failed to show progress")
		}
	}

	reply := b.conversation.HandleCallback(ctx, callback.From.ID, callback.Data, progress)
	b.answerCallback(l, callback.ID, reply.Notice)

	if !reply.HasMessage() {
		return
	}
	if _, err := b.tgService.EditMessage(chatID, messageID, reply.Text, inlineKeyboard(reply.Buttons)); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("Failed to edit message")
	}
}

func (b *Bot) answerCallback(l *zerolog.Logger, callbackID, text string) {
	if err := b.tgService.AnswerCallback(callbackID, text); err != nil {
		l.Warn().Err(err).Msg("Failed to answer callback")
	}
}

func (b *Bot) sendText(l *zerolog.Logger, chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// inlineKeyboard converts reply buttons; no buttons means no keyboard.
func inlineKeyboard(rows [][]conversation.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	return &markup
}
