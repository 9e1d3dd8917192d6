package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API - часть *tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
}

// MessageHandler отправляет все сообщения бота. Он же Copier для зеркала.
type MessageHandler struct {
	bot API
	log *slog.Logger
}

func NewMessageHandler(bot API, log *slog.Logger) *MessageHandler {
	return &MessageHandler{bot: bot, log: log}
}

func (h *MessageHandler) send(chatID int64, text, parseMode string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := h.bot.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send message failed: %w", err)
	}
	return sent, nil
}

func (h *MessageHandler) SendMessage(chatID int64, text string) error {
	_, err := h.send(chatID, text, "", nil)
	return err
}

func (h *MessageHandler) SendHTML(chatID int64, text string) error {
	_, err := h.send(chatID, text, tgbotapi.ModeHTML, nil)
	return err
}

func (h *MessageHandler) SendWithKeyboard(chatID int64, text string, markup interface{}) error {
	_, err := h.send(chatID, text, "", markup)
	return err
}

// SendLines разбивает длинный список на несколько сообщений.
func (h *MessageHandler) SendLines(chatID int64, lines []string, parseMode string) error {
	for _, chunk := range chunkLines(lines, maxMessageLength) {
		if _, err := h.send(chatID, chunk, parseMode, nil); err != nil {
			return err
		}
	}
	return nil
}

// EditHTML заменяет текст сообщения бота и убирает клавиатуру.
func (h *MessageHandler) EditHTML(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := h.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message failed: %w", err)
	}
	return nil
}

// AnswerCallback убирает индикатор загрузки у клиента.
func (h *MessageHandler) AnswerCallback(queryID string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(queryID, "")); err != nil {
		h.log.Debug("Answer callback failed", "error", err)
	}
}

func (h *MessageHandler) Pin(chatID int64, messageID int) error {
	_, err := h.bot.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
	return err
}

// CopyMessage копирует сообщение в другой чат и возвращает id копии.
func (h *MessageHandler) CopyMessage(_ context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	copied, err := h.bot.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID))
	if err != nil {
		return 0, err
	}
	return copied.MessageID, nil
}

func (h *MessageHandler) SendText(_ context.Context, chatID int64, text string) error {
	return h.SendMessage(chatID, text)
}
