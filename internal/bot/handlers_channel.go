package bot

import (
	apperrors "CategorizerBot/internal/errors"
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const channelLinkedNotice = "🔗 Channel linked to your categorizer bot. You can delete this confirmation message."

// handleSetChannel сначала проверяет, что бот может писать в чат
// (отправляет подтверждение), и только потом сохраняет привязку.
func (h *UpdateHandler) handleSetChannel(ctx context.Context, msg *tgbotapi.Message) error {
	arg := joinArgs(msg.CommandArguments())
	if arg == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /setchannel <chat_id> (add me as admin first)")
	}

	channelID, err := ParseChannelID(arg)
	if err != nil {
		return h.msg.SendMessage(msg.Chat.ID, apperrors.UserMessage(err, "Invalid chat id."))
	}

	confirmation, err := h.msg.send(channelID, channelLinkedNotice, "", nil)
	if err != nil {
		err = apperrors.Unavailable("Could not access that chat. Ensure the bot is added as admin and the chat id is correct.", err)
		h.log.Warn("Failed linking channel", "user_id", msg.From.ID, "channel_id", channelID, "error", err)
		return h.msg.SendMessage(msg.Chat.ID, apperrors.UserMessage(err, genericFailure))
	}

	if err := h.store.SetStorageChannel(ctx, msg.From.ID, channelID); err != nil {
		return err
	}
	h.log.Info("Storage channel linked", "user_id", msg.From.ID, "channel_id", channelID)

	if err := h.msg.SendMessage(msg.Chat.ID, "Storage channel registered. Forwarded messages will also be copied there."); err != nil {
		return err
	}

	if err := h.msg.Pin(channelID, confirmation.MessageID); err != nil {
		h.log.Debug("Could not pin confirmation", "channel_id", channelID, "error", err)
	}
	return nil
}

func (h *UpdateHandler) handleClearChannel(ctx context.Context, msg *tgbotapi.Message) error {
	if err := h.store.ClearStorageChannel(ctx, msg.From.ID); err != nil {
		return err
	}
	return h.msg.SendMessage(msg.Chat.ID, "Channel link cleared. Messages will remain in the bot database only.")
}
