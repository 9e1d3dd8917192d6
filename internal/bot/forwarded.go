package bot

import (
	"CategorizerBot/internal/categorizer"
	pmodel "CategorizerBot/pkg/models"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleText отдает координатору любой текст или подпись, кроме команд.
func (h *UpdateHandler) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	outcome, err := h.coord.HandleText(ctx, msg.From.ID, SnippetFromMessage(msg))
	if err != nil {
		return err
	}

	if outcome.Kind == categorizer.OutcomeAwaitingChoice {
		return h.msg.SendWithKeyboard(msg.Chat.ID, renderOutcome(outcome),
			CreateCategoriesKeyboard(outcome.Choices, prefixPick))
	}
	return h.msg.SendHTML(msg.Chat.ID, renderOutcome(outcome))
}

// SnippetFromMessage достает из сообщения текст и данные пересылки.
func SnippetFromMessage(msg *tgbotapi.Message) pmodel.Snippet {
	snippet := pmodel.Snippet{
		Text:            msg.Text,
		SourceChatID:    msg.Chat.ID,
		SourceMessageID: msg.MessageID,
	}
	if snippet.Text == "" {
		snippet.Text = msg.Caption
	}

	switch {
	case msg.ForwardFrom != nil:
		sender := fullName(msg.ForwardFrom)
		snippet.OriginalSender = &sender
	case msg.ForwardSenderName != "":
		sender := msg.ForwardSenderName
		snippet.OriginalSender = &sender
	}
	if msg.ForwardFromChat != nil {
		chat := msg.ForwardFromChat.Title
		snippet.OriginalChat = &chat
	}
	if msg.ForwardDate != 0 {
		date := time.Unix(int64(msg.ForwardDate), 0).UTC().Format(time.RFC3339)
		snippet.ForwardDate = &date
	}

	return snippet
}

// renderOutcome - HTML-ответ на исход.
func renderOutcome(o categorizer.Outcome) string {
	switch o.Kind {
	case categorizer.OutcomeSaved:
		return fmt.Sprintf("Saved to <b>%s</b> ✅", escape(o.CategoryName))
	case categorizer.OutcomeSaveFailed:
		return "Unable to save message. Confirm the category still exists."
	case categorizer.OutcomeEmptyText:
		return "Cannot archive empty messages yet. Attach some text."
	case categorizer.OutcomeNoCategories:
		return escape("No active category. Use /addcategory <name> first.")
	case categorizer.OutcomeAwaitingChoice:
		return "Choose a category for this snippet:"
	case categorizer.OutcomeCategoryAdded:
		return fmt.Sprintf("Category <b>%s</b> added.", escape(o.CategoryName))
	case categorizer.OutcomeEmptyCategoryName:
		return "Category name cannot be empty."
	case categorizer.OutcomeNoPending:
		return "No pending message to save."
	case categorizer.OutcomeUnavailable:
		return "Category unavailable. Try forwarding again."
	default:
		return genericFailure
	}
}
