package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *UpdateHandler) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	err := h.msg.SendMessage(msg.Chat.ID, "👋 Hi! Forward me messages you want to keep safe.\n"+
		"Use /menu for quick actions or /help for the full command list.")
	if err != nil {
		return err
	}

	active, ok, err := h.store.GetActiveCategory(ctx, msg.From.ID)
	if err != nil || !ok {
		return err
	}
	return h.msg.SendHTML(msg.Chat.ID, fmt.Sprintf("Current category: <b>%s</b>", escape(active)))
}

func (h *UpdateHandler) handleHelp(_ context.Context, msg *tgbotapi.Message) error {
	return h.msg.SendMessage(msg.Chat.ID, helpText)
}

func (h *UpdateHandler) handleMenu(ctx context.Context, msg *tgbotapi.Message) error {
	names, err := h.store.ListCategories(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return h.msg.SendWithKeyboard(msg.Chat.ID, "Quick actions:", CreateMenuKeyboard(len(names) > 0))
}

func (h *UpdateHandler) handleAddCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name := joinArgs(msg.CommandArguments())
	if name == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /addcategory <name>")
	}

	if err := h.store.AddCategory(ctx, msg.From.ID, name); err != nil {
		return err
	}
	return h.msg.SendHTML(msg.Chat.ID, fmt.Sprintf("Category <b>%s</b> ready!", escape(name)))
}

func (h *UpdateHandler) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	names, err := h.store.ListCategories(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return h.msg.SendMessage(msg.Chat.ID, "No categories yet. Create one with /addcategory <name>.")
	}
	return h.msg.SendMessage(msg.Chat.ID, formatCategoryList(names))
}

func (h *UpdateHandler) handleSetCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name := joinArgs(msg.CommandArguments())
	if name == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /setcategory <name>")
	}

	ok, err := h.store.SetActiveCategory(ctx, msg.From.ID, name)
	if err != nil {
		return err
	}
	if !ok {
		return h.msg.SendMessage(msg.Chat.ID, "Unknown category. List them with /categories or create a new one.")
	}
	return h.msg.SendHTML(msg.Chat.ID, fmt.Sprintf("📁 Active category: <b>%s</b>", escape(name)))
}

func (h *UpdateHandler) handleCurrent(ctx context.Context, msg *tgbotapi.Message) error {
	active, ok, err := h.store.GetActiveCategory(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if !ok {
		return h.msg.SendMessage(msg.Chat.ID, "No active category. Set one with /setcategory <name>.")
	}
	return h.msg.SendHTML(msg.Chat.ID, fmt.Sprintf("Currently saving to <b>%s</b>.", escape(active)))
}

func (h *UpdateHandler) handleDeleteCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name := joinArgs(msg.CommandArguments())
	if name == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /deletecategory <name>")
	}

	deleted, err := h.store.DeleteCategory(ctx, msg.From.ID, name)
	if err != nil {
		return err
	}
	if !deleted {
		return h.msg.SendMessage(msg.Chat.ID, "Unknown category. List them with /categories.")
	}

	h.log.Info("Category deleted", "user_id", msg.From.ID, "category", name)
	return h.msg.SendHTML(msg.Chat.ID, fmt.Sprintf("Category <b>%s</b> deleted with its saved messages.", escape(name)))
}

func (h *UpdateHandler) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	name := joinArgs(msg.CommandArguments())
	if name == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /list <category>")
	}

	rows, err := h.store.ListMessages(ctx, msg.From.ID, name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return h.msg.SendMessage(msg.Chat.ID, "Nothing stored for that category yet.")
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, FormatMessageSummary(i, row))
	}
	return h.msg.SendLines(msg.Chat.ID, lines, "")
}

func (h *UpdateHandler) handleSearch(ctx context.Context, msg *tgbotapi.Message) error {
	term := joinArgs(msg.CommandArguments())
	if term == "" {
		return h.msg.SendMessage(msg.Chat.ID, "Usage: /search <term>")
	}

	rows, err := h.store.SearchMessages(ctx, msg.From.ID, term)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return h.msg.SendMessage(msg.Chat.ID, "No matches found.")
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, FormatSearchResult(row))
	}
	return h.msg.SendLines(msg.Chat.ID, lines, tgbotapi.ModeHTML)
}
