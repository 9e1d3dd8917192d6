package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *UpdateHandler) handleMenuCallback(ctx context.Context, query *tgbotapi.CallbackQuery, action string) error {
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	switch action {
	case menuList:
		names, err := h.store.ListCategories(ctx, userID)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return h.msg.SendMessage(chatID, "No categories yet. Try adding one.")
		}
		return h.msg.SendMessage(chatID, formatCategoryList(names))

	case menuCurrent:
		active, ok, err := h.store.GetActiveCategory(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return h.msg.SendMessage(chatID, "No active category. Set one first.")
		}
		return h.msg.SendHTML(chatID, fmt.Sprintf("Currently saving to <b>%s</b>.", escape(active)))

	case menuChannel:
		return h.msg.SendMessage(chatID, "Link a storage channel with /setchannel <chat_id>. "+
			"Add this bot as admin first, then forward messages to archive them automatically.")

	case menuHelp:
		return h.msg.SendMessage(chatID, helpText)

	case menuAdd:
		h.coord.BeginAddCategory(userID)
		return h.msg.SendWithKeyboard(chatID, "Send the new category name:", tgbotapi.ForceReply{
			ForceReply: true,
			Selective:  true,
		})

	case menuSet:
		categories, err := h.store.ListCategoriesFull(ctx, userID)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return h.msg.SendMessage(chatID, "No categories available. Create one first.")
		}
		return h.msg.SendWithKeyboard(chatID, "Pick a category to set as active:", CreateCategoriesKeyboard(categories, prefixSet))

	case menuNoCategories:
		return h.msg.SendMessage(chatID, "No categories yet. Use the Add category button first.")
	}

	return nil
}

func (h *UpdateHandler) handleSetCallback(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) error {
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	categoryID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return h.msg.EditHTML(chatID, messageID, "Unable to set that category. It may no longer exist.")
	}

	name, ok, err := h.store.SetActiveCategoryByID(ctx, query.From.ID, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return h.msg.EditHTML(chatID, messageID, "Unable to set that category. It may no longer exist.")
	}
	return h.msg.EditHTML(chatID, messageID, fmt.Sprintf("📁 Active category: <b>%s</b>", escape(name)))
}

func (h *UpdateHandler) handlePickCallback(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) error {
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	categoryID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		// Такой id мы не предлагали: как пропавшая категория
		categoryID = -1
	}

	outcome, err := h.coord.Pick(ctx, query.From.ID, categoryID)
	if err != nil {
		return err
	}
	return h.msg.EditHTML(chatID, messageID, renderOutcome(outcome))
}
