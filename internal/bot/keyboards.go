package bot

import (
	pmodel "CategorizerBot/pkg/models"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Данные колбэка: "<префикс>:<аргумент>"
const (
	prefixMenu = "menu"
	prefixSet  = "set"
	prefixPick = "cat"
)

const (
	menuList         = "list"
	menuSet          = "set"
	menuNoCategories = "no-categories"
	menuAdd          = "add"
	menuCurrent      = "current"
	menuChannel      = "channel"
	menuHelp         = "help"
)

const buttonLabelLength = 32

func menuData(action string) string {
	return prefixMenu + ":" + action
}

func CreateMenuKeyboard(hasCategories bool) tgbotapi.InlineKeyboardMarkup {
	setAction := menuNoCategories
	if hasCategories {
		setAction = menuSet
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("List categories", menuData(menuList)),
			tgbotapi.NewInlineKeyboardButtonData("Set active category", menuData(setAction)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add category", menuData(menuAdd)),
			tgbotapi.NewInlineKeyboardButtonData("Current category", menuData(menuCurrent)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Link channel", menuData(menuChannel)),
			tgbotapi.NewInlineKeyboardButtonData("Help", menuData(menuHelp)),
		),
	)
}

// CreateCategoriesKeyboard раскладывает категории по две в ряд.
func CreateCategoriesKeyboard(categories []pmodel.CategoryRef, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, category := range categories {
		data := fmt.Sprintf("%s:%d", prefix, category.ID)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(cutRunes(category.Name, buttonLabelLength), data))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
