package bot

import (
	"CategorizerBot/internal/database/models"
	apperrors "CategorizerBot/internal/errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	snippetPreviewLength = 150
	// Длиннее Telegram не принимает
	maxMessageLength = 4096

	savedAtLayout = "2006-01-02 15:04:05"
)

const helpText = "Commands:\n" +
	"/menu - show quick action buttons\n" +
	"/addcategory <name> - create a category\n" +
	"/setcategory <name> - make it the active target for forwarded messages\n" +
	"/categories - list your categories\n" +
	"/current - show the active category\n" +
	"/deletecategory <name> - delete a category and everything saved in it\n" +
	"/setchannel <chat_id> - optional archive to a private channel\n" +
	"/clearchannel - remove the archive channel\n" +
	"/list <name> - display stored messages in a category\n" +
	"/search <term> - search across all saved snippets\n" +
	"Forward any message to save it under the active or chosen category."

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// Truncate обрезает текст до length рун и ставит многоточие.
func Truncate(text string, length int) string {
	if cut := cutRunes(text, length); cut != text {
		return cut + "…"
	}
	return text
}

func cutRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ChannelReference - ссылка на архивную копию. Для супергрупп и каналов
// (id с -100) это ссылка t.me.
func ChannelReference(chatID, messageID *int64) (string, bool) {
	if chatID == nil || messageID == nil {
		return "", false
	}

	id := strconv.FormatInt(*chatID, 10)
	if internal, ok := strings.CutPrefix(id, "-100"); ok {
		return fmt.Sprintf("https://t.me/c/%s/%d", internal, *messageID), true
	}
	return fmt.Sprintf("chat %d message %d", *chatID, *messageID), true
}

// FormatMessageSummary - строка /list обычным текстом.
func FormatMessageSummary(index int, row models.MessageRow) string {
	line := fmt.Sprintf("%d. %s (saved %s)", index+1, Truncate(row.Text, snippetPreviewLength), row.SavedAt.Format(savedAtLayout))
	if ref, ok := ChannelReference(row.LinkedChatID, row.LinkedMessageID); ok {
		line += " - " + ref
	}
	return line
}

// FormatSearchResult - строка /search в HTML.
func FormatSearchResult(row models.SearchRow) string {
	suffix := escape(fmt.Sprintf("(saved %s)", row.SavedAt.Format(savedAtLayout)))
	if ref, ok := ChannelReference(row.LinkedChatID, row.LinkedMessageID); ok {
		suffix += " - " + escape(ref)
	}
	return fmt.Sprintf("• <b>%s</b> - %s %s", escape(row.CategoryName), escape(Truncate(row.Text, snippetPreviewLength)), suffix)
}

func formatCategoryList(names []string) string {
	var b strings.Builder
	b.WriteString("Your categories:")
	for _, name := range names {
		b.WriteString("\n• ")
		b.WriteString(name)
	}
	return b.String()
}

// chunkLines склеивает строки в сообщения не длиннее limit. Строка длиннее
// лимита уходит отдельно, пусть ее отклоняет Telegram.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks []string
		b      strings.Builder
	)
	for _, line := range lines {
		if b.Len() > 0 && b.Len()+1+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// ParseChannelID проверяет аргумент /setchannel.
func ParseChannelID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, apperrors.Validation("Chat id must be an integer (e.g. -1001234567890).")
	}
	return id, nil
}

// joinArgs нормализует аргументы так же, как хранятся имена.
func joinArgs(args string) string {
	return strings.Join(strings.Fields(args), " ")
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
