package bot

import (
	"CategorizerBot/internal/categorizer"
	"CategorizerBot/internal/config"
	"CategorizerBot/internal/database"
	"CategorizerBot/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 4242

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	copies    []tgbotapi.CopyMessageConfig
	failChats map[int64]bool
	nextID    int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if mc, ok := c.(tgbotapi.MessageConfig); ok && f.failChats[mc.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot is not a member of the channel chat")
	}
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, config)
	f.nextID++
	return tgbotapi.MessageID{MessageID: f.nextID}, nil
}

// texts - что отправлено или отредактировано в chatID, по порядку
func (f *fakeAPI) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

func (f *fakeAPI) last(t *testing.T, chatID int64) string {
	t.Helper()
	texts := f.texts(chatID)
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

func (f *fakeAPI) lastMarkup(t *testing.T) interface{} {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	m, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	return m.ReplyMarkup
}

type harness struct {
	api     *fakeAPI
	store   *database.Store
	handler *UpdateHandler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:bot_%s?mode=memory&cache=shared&_foreign_keys=on", name),
	}, log, slog.LevelInfo)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store := database.NewStore(db)
	t.Cleanup(func() { store.Close() })

	sessions, err := storage.NewMemoryStorage()
	require.NoError(t, err)

	api := &fakeAPI{failChats: map[int64]bool{}}
	msg := NewMessageHandler(api, log)
	coord := categorizer.NewCoordinator(store, sessions, nil, log)

	return &harness{
		api:     api,
		store:   store,
		handler: NewUpdateHandler(msg, store, coord, log, 4),
	}
}

func commandUpdate(text string) tgbotapi.Update {
	length := strings.IndexByte(text, ' ')
	if length < 0 {
		length = len(text)
	}
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			From:      &tgbotapi.User{ID: testUser},
			Chat:      &tgbotapi.Chat{ID: testUser},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
		},
	}
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 11,
			From:      &tgbotapi.User{ID: testUser},
			Chat:      &tgbotapi.Chat{ID: testUser},
			Text:      text,
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 3,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "q1",
			From:    &tgbotapi.User{ID: testUser},
			Message: &tgbotapi.Message{MessageID: 20, Chat: &tgbotapi.Chat{ID: testUser}},
			Data:    data,
		},
	}
}

func (h *harness) run(updates ...tgbotapi.Update) {
	for _, u := range updates {
		h.handler.HandleUpdate(context.Background(), u)
	}
}

func (h *harness) categoryID(t *testing.T, name string) int64 {
	t.Helper()
	cats, err := h.store.ListCategoriesFull(context.Background(), testUser)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("no category %q", name)
	return 0
}

func TestAddCategoryAndSetActive(t *testing.T) {
	h := newHarness(t)

	h.run(commandUpdate("/addcategory  Read   Later"))
	assert.Equal(t, "Category <b>Read Later</b> ready!", h.api.last(t, testUser))

	h.run(commandUpdate("/setcategory Read Later"))
	assert.Equal(t, "📁 Active category: <b>Read Later</b>", h.api.last(t, testUser))

	h.run(commandUpdate("/current"))
	assert.Equal(t, "Currently saving to <b>Read Later</b>.", h.api.last(t, testUser))

	h.run(commandUpdate("/setcategory Nope"))
	assert.Equal(t, "Unknown category. List them with /categories or create a new one.", h.api.last(t, testUser))
}

func TestUsageMessages(t *testing.T) {
	h := newHarness(t)

	for cmd, usage := range map[string]string{
		"/addcategory":    "Usage: /addcategory <name>",
		"/setcategory":    "Usage: /setcategory <name>",
		"/list":           "Usage: /list <category>",
		"/search":         "Usage: /search <term>",
		"/deletecategory": "Usage: /deletecategory <name>",
		"/setchannel":     "Usage: /setchannel <chat_id> (add me as admin first)",
	} {
		h.run(commandUpdate(cmd))
		assert.Equal(t, usage, h.api.last(t, testUser), cmd)
	}
}

func TestForwardSavesToActiveCategory(t *testing.T) {
	h := newHarness(t)
	h.run(commandUpdate("/addcategory Work"), commandUpdate("/setcategory Work"))

	h.run(textUpdate("remember <this>"))
	assert.Equal(t, "Saved to <b>Work</b> ✅", h.api.last(t, testUser))

	h.run(commandUpdate("/list Work"))
	assert.Contains(t, h.api.last(t, testUser), "1. remember <this> (saved ")
}

func TestForwardWithoutActiveAsksForCategory(t *testing.T) {
	h := newHarness(t)
	h.run(commandUpdate("/addcategory Ideas"))

	h.run(textUpdate("hello"))
	assert.Equal(t, "Choose a category for this snippet:", h.api.last(t, testUser))

	markup, ok := h.api.lastMarkup(t).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	id := h.categoryID(t, "Ideas")
	assert.Equal(t, fmt.Sprintf("cat:%d", id), *markup.InlineKeyboard[0][0].CallbackData)

	h.run(callbackUpdate(fmt.Sprintf("cat:%d", id)))
	assert.Equal(t, "Saved to <b>Ideas</b> ✅", h.api.last(t, testUser))

	h.run(callbackUpdate(fmt.Sprintf("cat:%d", id)))
	assert.Equal(t, "No pending message to save.", h.api.last(t, testUser))
}

func TestPickUnknownCategory(t *testing.T) {
	h := newHarness(t)
	h.run(commandUpdate("/addcategory Ideas"), textUpdate("hello"))

	h.run(callbackUpdate("cat:999999"))
	assert.Equal(t, "Category unavailable. Try forwarding again.", h.api.last(t, testUser))
}

func TestForwardWithoutCategories(t *testing.T) {
	h := newHarness(t)

	h.run(textUpdate("hello"))
	assert.Equal(t, "No active category. Use /addcategory &lt;name&gt; first.", h.api.last(t, testUser))

	h.run(textUpdate("   "))
	assert.Equal(t, "Cannot archive empty messages yet. Attach some text.", h.api.last(t, testUser))
}

func TestMenuAddCategoryFlow(t *testing.T) {
	h := newHarness(t)

	h.run(callbackUpdate("menu:add"))
	assert.Equal(t, "Send the new category name:", h.api.last(t, testUser))
	_, ok := h.api.lastMarkup(t).(tgbotapi.ForceReply)
	assert.True(t, ok)

	h.run(textUpdate("Recipes"))
	assert.Equal(t, "Category <b>Recipes</b> added.", h.api.last(t, testUser))

	h.run(callbackUpdate("menu:list"))
	assert.Equal(t, "Your categories:\n• Recipes", h.api.last(t, testUser))
}

func TestMenuSetCallback(t *testing.T) {
	h := newHarness(t)

	h.run(callbackUpdate("menu:set"))
	assert.Equal(t, "No categories available. Create one first.", h.api.last(t, testUser))

	h.run(commandUpdate("/addcategory Work"))
	h.run(callbackUpdate(fmt.Sprintf("set:%d", h.categoryID(t, "Work"))))
	assert.Equal(t, "📁 Active category: <b>Work</b>", h.api.last(t, testUser))

	h.run(callbackUpdate("set:999999"))
	assert.Equal(t, "Unable to set that category. It may no longer exist.", h.api.last(t, testUser))
}

func TestCallbacksAreAnswered(t *testing.T) {
	h := newHarness(t)
	h.run(callbackUpdate("menu:help"))

	require.NotEmpty(t, h.api.requests)
	cb, ok := h.api.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "q1", cb.CallbackQueryID)
	assert.Equal(t, helpText, h.api.last(t, testUser))
}

func TestSetChannel(t *testing.T) {
	const channel int64 = -1001234567890

	t.Run("invalid id", func(t *testing.T) {
		h := newHarness(t)
		h.run(commandUpdate("/setchannel abc"))
		assert.Equal(t, "Chat id must be an integer (e.g. -1001234567890).", h.api.last(t, testUser))
	})

	t.Run("unreachable chat stores nothing", func(t *testing.T) {
		h := newHarness(t)
		h.api.failChats[channel] = true

		h.run(commandUpdate(fmt.Sprintf("/setchannel %d", channel)))
		assert.Equal(t, "Could not access that chat. Ensure the bot is added as admin and the chat id is correct.",
			h.api.last(t, testUser))

		_, found, err := h.store.GetStorageChannel(context.Background(), testUser)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("linked and pinned", func(t *testing.T) {
		h := newHarness(t)

		h.run(commandUpdate(fmt.Sprintf("/setchannel %d", channel)))
		assert.Equal(t, []string{channelLinkedNotice}, h.api.texts(channel))
		assert.Equal(t, "Storage channel registered. Forwarded messages will also be copied there.", h.api.last(t, testUser))

		chatID, found, err := h.store.GetStorageChannel(context.Background(), testUser)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, channel, chatID)

		var pinned bool
		for _, r := range h.api.requests {
			if pin, ok := r.(tgbotapi.PinChatMessageConfig); ok && pin.ChatID == channel {
				pinned = true
			}
		}
		assert.True(t, pinned)

		h.run(commandUpdate("/clearchannel"))
		_, found, err = h.store.GetStorageChannel(context.Background(), testUser)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestSearchAndDelete(t *testing.T) {
	h := newHarness(t)
	h.run(commandUpdate("/addcategory A&B"), commandUpdate("/setcategory A&B"), textUpdate("Fish <and> chips"))

	h.run(commandUpdate("/search FISH"))
	assert.Contains(t, h.api.last(t, testUser), "• <b>A&amp;B</b> - Fish &lt;and&gt; chips")

	h.run(commandUpdate("/search nothing"))
	assert.Equal(t, "No matches found.", h.api.last(t, testUser))

	h.run(commandUpdate("/deletecategory A&B"))
	assert.Equal(t, "Category <b>A&amp;B</b> deleted with its saved messages.", h.api.last(t, testUser))

	h.run(commandUpdate("/list A&B"))
	assert.Equal(t, "Nothing stored for that category yet.", h.api.last(t, testUser))
}

func TestStartAndMenu(t *testing.T) {
	h := newHarness(t)

	h.run(commandUpdate("/start"))
	assert.Len(t, h.api.texts(testUser), 1, "no current category line without an active category")

	h.run(commandUpdate("/menu"))
	assert.Equal(t, "Quick actions:", h.api.last(t, testUser))
	markup, ok := h.api.lastMarkup(t).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "menu:no-categories", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestIgnoresBotsAndUnknownCommands(t *testing.T) {
	h := newHarness(t)

	u := textUpdate("hi")
	u.Message.From.IsBot = true
	h.run(u, commandUpdate("/unknown"))

	assert.Empty(t, h.api.texts(testUser))
}

func TestHandleUpdates_DrainsChannel(t *testing.T) {
	h := newHarness(t)

	updates := make(chan tgbotapi.Update, 3)
	updates <- commandUpdate("/help")
	updates <- commandUpdate("/help")
	updates <- commandUpdate("/help")
	close(updates)

	require.NoError(t, h.handler.HandleUpdates(context.Background(), updates))
	assert.Len(t, h.api.texts(testUser), 3)
}

func TestMessageHandler_CopyMessage(t *testing.T) {
	api := &fakeAPI{}
	h := NewMessageHandler(api, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id, err := h.CopyMessage(context.Background(), -100, 5, 77)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	require.Len(t, api.copies, 1)
	assert.Equal(t, int64(-100), api.copies[0].ChatID)
	assert.Equal(t, int64(5), api.copies[0].FromChatID)
	assert.Equal(t, 77, api.copies[0].MessageID)
}

func TestHandleUpdates_KeepsPerUserOrder(t *testing.T) {
	h := newHarness(t)
	h.run(commandUpdate("/addcategory Ideas"))

	updates := make(chan tgbotapi.Update, 30)
	for i := 0; i < 30; i++ {
		updates <- textUpdate(fmt.Sprintf("snippet %02d", i))
	}
	close(updates)
	require.NoError(t, h.handler.HandleUpdates(context.Background(), updates))

	h.run(callbackUpdate(fmt.Sprintf("cat:%d", h.categoryID(t, "Ideas"))))
	assert.Equal(t, "Saved to <b>Ideas</b> ✅", h.api.last(t, testUser))

	rows, err := h.store.ListMessages(context.Background(), testUser, "Ideas")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "snippet 29", rows[0].Text, "the last arrival stays pending")
}

func TestUserQueues(t *testing.T) {
	q := newUserQueues()

	require.True(t, q.push(1, textUpdate("a")))
	assert.False(t, q.push(1, textUpdate("b")))
	assert.False(t, q.push(1, textUpdate("c")))
	assert.True(t, q.push(2, textUpdate("other user")))

	u, ok := q.next(1)
	require.True(t, ok)
	assert.Equal(t, "b", u.Message.Text)
	u, ok = q.next(1)
	require.True(t, ok)
	assert.Equal(t, "c", u.Message.Text)

	_, ok = q.next(1)
	assert.False(t, ok)
	assert.True(t, q.push(1, textUpdate("d")), "drained user gets a fresh worker")
}
