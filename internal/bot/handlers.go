package bot

import (
	"CategorizerBot/internal/categorizer"
	"CategorizerBot/internal/database/models"
	pmodel "CategorizerBot/pkg/models"
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkerLimit = 16

const genericFailure = "Something went wrong. Please try again later."

// Store - то, что обработчикам команд нужно от хранилища.
type Store interface {
	AddCategory(ctx context.Context, userID int64, name string) error
	ListCategories(ctx context.Context, userID int64) ([]string, error)
	ListCategoriesFull(ctx context.Context, userID int64) ([]pmodel.CategoryRef, error)
	SetActiveCategory(ctx context.Context, userID int64, name string) (bool, error)
	SetActiveCategoryByID(ctx context.Context, userID, categoryID int64) (string, bool, error)
	GetActiveCategory(ctx context.Context, userID int64) (string, bool, error)
	DeleteCategory(ctx context.Context, userID int64, name string) (bool, error)
	ListMessages(ctx context.Context, userID int64, categoryName string) ([]models.MessageRow, error)
	SearchMessages(ctx context.Context, userID int64, term string) ([]models.SearchRow, error)
	SetStorageChannel(ctx context.Context, userID, chatID int64) error
	ClearStorageChannel(ctx context.Context, userID int64) error
}

// Coordinator ведет состояние диалога каждого пользователя.
type Coordinator interface {
	BeginAddCategory(userID int64)
	HandleText(ctx context.Context, userID int64, snippet pmodel.Snippet) (categorizer.Outcome, error)
	Pick(ctx context.Context, userID, categoryID int64) (categorizer.Outcome, error)
}

type commandFunc func(ctx context.Context, msg *tgbotapi.Message) error

type callbackFunc func(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) error

type UpdateHandler struct {
	msg     *MessageHandler
	store   Store
	coord   Coordinator
	log     *slog.Logger
	workers int

	commands  map[string]commandFunc
	callbacks map[string]callbackFunc
}

func NewUpdateHandler(msg *MessageHandler, store Store, coord Coordinator, log *slog.Logger, workers int) *UpdateHandler {
	if workers <= 0 {
		workers = DefaultWorkerLimit
	}

	h := &UpdateHandler{
		msg:     msg,
		store:   store,
		coord:   coord,
		log:     log,
		workers: workers,
	}

	h.commands = map[string]commandFunc{
		"start":          h.handleStart,
		"help":           h.handleHelp,
		"menu":           h.handleMenu,
		"addcategory":    h.handleAddCategory,
		"categories":     h.handleCategories,
		"setcategory":    h.handleSetCategory,
		"current":        h.handleCurrent,
		"deletecategory": h.handleDeleteCategory,
		"setchannel":     h.handleSetChannel,
		"clearchannel":   h.handleClearChannel,
		"list":           h.handleList,
		"search":         h.handleSearch,
	}
	h.callbacks = map[string]callbackFunc{
		prefixMenu: h.handleMenuCallback,
		prefixSet:  h.handleSetCallback,
		prefixPick: h.handlePickCallback,
	}

	return h
}

// HandleUpdates читает обновления до закрытия канала или отмены ctx и ждет
// обработчики, которые еще работают. Разные пользователи обрабатываются
// параллельно, обновления одного пользователя - строго по порядку прихода.
func (h *UpdateHandler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	g := new(errgroup.Group)
	g.SetLimit(h.workers)
	queues := newUserQueues()

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}

			key := senderID(update)
			if !queues.push(key, update) {
				// Очередь пользователя уже разбирает другой воркер
				continue
			}
			g.Go(func() error {
				for u, more := update, true; more; u, more = queues.next(key) {
					h.HandleUpdate(ctx, u)
				}
				return nil
			})
		}
	}
}

// userQueues - очереди обновлений по пользователям. Наличие ключа в pending
// означает, что у пользователя есть работающий воркер.
type userQueues struct {
	mu      sync.Mutex
	pending map[int64][]tgbotapi.Update
}

func newUserQueues() *userQueues {
	return &userQueues{pending: make(map[int64][]tgbotapi.Update)}
}

// push возвращает true, если воркера у пользователя нет и update нужно
// обработать вызывающему. Иначе update встает в очередь.
func (q *userQueues) push(key int64, update tgbotapi.Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if backlog, running := q.pending[key]; running {
		q.pending[key] = append(backlog, update)
		return false
	}
	q.pending[key] = nil
	return true
}

// next отдает следующее обновление пользователя. На пустой очереди снимает
// отметку о воркере и возвращает false.
func (q *userQueues) next(key int64) (tgbotapi.Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog := q.pending[key]
	if len(backlog) == 0 {
		delete(q.pending, key)
		return tgbotapi.Update{}, false
	}
	q.pending[key] = backlog[1:]
	return backlog[0], true
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

// HandleUpdate передает обновление обработчику команды, колбэка или текста.
func (h *UpdateHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := h.log.With("request_id", uuid.NewString(), "update_id", update.UpdateID)

	switch {
	case update.CallbackQuery != nil:
		h.dispatchCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil:
		h.dispatchMessage(ctx, log, update.Message)
	}
}

func (h *UpdateHandler) dispatchMessage(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	log = log.With("user_id", msg.From.ID, "chat_id", msg.Chat.ID)

	if msg.IsCommand() {
		handler, ok := h.commands[msg.Command()]
		if !ok {
			log.Debug("Unknown command", "command", msg.Command())
			return
		}
		log.Debug("Command", "command", msg.Command())
		if err := handler(ctx, msg); err != nil {
			h.fail(log, msg.Chat.ID, err)
		}
		return
	}

	if err := h.handleText(ctx, msg); err != nil {
		h.fail(log, msg.Chat.ID, err)
	}
}

func (h *UpdateHandler) dispatchCallback(ctx context.Context, log *slog.Logger, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		return
	}
	log = log.With("user_id", query.From.ID, "callback", query.Data)

	h.msg.AnswerCallback(query.ID)

	prefix, arg, _ := strings.Cut(query.Data, ":")
	handler, ok := h.callbacks[prefix]
	if !ok {
		log.Debug("Unknown callback")
		return
	}
	if err := handler(ctx, query, arg); err != nil {
		h.fail(log, query.Message.Chat.ID, err)
	}
}

func (h *UpdateHandler) fail(log *slog.Logger, chatID int64, err error) {
	log.Error("Update failed", "error", err)
	if sendErr := h.msg.SendMessage(chatID, genericFailure); sendErr != nil {
		log.Warn("Could not report failure", "error", sendErr)
	}
}
