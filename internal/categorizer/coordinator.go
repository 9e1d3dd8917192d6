package categorizer

import (
	"CategorizerBot/internal/mirror"
	"CategorizerBot/internal/storage"
	pmodel "CategorizerBot/pkg/models"
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// OutcomeKind - какой ответ показать пользователю.
type OutcomeKind int

const (
	OutcomeSaved OutcomeKind = iota
	// Активная категория пропала между поиском и вставкой
	OutcomeSaveFailed
	OutcomeEmptyText
	OutcomeNoCategories
	OutcomeAwaitingChoice
	OutcomeCategoryAdded
	OutcomeEmptyCategoryName
	OutcomeNoPending
	OutcomeUnavailable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSaved:
		return "saved"
	case OutcomeSaveFailed:
		return "save_failed"
	case OutcomeEmptyText:
		return "empty_text"
	case OutcomeNoCategories:
		return "no_categories"
	case OutcomeAwaitingChoice:
		return "awaiting_choice"
	case OutcomeCategoryAdded:
		return "category_added"
	case OutcomeEmptyCategoryName:
		return "empty_category_name"
	case OutcomeNoPending:
		return "no_pending"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

type Outcome struct {
	Kind         OutcomeKind
	CategoryName string
	// Только для OutcomeSaved
	MessageID int64
	// Только для OutcomeAwaitingChoice
	Choices []pmodel.CategoryRef
}

// Store - то, что координатору нужно от хранилища.
type Store interface {
	MessageSaver
	AddCategory(ctx context.Context, userID int64, name string) error
	GetActiveCategory(ctx context.Context, userID int64) (string, bool, error)
	ListCategoriesFull(ctx context.Context, userID int64) ([]pmodel.CategoryRef, error)
}

// Archiver получает каждое успешное сохранение.
type Archiver interface {
	Submit(job mirror.Job)
}

// Coordinator разбирает входящий текст пользователя: сохраняет в активную
// категорию, откладывает до выбора категории или принимает как имя новой.
type Coordinator struct {
	store    Store
	resolver *Resolver
	sessions storage.SessionStore
	archiver Archiver
	log      *slog.Logger
}

func NewCoordinator(store Store, sessions storage.SessionStore, archiver Archiver, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		resolver: NewResolver(store),
		sessions: sessions,
		archiver: archiver,
		log:      log.With("component", "coordinator"),
	}
}

// BeginAddCategory - следующий текст пользователя станет именем категории.
// Отложенный фрагмент при этом сохраняется.
func (c *Coordinator) BeginAddCategory(userID int64) {
	unlock := c.sessions.Lock(userID)
	defer unlock()

	session := c.sessions.Get(userID)
	session.AwaitingCategoryName = true
	c.sessions.Set(userID, session)
}

// State возвращает текущее состояние сессии.
func (c *Coordinator) State(userID int64) pmodel.SessionState {
	return c.sessions.Get(userID).State()
}

// HandleText обрабатывает обычный или пересланный текст.
func (c *Coordinator) HandleText(ctx context.Context, userID int64, snippet pmodel.Snippet) (Outcome, error) {
	unlock := c.sessions.Lock(userID)
	defer unlock()

	session := c.sessions.Get(userID)

	if session.AwaitingCategoryName {
		session.AwaitingCategoryName = false
		c.sessions.Set(userID, session)
		return c.addCategory(ctx, userID, snippet.Text)
	}

	if strings.TrimSpace(snippet.Text) == "" {
		return Outcome{Kind: OutcomeEmptyText}, nil
	}

	active, ok, err := c.store.GetActiveCategory(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if ok {
		return c.save(ctx, SaveRequest{UserID: userID, Snippet: snippet, CategoryName: active}, active, OutcomeSaveFailed)
	}

	categories, err := c.store.ListCategoriesFull(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if len(categories) == 0 {
		return Outcome{Kind: OutcomeNoCategories}, nil
	}

	if session.Pending != nil {
		c.log.Debug("Replacing pending snippet", "user_id", userID)
	}
	session.Pending = pmodel.NewPendingSnippet(snippet, categories)
	c.sessions.Set(userID, session)

	return Outcome{Kind: OutcomeAwaitingChoice, Choices: categories}, nil
}

// Pick сохраняет отложенный фрагмент в выбранную категорию. Фрагмент
// сбрасывается при любом исходе.
func (c *Coordinator) Pick(ctx context.Context, userID, categoryID int64) (Outcome, error) {
	unlock := c.sessions.Lock(userID)
	defer unlock()

	session := c.sessions.Get(userID)
	pending := session.Pending
	if pending == nil {
		return Outcome{Kind: OutcomeNoPending}, nil
	}

	session.Pending = nil
	c.sessions.Set(userID, session)

	name, ok := pending.Categories[categoryID]
	if !ok {
		return Outcome{Kind: OutcomeUnavailable}, nil
	}

	return c.save(ctx, SaveRequest{UserID: userID, Snippet: pending.Snippet, CategoryID: &categoryID}, name, OutcomeUnavailable)
}

func (c *Coordinator) addCategory(ctx context.Context, userID int64, text string) (Outcome, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return Outcome{Kind: OutcomeEmptyCategoryName}, nil
	}

	if err := c.store.AddCategory(ctx, userID, name); err != nil {
		return Outcome{}, err
	}

	c.log.Info("Category added", "user_id", userID, "category", name)
	return Outcome{Kind: OutcomeCategoryAdded, CategoryName: name}, nil
}

// save сохраняет фрагмент и отдает его в архив. absent - исход, если
// категория уже не находится.
func (c *Coordinator) save(ctx context.Context, req SaveRequest, categoryName string, absent OutcomeKind) (Outcome, error) {
	messageID, ok, err := c.resolver.Save(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		c.log.Warn("Category did not resolve", "user_id", req.UserID, "category", categoryName)
		return Outcome{Kind: absent, CategoryName: categoryName}, nil
	}

	c.log.Info("Message saved", "user_id", req.UserID, "message_id", messageID, "category", categoryName)

	if c.archiver != nil {
		c.archiver.Submit(mirror.Job{
			UserID:          req.UserID,
			MessageID:       messageID,
			SourceChatID:    req.Snippet.SourceChatID,
			SourceMessageID: req.Snippet.SourceMessageID,
			CategoryName:    categoryName,
		})
	}

	return Outcome{Kind: OutcomeSaved, CategoryName: categoryName, MessageID: messageID}, nil
}
