// Package categorizer решает, куда сохранить входящий фрагмент, и ведет диалог
// выбора категории, когда это неочевидно.
package categorizer

import (
	"CategorizerBot/internal/database"
	pmodel "CategorizerBot/pkg/models"
	"context"
)

// MessageSaver - операция хранилища, на которую ложится резолвер.
type MessageSaver interface {
	SaveMessage(ctx context.Context, userID int64, text string, opts database.SaveOptions) (int64, bool, error)
}

// SaveRequest - фрагмент и, если есть, его категория. Без CategoryID и
// CategoryName используется активная.
type SaveRequest struct {
	UserID       int64
	Snippet      pmodel.Snippet
	CategoryID   *int64
	CategoryName string
}

// Resolver без состояния.
type Resolver struct {
	store MessageSaver
}

func NewResolver(store MessageSaver) *Resolver {
	return &Resolver{store: store}
}

// Save сохраняет фрагмент и возвращает id. false - пустой текст или категория не найдена.
func (r *Resolver) Save(ctx context.Context, req SaveRequest) (int64, bool, error) {
	return r.store.SaveMessage(ctx, req.UserID, req.Snippet.Text, database.SaveOptions{
		CategoryID:     req.CategoryID,
		CategoryName:   req.CategoryName,
		OriginalChat:   req.Snippet.OriginalChat,
		OriginalSender: req.Snippet.OriginalSender,
		ForwardDate:    req.Snippet.ForwardDate,
	})
}
