package database

import (
	"CategorizerBot/internal/database/models"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveOptions - выбор категории и метаданные пересылки для SaveMessage.
// Решает первый заданный селектор: CategoryID, потом CategoryName, потом активная.
type SaveOptions struct {
	CategoryID   *int64
	CategoryName string

	OriginalChat   *string
	OriginalSender *string
	ForwardDate    *string
}

// SaveMessage сохраняет текст в найденную категорию и возвращает id.
// Пустой текст или ненайденная категория - false, в базу ничего не пишется.
func (s *Store) SaveMessage(ctx context.Context, userID int64, text string, opts SaveOptions) (int64, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false, nil
	}

	var messageID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryID, ok, err := resolveCategory(tx, userID, opts)
		if err != nil || !ok {
			return err
		}

		message := &models.Message{
			UserID:         userID,
			CategoryID:     categoryID,
			Text:           text,
			OriginalChat:   opts.OriginalChat,
			OriginalSender: opts.OriginalSender,
			ForwardDate:    opts.ForwardDate,
			SavedAt:        models.NewTimestamp(s.now()),
		}
		if err := tx.Omit(clause.Associations).Create(message).Error; err != nil {
			return err
		}

		messageID = message.ID
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("save message: %w", err)
	}

	return messageID, messageID != 0, nil
}

func resolveCategory(tx *gorm.DB, userID int64, opts SaveOptions) (int64, bool, error) {
	var ids []int64
	var result *gorm.DB

	switch {
	case opts.CategoryID != nil:
		result = tx.Model(&models.Category{}).
			Where("user_id = ? AND id = ?", userID, *opts.CategoryID).
			Pluck("id", &ids)
	case opts.CategoryName != "":
		result = tx.Model(&models.Category{}).
			Where("user_id = ? AND name = ?", userID, opts.CategoryName).
			Pluck("id", &ids)
	default:
		result = tx.Model(&models.ActiveCategory{}).
			Where("user_id = ?", userID).
			Pluck("category_id", &ids)
	}
	if result.Error != nil {
		return 0, false, result.Error
	}

	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// AttachForwardCopy записывает (или заменяет) ссылку на архивную копию.
func (s *Store) AttachForwardCopy(ctx context.Context, messageID, chatID, forwardedMessageID int64) error {
	link := &models.MessageLink{
		MessageID:          messageID,
		ForwardedChatID:    chatID,
		ForwardedMessageID: forwardedMessageID,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"forwarded_chat_id", "forwarded_message_id"}),
	}).Create(link)
	if result.Error != nil {
		return fmt.Errorf("attach forward copy: %w", result.Error)
	}

	return nil
}

const rowColumns = "m.text AS text, m.saved_at AS saved_at, " +
	"ml.forwarded_chat_id AS linked_chat_id, ml.forwarded_message_id AS linked_message_id"

func (s *Store) messagesQuery(ctx context.Context, userID int64) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("messages AS m").
		Joins("JOIN categories c ON m.category_id = c.id").
		Joins("LEFT JOIN message_links ml ON ml.message_id = m.id").
		Where("m.user_id = ?", userID).
		Order("m.saved_at DESC, m.id DESC")
}

// ListMessages - сообщения категории, новые первыми. Неизвестная категория - пустой список.
func (s *Store) ListMessages(ctx context.Context, userID int64, categoryName string) ([]models.MessageRow, error) {
	var rows []models.MessageRow
	result := s.messagesQuery(ctx, userID).
		Select("m.id AS id, "+rowColumns).
		Where("c.name = ?", strings.TrimSpace(categoryName)).
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("list messages: %w", result.Error)
	}

	return rows, nil
}

// SearchMessages ищет подстроку без учета регистра, новые первыми, не больше SearchLimit.
func (s *Store) SearchMessages(ctx context.Context, userID int64, term string) ([]models.SearchRow, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var rows []models.SearchRow
	result := s.messagesQuery(ctx, userID).
		Select("c.name AS category_name, "+rowColumns).
		Where("LOWER(m.text) LIKE ? ESCAPE '!'", pattern).
		Limit(SearchLimit).
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("search messages: %w", result.Error)
	}

	return rows, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike экранирует term для LIKE.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
