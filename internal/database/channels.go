package database

import (
	"CategorizerBot/internal/database/models"
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

// SetStorageChannel привязывает (или перепривязывает) архивный канал пользователя.
func (s *Store) SetStorageChannel(ctx context.Context, userID, chatID int64) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id"}),
	}).Create(&models.StorageChannel{UserID: userID, ChatID: chatID})
	if result.Error != nil {
		return fmt.Errorf("set storage channel: %w", result.Error)
	}

	return nil
}

// ClearStorageChannel отвязывает архивный канал. Без привязки ничего не делает.
func (s *Store) ClearStorageChannel(ctx context.Context, userID int64) error {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.StorageChannel{})
	if result.Error != nil {
		return fmt.Errorf("clear storage channel: %w", result.Error)
	}

	return nil
}

// GetStorageChannel возвращает привязанный архивный чат, если он есть.
func (s *Store) GetStorageChannel(ctx context.Context, userID int64) (int64, bool, error) {
	var chatIDs []int64
	result := s.db.WithContext(ctx).
		Model(&models.StorageChannel{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("chat_id", &chatIDs)
	if result.Error != nil {
		return 0, false, fmt.Errorf("get storage channel: %w", result.Error)
	}

	if len(chatIDs) == 0 {
		return 0, false, nil
	}
	return chatIDs[0], true, nil
}
