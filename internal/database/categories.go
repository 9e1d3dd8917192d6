package database

import (
	"CategorizerBot/internal/database/models"
	apperrors "CategorizerBot/internal/errors"
	pmodel "CategorizerBot/pkg/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const categoryOrder = "LOWER(name), name"

// AddCategory создает категорию. Повторное имя ничего не меняет.
func (s *Store) AddCategory(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.Validation("Category name cannot be empty.")
	}

	category := &models.Category{UserID: userID, Name: name}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(category)
	if result.Error != nil {
		return fmt.Errorf("add category: %w", result.Error)
	}

	return nil
}

// ListCategories возвращает имена категорий без учета регистра в сортировке.
func (s *Store) ListCategories(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	result := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("user_id = ?", userID).
		Order(categoryOrder).
		Pluck("name", &names)
	if result.Error != nil {
		return nil, fmt.Errorf("list categories: %w", result.Error)
	}

	return names, nil
}

// ListCategoriesFull - id и имена в том же порядке, что ListCategories.
func (s *Store) ListCategoriesFull(ctx context.Context, userID int64) ([]pmodel.CategoryRef, error) {
	var categories []models.Category
	result := s.db.WithContext(ctx).
		Select("id", "name").
		Where("user_id = ?", userID).
		Order(categoryOrder).
		Find(&categories)
	if result.Error != nil {
		return nil, fmt.Errorf("list categories: %w", result.Error)
	}

	refs := make([]pmodel.CategoryRef, 0, len(categories))
	for _, c := range categories {
		refs = append(refs, pmodel.CategoryRef{ID: c.ID, Name: c.Name})
	}
	return refs, nil
}

// SetActiveCategory делает категорию активной. На неизвестное имя
// возвращает false и текущую активную не трогает.
func (s *Store) SetActiveCategory(ctx context.Context, userID int64, name string) (bool, error) {
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, "user_id = ? AND name = ?", userID, strings.TrimSpace(name))
		if err != nil || category == nil {
			return err
		}
		found = true
		return upsertActive(tx, userID, category.ID)
	})
	if err != nil {
		return false, fmt.Errorf("set active category: %w", err)
	}

	return found, nil
}

// SetActiveCategoryByID - то же по id из клавиатуры; возвращает имя для подтверждения.
func (s *Store) SetActiveCategoryByID(ctx context.Context, userID, categoryID int64) (string, bool, error) {
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, "user_id = ? AND id = ?", userID, categoryID)
		if err != nil || category == nil {
			return err
		}
		name = category.Name
		return upsertActive(tx, userID, category.ID)
	})
	if err != nil {
		return "", false, fmt.Errorf("set active category: %w", err)
	}

	return name, name != "", nil
}

// GetActiveCategory возвращает имя активной категории.
func (s *Store) GetActiveCategory(ctx context.Context, userID int64) (string, bool, error) {
	var names []string
	result := s.db.WithContext(ctx).
		Table("active_categories AS ac").
		Joins("JOIN categories c ON ac.category_id = c.id").
		Where("ac.user_id = ?", userID).
		Limit(1).
		Pluck("c.name", &names)
	if result.Error != nil {
		return "", false, fmt.Errorf("get active category: %w", result.Error)
	}

	if len(names) == 0 {
		return "", false, nil
	}
	return names[0], true, nil
}

// DeleteCategory удаляет категорию вместе с сообщениями, их ссылками на архив
// и активным указателем в одной транзакции, не полагаясь на внешние ключи.
func (s *Store) DeleteCategory(ctx context.Context, userID int64, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, "user_id = ? AND name = ?", userID, strings.TrimSpace(name))
		if err != nil || category == nil {
			return err
		}

		messageIDs := tx.Model(&models.Message{}).Select("id").Where("category_id = ?", category.ID)
		if err := tx.Where("message_id IN (?)", messageIDs).Delete(&models.MessageLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.ActiveCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(category).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}

	return deleted, nil
}

// findCategory возвращает nil без ошибки, если ничего не нашлось.
func findCategory(tx *gorm.DB, query string, args ...any) (*models.Category, error) {
	var category models.Category
	result := tx.Where(query, args...).Take(&category)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &category, nil
}

func upsertActive(tx *gorm.DB, userID, categoryID int64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"category_id"}),
	}).Create(&models.ActiveCategory{UserID: userID, CategoryID: categoryID}).Error
}
