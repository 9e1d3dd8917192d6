// Package database - хранилище бота, единственный код, который трогает базу.
//
// Каждый метод Store атомарен сам по себе. Между вызовами ничего не держится:
// набор категорий может поменяться между показом списка и выбором из него.
// "Не найдено" возвращается как bool, а не ошибкой.
package database

import (
	"time"

	"gorm.io/gorm"
)

// SearchLimit - максимум строк в SearchMessages. Пагинации нет.
const SearchLimit = 25

// Store - операции хранилища поверх gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет часы для saved_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore оборачивает открытое и смигрированное соединение.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB отдает соединение для служебных задач.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
