// Package storage хранит сессии пользователей в памяти.
//
// После перезапуска сессии теряются: пользователь просто пересылает фрагмент еще раз.
package storage

import (
	pmodel "CategorizerBot/pkg/models"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCacheSize = 1000
	DefaultTTL       = 24 * time.Hour
)

type SessionStore interface {
	Get(userID int64) pmodel.Session
	Set(userID int64, session pmodel.Session)
	Clear(userID int64)
	// Lock сериализует чтение-изменение-запись сессии одного пользователя
	Lock(userID int64) (unlock func())
	CleanupExpiredData() int
	GetStats() map[string]interface{}
}

type MemoryStorage struct {
	mu sync.Mutex

	sessions *lru.Cache[int64, pmodel.Session]
	// Время последнего Set для TTL
	touchedAt map[int64]time.Time

	ttl      time.Duration
	capacity int
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*MemoryStorage)

// WithTTL - сессии без изменений дольше ttl истекают. 0 отключает.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStorage) {
		s.ttl = ttl
	}
}

func WithCapacity(capacity int) Option {
	return func(s *MemoryStorage) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

// NewMemoryStorage создает хранилище с ограничением по размеру. При переполнении
// вытесняется самая давняя сессия.
func NewMemoryStorage(opts ...Option) (*MemoryStorage, error) {
	s := &MemoryStorage{
		touchedAt: make(map[int64]time.Time),
		ttl:       DefaultTTL,
		capacity:  DefaultCacheSize,
		now:       time.Now,
		locks:     make(map[int64]*userLock),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Вытеснение идет внутри Add/Remove, s.mu уже захвачен
	sessions, err := lru.NewWithEvict[int64, pmodel.Session](s.capacity, func(userID int64, _ pmodel.Session) {
		delete(s.touchedAt, userID)
	})
	if err != nil {
		return nil, err
	}
	s.sessions = sessions

	return s, nil
}

// Get возвращает сессию пользователя или пустую.
func (s *MemoryStorage) Get(userID int64) pmodel.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired(userID) {
		s.sessions.Remove(userID)
		return pmodel.Session{}
	}

	session, _ := s.sessions.Get(userID)
	return session
}

// Set сохраняет сессию. Пустая сессия удаляется.
func (s *MemoryStorage) Set(userID int64, session pmodel.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.IsIdle() {
		s.sessions.Remove(userID)
		delete(s.touchedAt, userID)
		return
	}

	s.sessions.Add(userID, session)
	s.touchedAt[userID] = s.now()
}

func (s *MemoryStorage) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions.Remove(userID)
	delete(s.touchedAt, userID)
}

func (s *MemoryStorage) Lock(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.locksMu.Unlock()
		})
	}
}

// CleanupExpiredData удаляет просроченные сессии и возвращает их число.
func (s *MemoryStorage) CleanupExpiredData() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}

	var expired []int64
	for userID := range s.touchedAt {
		if s.expired(userID) {
			expired = append(expired, userID)
		}
	}
	for _, userID := range expired {
		s.sessions.Remove(userID)
		delete(s.touchedAt, userID)
	}

	return len(expired)
}

// expired вызывается под s.mu
func (s *MemoryStorage) expired(userID int64) bool {
	if s.ttl <= 0 {
		return false
	}
	touched, ok := s.touchedAt[userID]
	return ok && s.now().Sub(touched) > s.ttl
}

// GetStats возвращает счетчики для мониторинга.
func (s *MemoryStorage) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, naming := 0, 0
	for _, userID := range s.sessions.Keys() {
		session, ok := s.sessions.Peek(userID)
		if !ok {
			continue
		}
		if session.Pending != nil {
			pending++
		}
		if session.AwaitingCategoryName {
			naming++
		}
	}

	s.locksMu.Lock()
	lockedUsers := len(s.locks)
	s.locksMu.Unlock()

	return map[string]interface{}{
		"sessions_size":          s.sessions.Len(),
		"pending_snippets":       pending,
		"awaiting_category_name": naming,
		"locked_users":           lockedUsers,
		"cache_capacity":         s.capacity,
		"session_ttl":            s.ttl.String(),
	}
}
