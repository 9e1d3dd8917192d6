// Package mirror копирует сохраненные фрагменты в архивный канал пользователя.
//
// Одна попытка на фрагмент. Ошибки пишутся в лог и не влияют на результат сохранения.
package mirror

import (
	apperrors "CategorizerBot/internal/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Copier - часть Telegram API, нужная зеркалу.
type Copier interface {
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)
	SendText(ctx context.Context, chatID int64, text string) error
}

// ChannelStore - часть хранилища, нужная зеркалу.
type ChannelStore interface {
	GetStorageChannel(ctx context.Context, userID int64) (int64, bool, error)
	AttachForwardCopy(ctx context.Context, messageID, chatID, forwardedMessageID int64) error
}

// Limiter ограничивает частоту вызовов на канал.
type Limiter interface {
	Wait(ctx context.Context, key int64) error
}

// Job - один сохраненный фрагмент для копирования.
type Job struct {
	UserID    int64
	MessageID int64

	SourceChatID    int64
	SourceMessageID int

	CategoryName string
}

type Mirror struct {
	copier  Copier
	store   ChannelStore
	limiter Limiter
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

type Option func(*Mirror)

// WithLimiter ограничивает частоту копий на канал.
func WithLimiter(l Limiter) Option {
	return func(m *Mirror) {
		m.limiter = l
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Mirror) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Mirror) {
		m.now = now
	}
}

func New(copier Copier, store ChannelStore, log *slog.Logger, opts ...Option) *Mirror {
	m := &Mirror{
		copier:  copier,
		store:   store,
		log:     log.With("component", "mirror"),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit копирует в фоне, вызывающий не ждет.
func (m *Mirror) Submit(job Job) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		if err := m.Archive(ctx, job); err != nil {
			m.log.Warn("Failed to mirror message",
				"user_id", job.UserID,
				"message_id", job.MessageID,
				"error", err,
			)
		}
	}()
}

// Wait ждет завершения всех отправленных задач.
func (m *Mirror) Wait() {
	m.wg.Wait()
}

// Archive копирует фрагмент в канал, отправляет тег и записывает ссылку.
// Без привязанного канала ничего не делает.
func (m *Mirror) Archive(ctx context.Context, job Job) error {
	channelID, ok, err := m.store.GetStorageChannel(ctx, job.UserID)
	if err != nil {
		return apperrors.Unavailable("get storage channel", err)
	}
	if !ok {
		return nil
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx, channelID); err != nil {
			return apperrors.Unavailable("rate limit", err)
		}
	}

	copiedID, err := m.copier.CopyMessage(ctx, channelID, job.SourceChatID, job.SourceMessageID)
	if err != nil {
		return apperrors.Unavailable("copy message", err)
	}

	if err := m.copier.SendText(ctx, channelID, Tag(job.CategoryName, job.UserID, m.now())); err != nil {
		return apperrors.Unavailable("send tag", err)
	}

	if err := m.store.AttachForwardCopy(ctx, job.MessageID, channelID, int64(copiedID)); err != nil {
		return apperrors.Unavailable("attach forward copy", err)
	}

	m.log.Debug("Mirrored message", "user_id", job.UserID, "message_id", job.MessageID, "channel_id", channelID)
	return nil
}

// Tag - подпись после копии: хэштег категории, время сохранения в UTC и владелец.
func Tag(categoryName string, userID int64, at time.Time) string {
	return fmt.Sprintf("#%s\nSaved at: %s\nUser: %d",
		strings.ReplaceAll(categoryName, " ", "_"),
		at.UTC().Format("2006-01-02T15:04:05"),
		userID,
	)
}
