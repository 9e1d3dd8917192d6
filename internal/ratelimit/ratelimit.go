// Package ratelimit - ограничитель частоты по ключу (token bucket).
// Зеркало архива притормаживает им копирование в каждый канал: Telegram
// режет ботов, которые слишком часто пишут в один чат.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL - сколько хранится неиспользуемый лимитер
const DefaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// KeyedRateLimiter держит отдельный лимитер на каждый чат.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// New создает лимитер: rps запросов в секунду, burst - сколько можно сразу.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[int64]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  DefaultIdleTTL,
		done:     make(chan struct{}),
	}

	go krl.cleanup(time.Minute)

	return krl
}

// Wait ждет, пока запрос для key станет разрешен, или отмены ctx.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key int64) error {
	return krl.getLimiter(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) getLimiter(key int64) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastUsed = time.Now()
	return e.limiter
}

// Stop останавливает фоновую очистку.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case now := <-ticker.C:
			krl.evictIdle(now)
		}
	}
}

// evictIdle удаляет лимитеры, простаивающие дольше idleTTL.
// Удаленный ключ начинает с полного ведра.
func (krl *KeyedRateLimiter) evictIdle(now time.Time) int {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for key, e := range krl.limiters {
		if now.Sub(e.lastUsed) > krl.idleTTL {
			delete(krl.limiters, key)
			removed++
		}
	}
	return removed
}
