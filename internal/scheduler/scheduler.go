package scheduler

import (
	"CategorizerBot/internal/storage"
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultSweepInterval = 5 * time.Minute

// Scheduler периодически обслуживает хранилище сессий.
type Scheduler struct {
	sessions storage.SessionStore
	interval time.Duration
	log      *slog.Logger

	wg sync.WaitGroup
}

func NewScheduler(sessions storage.SessionStore, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		sessions: sessions,
		interval: interval,
		log:      log.With("component", "scheduler"),
	}
}

// Start чистит просроченные сессии каждые interval, пока жив ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info("Session sweeper started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Session sweeper stopped")
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Wait ждет завершения цикла, запущенного Start.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Sweep удаляет просроченные сессии и пишет статистику в лог.
func (s *Scheduler) Sweep() int {
	removed := s.sessions.CleanupExpiredData()

	stats := s.sessions.GetStats()
	attrs := make([]any, 0, 2*len(stats)+2)
	attrs = append(attrs, "expired", removed)
	for k, v := range stats {
		attrs = append(attrs, k, v)
	}

	if removed > 0 {
		s.log.Info("Expired sessions removed", attrs...)
	} else {
		s.log.Debug("Session sweep", attrs...)
	}
	return removed
}
