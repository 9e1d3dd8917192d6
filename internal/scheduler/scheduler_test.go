package scheduler

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	pmodel "CategorizerBot/pkg/models"

	"github.com/stretchr/testify/assert"
)

type fakeSessions struct {
	mu     sync.Mutex
	sweeps int
	expire int
}

func (f *fakeSessions) Get(int64) pmodel.Session { return pmodel.Session{} }
func (f *fakeSessions) Set(int64, pmodel.Session) {}
func (f *fakeSessions) Clear(int64) {}
func (f *fakeSessions) Lock(int64) func() { return func() {} }
func (f *fakeSessions) GetStats() map[string]interface{} { return map[string]interface{}{"sessions_size": 3} }

func (f *fakeSessions) CleanupExpiredData() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return f.expire
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestSweep_LogsRemovals(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	sessions := &fakeSessions{expire: 2}

	s := NewScheduler(sessions, time.Minute, log)
	assert.Equal(t, 2, s.Sweep())
	assert.Contains(t, buf.String(), "Expired sessions removed")
	assert.Contains(t, buf.String(), "expired=2")
	assert.Contains(t, buf.String(), "sessions_size=3")
}

func TestStart_SweepsUntilCanceled(t *testing.T) {
	var buf bytes.Buffer
	sessions := &fakeSessions{}
	s := NewScheduler(sessions, 10*time.Millisecond, slog.New(slog.NewTextHandler(&buf, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return sessions.count() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
	after := sessions.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sessions.count(), "no sweeps after stop")
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&fakeSessions{}, 0, slog.Default())
	assert.Equal(t, DefaultSweepInterval, s.interval)
}
