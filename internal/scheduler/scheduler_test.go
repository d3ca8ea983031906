package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) PurgeExpired() int {
	s.calls.Add(1)
	return 1
}

type recordingWarmer struct {
	mu     sync.Mutex
	cities [][]string
	hasDL  bool
}

func (w *recordingWarmer) Warm(ctx context.Context, cities []string) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.hasDL = ctx.Deadline()
	w.cities = append(w.cities, cities)
	return len(cities), 0
}

func (w *recordingWarmer) runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.cities)
}

func TestSchedulerRunsSweepAndWarm(t *testing.T) {
	sweeper := &countingSweeper{}
	warmer := &recordingWarmer{}
	s := New(Config{
		SweepInterval: time.Hour,
		WarmInterval:  time.Hour,
		WarmCities:    []string{"London", "Miami"},
	}, sweeper, warmer, zerolog.Nop())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 1 && warmer.runs() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	warmer.mu.Lock()
	defer warmer.mu.Unlock()
	assert.Equal(t, []string{"London", "Miami"}, warmer.cities[0])
	assert.True(t, warmer.hasDL, "warm job runs with a deadline")
}

func TestSchedulerSkipsWarmWithoutCities(t *testing.T) {
	sweeper := &countingSweeper{}
	warmer := &recordingWarmer{}
	s := New(Config{SweepInterval: time.Hour}, sweeper, warmer, zerolog.Nop())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, warmer.runs())
	assert.Len(t, s.scheduler.Jobs(), 1)
}
