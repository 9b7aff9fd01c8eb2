package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakePruner) calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.cutoffs...)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("not a cron", time.Hour, &fakePruner{})
	assert.Error(t, err)
}

func TestScheduler_PrunesOnStartWithRetentionCutoff(t *testing.T) {
	pruner := &fakePruner{}
	s, err := NewScheduler("0 3 * * *", 48*time.Hour, pruner)
	require.NoError(t, err)
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pruner.calls()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.True(t, pruner.calls()[0].Equal(now.Add(-48*time.Hour)))
}

func TestScheduler_PruneErrorIsLogged(t *testing.T) {
	pruner := &fakePruner{err: errors.New("db down")}
	s, err := NewScheduler("@every 1h", time.Hour, pruner)
	require.NoError(t, err)

	s.prune()
	assert.Len(t, pruner.calls(), 1)
}
