package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// admission is a recorded governor admission.
type admission struct {
	priority domain.Priority
	at       time.Time
}

// newRecordingGovernor creates a governor that records every admission.
func newRecordingGovernor(t *testing.T, cfg GovernorConfig) (*Governor, func() []admission) {
	t.Helper()

	g, err := NewGovernor(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	var log []admission
	g.mu.Lock()
	g.onAdmit = func(p domain.Priority, at time.Time) {
		log = append(log, admission{priority: p, at: at})
	}
	g.mu.Unlock()

	return g, func() []admission {
		g.mu.Lock()
		defer g.mu.Unlock()
		out := make([]admission, len(log))
		copy(out, log)
		return out
	}
}

func TestNewGovernor_InvalidLimit(t *testing.T) {
	_, err := NewGovernor(GovernorConfig{Limit: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewGovernor_Defaults(t *testing.T) {
	g, err := NewGovernor(GovernorConfig{Limit: 40})
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 40, g.Limit())
	assert.Equal(t, time.Minute, g.Window())
	assert.Equal(t, DefaultMaxHighStreak, g.maxHighStreak)
}

func TestGovernor_Acquire_ImmediateWithinCapacity(t *testing.T) {
	g, admissions := newRecordingGovernor(t, GovernorConfig{Limit: 3, Window: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Acquire(ctx, domain.PriorityLow))
	}
	assert.Len(t, admissions(), 3)
}

func TestGovernor_SlidingWindowNeverExceedsLimit(t *testing.T) {
	const limit = 5
	window := 300 * time.Millisecond
	g, admissions := newRecordingGovernor(t, GovernorConfig{Limit: limit, Window: window})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.PriorityLow
			if i%3 == 0 {
				p = domain.PriorityHigh
			}
			assert.NoError(t, g.Acquire(ctx, p))
		}(i)
	}
	wg.Wait()

	log := admissions()
	require.Len(t, log, 20)
	for i := range log {
		inWindow := 0
		for j := range log {
			if !log[j].at.Before(log[i].at) && !log[j].at.After(log[i].at.Add(window)) {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, limit, "window starting at admission %d", i)
	}
}

func TestGovernor_WindowIncludesItsOldestEdge(t *testing.T) {
	g, err := NewGovernor(GovernorConfig{Limit: 1, Window: time.Minute})
	require.NoError(t, err)
	defer g.Close()

	t0 := time.Unix(1_700_000_000, 0)
	g.mu.Lock()
	defer g.mu.Unlock()

	g.admitted = append(g.admitted[:0], t0)
	assert.Equal(t, time.Minute+time.Nanosecond, g.windowDelayLocked(t0))
	assert.Equal(t, time.Nanosecond, g.windowDelayLocked(t0.Add(time.Minute)))
	assert.Len(t, g.admitted, 1)

	assert.Zero(t, g.windowDelayLocked(t0.Add(time.Minute+time.Nanosecond)))
	assert.Empty(t, g.admitted)
}

func TestGovernor_HighPriorityAdmittedFirst(t *testing.T) {
	g, admissions := newRecordingGovernor(t, GovernorConfig{Limit: 2, Window: 400 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Exhaust the quota so later callers queue up.
	require.NoError(t, g.Acquire(ctx, domain.PriorityLow))
	require.NoError(t, g.Acquire(ctx, domain.PriorityLow))

	var wg sync.WaitGroup
	acquire := func(p domain.Priority) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Acquire(ctx, p))
		}()
	}

	acquire(domain.PriorityLow)
	acquire(domain.PriorityLow)
	require.Eventually(t, func() bool { _, low := g.Backlog(); return low == 2 }, time.Second, time.Millisecond)
	acquire(domain.PriorityHigh)
	acquire(domain.PriorityHigh)
	require.Eventually(t, func() bool { high, _ := g.Backlog(); return high == 2 }, time.Second, time.Millisecond)

	wg.Wait()

	log := admissions()
	require.Len(t, log, 6)
	queued := log[2:]
	assert.Equal(t, domain.PriorityHigh, queued[0].priority)
	assert.Equal(t, domain.PriorityHigh, queued[1].priority)
	assert.Equal(t, domain.PriorityLow, queued[2].priority)
	assert.Equal(t, domain.PriorityLow, queued[3].priority)
}

func TestGovernor_FIFOWithinPriority(t *testing.T) {
	g, _ := newRecordingGovernor(t, GovernorConfig{Limit: 1, Window: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Acquire(ctx, domain.PriorityLow))

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, g.Acquire(ctx, domain.PriorityLow))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
		require.Eventually(t, func() bool { _, low := g.Backlog(); return low == i+1 }, time.Second, time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestGovernor_LowPriorityNotStarvedUnderContinuousHighLoad(t *testing.T) {
	g, _ := newRecordingGovernor(t, GovernorConfig{Limit: 100, Window: 500 * time.Millisecond, MaxHighStreak: 4})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = g.Acquire(ctx, domain.PriorityHigh)
				cancel()
			}
		}()
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()

	// Let the high-priority load saturate the quota.
	require.Eventually(t, func() bool { high, _ := g.Backlog(); return high > 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Acquire(ctx, domain.PriorityLow))
	}
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestGovernor_CancelledWaitDoesNotConsumeToken(t *testing.T) {
	g, admissions := newRecordingGovernor(t, GovernorConfig{Limit: 1, Window: 200 * time.Millisecond})

	require.NoError(t, g.Acquire(context.Background(), domain.PriorityLow))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	err := g.Acquire(ctx, domain.PriorityLow)
	cancel()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapacity)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	high, low := g.Backlog()
	assert.Zero(t, high)
	assert.Zero(t, low)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, g.Acquire(ctx2, domain.PriorityLow))

	assert.Len(t, admissions(), 2)
}

func TestGovernor_Acquire_CancelledContext(t *testing.T) {
	g, admissions := newRecordingGovernor(t, GovernorConfig{Limit: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Acquire(ctx, domain.PriorityHigh)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrCapacity)
	assert.Empty(t, admissions())
}

func TestGovernor_Close_RejectsWaiters(t *testing.T) {
	g, err := NewGovernor(GovernorConfig{Limit: 1, Window: time.Hour})
	require.NoError(t, err)

	require.NoError(t, g.Acquire(context.Background(), domain.PriorityLow))

	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background(), domain.PriorityLow); err != nil {
				assert.ErrorIs(t, err, domain.ErrGovernorClosed)
				rejected.Add(1)
			}
		}()
	}
	require.Eventually(t, func() bool { _, low := g.Backlog(); return low == 3 }, time.Second, time.Millisecond)

	require.NoError(t, g.Close())
	wg.Wait()

	assert.Equal(t, int32(3), rejected.Load())
	assert.ErrorIs(t, g.Acquire(context.Background(), domain.PriorityHigh), domain.ErrGovernorClosed)
	assert.NoError(t, g.Close())
}
