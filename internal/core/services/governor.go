package services

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// DefaultMaxHighStreak bounds consecutive high-priority admissions while
// low-priority callers are waiting.
const DefaultMaxHighStreak = 16

// GovernorConfig configures a Governor.
type GovernorConfig struct {
	// Limit is the number of admissions allowed per Window (the provider's quota).
	Limit int

	// Window is the quota period. Defaults to one minute.
	Window time.Duration

	// MaxHighStreak is how many high-priority callers may be admitted in a
	// row while a low-priority caller waits. Defaults to DefaultMaxHighStreak.
	MaxHighStreak int
}

// waiter is a caller blocked in Acquire.
type waiter struct {
	ready    chan struct{}
	priority domain.Priority
	elem     *list.Element
	granted  bool
	rejected bool
}

// Governor admits calls to the embedding provider at most Limit times per
// Window. Admission uses a token bucket of capacity Limit refilled at
// Limit/Window, plus a log of recent admissions so no sliding window ever
// exceeds Limit. Waiters queue by priority: on each available token the
// oldest high-priority waiter is admitted first, then the oldest low one.
//
// A single goroutine owns admission. Callers only enqueue and wait.
type Governor struct {
	limit         int
	window        time.Duration
	maxHighStreak int
	limiter       *rate.Limiter

	mu         sync.Mutex
	high       *list.List
	low        *list.List
	admitted   []time.Time
	highStreak int
	closed     bool

	// onAdmit is called under mu for every admission.
	onAdmit func(p domain.Priority, at time.Time)

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewGovernor creates a governor and starts its admission loop.
func NewGovernor(cfg GovernorConfig) (*Governor, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("governor: %w: limit must be positive", domain.ErrInvalidInput)
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxHighStreak <= 0 {
		cfg.MaxHighStreak = DefaultMaxHighStreak
	}

	g := &Governor{
		limit:         cfg.Limit,
		window:        cfg.Window,
		maxHighStreak: cfg.MaxHighStreak,
		limiter:       rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Limit)), cfg.Limit),
		high:          list.New(),
		low:           list.New(),
		admitted:      make([]time.Time, 0, cfg.Limit),
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}

	g.wg.Add(1)
	go g.run()

	return g, nil
}

// Acquire blocks until the caller is admitted, ctx ends, or the governor closes.
// An abandoned wait leaves the queue without consuming a token. When ctx
// expires the error wraps domain.ErrCapacity.
func (g *Governor) Acquire(ctx context.Context, p domain.Priority) error {
	if err := ctx.Err(); err != nil {
		return abandonError(err)
	}

	w := &waiter{ready: make(chan struct{}), priority: p}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrGovernorClosed
	}
	w.elem = g.queue(p).PushBack(w)
	g.mu.Unlock()
	g.signal()

	select {
	case <-w.ready:
		if w.rejected {
			return domain.ErrGovernorClosed
		}
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		defer g.mu.Unlock()
		if w.granted {
			// Admitted concurrently with cancellation; the token is spent.
			return nil
		}
		if w.rejected {
			return domain.ErrGovernorClosed
		}
		g.queue(p).Remove(w.elem)
		return abandonError(ctx.Err())
	}
}

// Backlog returns the number of waiting callers per priority.
func (g *Governor) Backlog() (high, low int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.high.Len(), g.low.Len()
}

// Limit returns the number of admissions allowed per window.
func (g *Governor) Limit() int {
	return g.limit
}

// Window returns the quota period.
func (g *Governor) Window() time.Duration {
	return g.window
}

// Close stops the admission loop and rejects every waiter.
func (g *Governor) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		for _, q := range []*list.List{g.high, g.low} {
			for e := q.Front(); e != nil; e = e.Next() {
				w := e.Value.(*waiter)
				w.rejected = true
				close(w.ready)
			}
			q.Init()
		}
		g.mu.Unlock()

		close(g.done)
		g.wg.Wait()
	})
	return nil
}

func (g *Governor) queue(p domain.Priority) *list.List {
	if p == domain.PriorityHigh {
		return g.high
	}
	return g.low
}

func (g *Governor) signal() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// run admits waiters as tokens become available.
func (g *Governor) run() {
	defer g.wg.Done()

	for {
		delay, waiting := g.admitNext(time.Now())
		if !waiting {
			select {
			case <-g.wake:
				continue
			case <-g.done:
				return
			}
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-g.done:
			timer.Stop()
			return
		}
	}
}

// admitNext admits one waiter if quota allows. It returns how long to wait
// before trying again and whether anyone is waiting at all.
func (g *Governor) admitNext(now time.Time) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.high.Len()+g.low.Len() == 0 {
		return 0, false
	}

	if d := g.windowDelayLocked(now); d > 0 {
		return d, true
	}

	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return g.window, true
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, true
	}

	w := g.nextLocked()
	w.granted = true
	g.admitted = append(g.admitted, now)
	if g.onAdmit != nil {
		g.onAdmit(w.priority, now)
	}
	close(w.ready)

	logger.Debug("governor: admitted %s priority (backlog high=%d low=%d)", w.priority, g.high.Len(), g.low.Len())
	return 0, true
}

// windowDelayLocked drops admissions that fall out of the window and
// returns how long until the oldest remaining one does if the window is
// full. The window is closed: an admission at exactly now-window still
// counts.
func (g *Governor) windowDelayLocked(now time.Time) time.Duration {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.admitted) && g.admitted[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		g.admitted = append(g.admitted[:0], g.admitted[i:]...)
	}

	if len(g.admitted) < g.limit {
		return 0
	}
	return g.admitted[0].Add(g.window).Sub(now) + time.Nanosecond
}

// nextLocked pops the waiter to admit. High goes first unless low-priority
// callers have been passed over MaxHighStreak times in a row.
func (g *Governor) nextLocked() *waiter {
	if g.high.Len() > 0 && (g.low.Len() == 0 || g.highStreak < g.maxHighStreak) {
		if g.low.Len() > 0 {
			g.highStreak++
		} else {
			g.highStreak = 0
		}
		return g.high.Remove(g.high.Front()).(*waiter)
	}

	g.highStreak = 0
	return g.low.Remove(g.low.Front()).(*waiter)
}

// abandonError maps a context error from an abandoned wait.
func abandonError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrCapacity, err)
	}
	return err
}
