package lodging

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestRateLimiterSpacesPermits(t *testing.T) {
	t.Parallel()

	const window = 50 * time.Millisecond
	limiter := NewRateLimiter(window, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*window-5*time.Millisecond {
		t.Fatalf("3 permits took %v, want >= %v", elapsed, 2*window)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(time.Hour, 1)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := limiter.Acquire(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestRateLimiterCapsEveryWindowUnderConcurrency(t *testing.T) {
	t.Parallel()

	const (
		window  = 150 * time.Millisecond
		burst   = 3
		callers = 10
	)
	limiter := NewRateLimiter(window, burst)

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(grants) != callers {
		t.Fatalf("granted %d permits, want %d", len(grants), callers)
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })

	// Grants land window/burst apart, so burst+1 consecutive grants span at
	// least one window. Allow a little scheduler slack.
	const slack = 10 * time.Millisecond
	for i := burst; i < len(grants); i++ {
		if span := grants[i].Sub(grants[i-burst]); span < window-slack {
			t.Fatalf("%d permits within %v (grants %d..%d), cap is %d per %v", burst+1, span, i-burst, i, burst, window)
		}
	}
}
