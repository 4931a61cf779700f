package admission

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestAdmissible(t *testing.T) {
	cases := []struct {
		name              string
		active, limit, n  int64
		want              bool
	}{
		{"fits exactly", 0, 100, 100, true},
		{"fits with headroom", 40, 100, 60, true},
		{"does not fit", 41, 100, 60, false},
		{"oversized waits while busy", 1, 100, 500, false},
		{"oversized admitted when idle", 0, 100, 500, true},
		{"small waits while busy beyond limit", 99, 100, 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Admissible(tc.active, tc.limit, tc.n); got != tc.want {
				t.Fatalf("Admissible(%d, %d, %d) = %v, want %v", tc.active, tc.limit, tc.n, got, tc.want)
			}
		})
	}
}

func TestNewBudget_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int64{0, -5} {
		if _, err := NewBudget(limit); err == nil {
			t.Fatalf("NewBudget(%d) succeeded, want error", limit)
		}
	}
}

func TestBudget_AcquireImmediate(t *testing.T) {
	b, err := NewBudget(100)
	if err != nil {
		t.Fatalf("NewBudget: %v", err)
	}
	if err := b.Acquire(context.Background(), 60); err != nil {
		t.Fatalf("Acquire(60): %v", err)
	}
	if got := b.Active(); got != 60 {
		t.Fatalf("Active() = %d, want 60", got)
	}
	b.Release(60)
	if got := b.Active(); got != 0 {
		t.Fatalf("Active() after release = %d, want 0", got)
	}
}

func TestBudget_AcquireRejectsNonPositive(t *testing.T) {
	b, _ := NewBudget(100)
	if err := b.Acquire(context.Background(), 0); err == nil {
		t.Fatal("Acquire(0) succeeded, want error")
	}
}

// waitForWaiters polls until the queue holds n waiters.
func waitForWaiters(t *testing.T, b *Budget, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		queued := len(b.waiters)
		b.mu.Unlock()
		if queued == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d queued waiters", n)
}

func TestBudget_BlocksUntilRelease(t *testing.T) {
	b, _ := NewBudget(100)
	if err := b.Acquire(context.Background(), 100); err != nil {
		t.Fatalf("Acquire(100): %v", err)
	}

	admitted := make(chan struct{})
	go func() {
		if err := b.Acquire(context.Background(), 10); err != nil {
			t.Errorf("blocked Acquire(10): %v", err)
		}
		close(admitted)
	}()

	waitForWaiters(t, b, 1)
	select {
	case <-admitted:
		t.Fatal("Acquire returned while the budget was exhausted")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release(100)
	select {
	case <-admitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not complete after release")
	}
	if got := b.Active(); got != 10 {
		t.Fatalf("Active() = %d, want 10", got)
	}
}

func TestBudget_FIFOFairness(t *testing.T) {
	// A (large) queues first, then B (small). B would fit immediately, but it
	// must not bypass A.
	b, _ := NewBudget(10)
	if err := b.Acquire(context.Background(), 5); err != nil {
		t.Fatalf("Acquire(5): %v", err)
	}

	admit := func(name string, n int64) chan struct{} {
		done := make(chan struct{})
		go func() {
			if err := b.Acquire(context.Background(), n); err != nil {
				t.Errorf("Acquire(%s): %v", name, err)
			}
			close(done)
		}()
		return done
	}

	doneA := admit("A", 6) // needs active <= 4
	waitForWaiters(t, b, 1)
	doneB := admit("B", 5) // would fit right now (5+5), must wait behind A
	waitForWaiters(t, b, 2)

	select {
	case <-doneB:
		t.Fatal("B was admitted ahead of A")
	case <-time.After(20 * time.Millisecond):
	}

	// Freeing the initial hold admits only A; B (6+5 > 10) keeps waiting.
	b.Release(5)
	select {
	case <-doneA:
	case <-time.After(2 * time.Second):
		t.Fatal("A not admitted after release")
	}
	select {
	case <-doneB:
		t.Fatal("B admitted alongside A despite exceeding the limit")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release(6)
	select {
	case <-doneB:
	case <-time.After(2 * time.Second):
		t.Fatal("B not admitted after A finished")
	}
	if got := b.Active(); got != 5 {
		t.Fatalf("Active() = %d, want 5", got)
	}
}

func TestBudget_OversizedAdmittedWhenIdle(t *testing.T) {
	b, _ := NewBudget(10)
	if !b.Oversized(25) {
		t.Fatal("Oversized(25) = false, want true")
	}

	if err := b.Acquire(context.Background(), 4); err != nil {
		t.Fatalf("Acquire(4): %v", err)
	}

	admitted := make(chan struct{})
	go func() {
		if err := b.Acquire(context.Background(), 25); err != nil {
			t.Errorf("oversized Acquire: %v", err)
		}
		close(admitted)
	}()

	waitForWaiters(t, b, 1)
	select {
	case <-admitted:
		t.Fatal("oversized candidate admitted while budget was busy")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release(4)
	select {
	case <-admitted:
	case <-time.After(2 * time.Second):
		t.Fatal("oversized candidate not admitted once idle")
	}
	if got := b.Active(); got != 25 {
		t.Fatalf("Active() = %d, want 25", got)
	}
	b.Release(25)
}

func TestBudget_AcquireCanceled(t *testing.T) {
	b, _ := NewBudget(10)
	if err := b.Acquire(context.Background(), 10); err != nil {
		t.Fatalf("Acquire(10): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Acquire(ctx, 5)
	}()

	waitForWaiters(t, b, 1)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Acquire after cancel = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled Acquire did not return")
	}

	// The withdrawn waiter must not linger and block later grants.
	b.Release(10)
	if err := b.Acquire(context.Background(), 10); err != nil {
		t.Fatalf("Acquire after withdrawal: %v", err)
	}
}

func TestBudget_ConservationUnderLoad(t *testing.T) {
	const limit = 1000
	b, _ := NewBudget(limit)

	stop := make(chan struct{})
	violation := make(chan int64, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			if a := b.Active(); a > limit {
				select {
				case violation <- a:
				default:
				}
				return
			}
		}
	}()

	var wg sync.WaitGroup
	rng := rand.New(rand.NewSource(1))
	sizes := make([]int64, 50)
	for i := range sizes {
		sizes[i] = rng.Int63n(limit/2) + 1
	}
	for _, n := range sizes {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if err := b.Acquire(context.Background(), n); err != nil {
				t.Errorf("Acquire(%d): %v", n, err)
				return
			}
			time.Sleep(time.Duration(n%3) * time.Millisecond)
			b.Release(n)
		}(n)
	}
	wg.Wait()
	close(stop)

	select {
	case a := <-violation:
		t.Fatalf("active bytes %d exceeded limit %d", a, limit)
	default:
	}
	if got := b.Active(); got != 0 {
		t.Fatalf("Active() at end = %d, want 0", got)
	}
}
