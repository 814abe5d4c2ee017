package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierCoalescesSignals(t *testing.T) {
	n := NewNotifier()
	ch, stop := n.Listen()
	defer stop()

	n.Notify()
	n.Notify()
	n.Notify()

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestNotifierStopUnregisters(t *testing.T) {
	n := NewNotifier()
	ch, stop := n.Listen()
	stop()
	n.Notify()

	select {
	case <-ch:
		t.Fatal("stopped listener should not be signalled")
	default:
	}
}

func TestLatestKeepsNewestValue(t *testing.T) {
	l := NewLatest[int]()
	l.Publish(1)
	l.Publish(2)
	l.Publish(3)

	assert.Equal(t, 3, <-l.C())

	l.Publish(4)
	l.Close()
	l.Publish(5)

	v, ok := <-l.C()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	_, ok = <-l.C()
	assert.False(t, ok)
}

func TestWatchEmitsInitialAndOnChange(t *testing.T) {
	n := NewNotifier()
	var value atomic.Int64
	value.Store(1)

	sub := Watch(context.Background(), n, func(context.Context) (int64, error) {
		return value.Load(), nil
	}, nil)
	defer sub.Close()

	require.Equal(t, int64(1), <-sub.C())

	value.Store(2)
	n.Notify()
	require.Equal(t, int64(2), <-sub.C())
}

func TestWatchDropsEqualResults(t *testing.T) {
	n := NewNotifier()
	var value atomic.Int64
	var loads atomic.Int64

	sub := Watch(context.Background(), n, func(context.Context) (int64, error) {
		loads.Add(1)
		return value.Load(), nil
	}, func(a, b int64) bool { return a == b })
	defer sub.Close()

	require.Equal(t, int64(0), <-sub.C())

	n.Notify()
	require.Eventually(t, func() bool { return loads.Load() >= 2 }, time.Second, 5*time.Millisecond)

	select {
	case v := <-sub.C():
		t.Fatalf("unchanged value should not be re-emitted, got %d", v)
	case <-time.After(20 * time.Millisecond):
	}

	value.Store(7)
	n.Notify()
	require.Equal(t, int64(7), <-sub.C())
}

func TestWatchSkipsLoadErrors(t *testing.T) {
	n := NewNotifier()
	var fail atomic.Bool
	fail.Store(true)

	sub := Watch(context.Background(), n, func(context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("boom")
		}
		return "ok", nil
	}, nil)
	defer sub.Close()

	fail.Store(false)
	n.Notify()
	require.Equal(t, "ok", <-sub.C())
}

func TestWatchCloseEndsStream(t *testing.T) {
	n := NewNotifier()
	sub := Watch(context.Background(), n, func(context.Context) (int, error) { return 1, nil }, nil)
	<-sub.C()

	sub.Close()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
	_, ok := <-sub.C()
	assert.False(t, ok)
}

// ============================================================
// Slot
// ============================================================

func TestSlotRunsTask(t *testing.T) {
	var s Slot
	var ran atomic.Bool
	s.Go(context.Background(), func(context.Context) { ran.Store(true) })
	s.Wait()
	assert.True(t, ran.Load())
}

func TestSlotSupersededTaskIsCancelled(t *testing.T) {
	var s Slot
	started := make(chan struct{})
	var firstCancelled atomic.Bool

	s.Go(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		firstCancelled.Store(true)
	})
	<-started

	var secondRan atomic.Bool
	s.Go(context.Background(), func(context.Context) { secondRan.Store(true) })
	s.Wait()

	assert.True(t, firstCancelled.Load())
	assert.True(t, secondRan.Load())
}

func TestSlotBurstRunsOnlyLatestPendingTask(t *testing.T) {
	var s Slot
	release := make(chan struct{})
	started := make(chan struct{})

	var mu sync.Mutex
	var order []int

	s.Go(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
		mu.Lock()
		order = append(order, 0)
		mu.Unlock()
	})
	<-started

	for i := 1; i <= 5; i++ {
		i := i
		s.Go(context.Background(), func(ctx context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	close(release)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	// Task 0 was already running; tasks 1-4 were superseded before starting.
	assert.Equal(t, []int{0, 5}, order)
}

func TestSlotCancel(t *testing.T) {
	var s Slot
	started := make(chan struct{})
	var cancelled atomic.Bool
	s.Go(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})
	<-started
	s.Cancel()
	s.Wait()
	assert.True(t, cancelled.Load())
}

func TestSlotWaitWithoutTasks(t *testing.T) {
	var s Slot
	s.Wait()
	s.Cancel()
}
