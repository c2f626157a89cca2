package schedule

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsOnceWithLatestArg(t *testing.T) {
	got := make(chan int, 4)
	d := NewDebouncer(20*time.Millisecond, func(v int) { got <- v })

	d.Trigger(1)
	d.Trigger(2)
	d.Trigger(3)

	select {
	case v := <-got:
		assert.Equal(t, 3, v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	select {
	case v := <-got:
		t.Fatalf("unexpected second call with %d", v)
	case <-time.After(60 * time.Millisecond):
	}
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func(string) { calls.Add(1) })

	d.Trigger("a")
	assert.True(t, d.Pending())
	d.Cancel()
	assert.False(t, d.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Flush())
}

func TestDebouncerFlush(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	d := NewDebouncer(time.Hour, func(s string) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	d.Trigger("x")
	d.Trigger("y")
	require.True(t, d.Flush())
	assert.False(t, d.Pending())
	assert.False(t, d.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"y"}, seen)
}

func TestGuardRunsInline(t *testing.T) {
	var committed []int
	g := NewGuard(func(v int) int { return v * 2 }, func(r int) { committed = append(committed, r) })

	assert.True(t, g.Submit(1))
	assert.True(t, g.Submit(2))
	assert.Equal(t, []int{2, 4}, committed)
	assert.False(t, g.Busy())
}

func TestGuardDiscardsStalePass(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int, 4)
	var mu sync.Mutex
	var committed []int

	g := NewGuard(
		func(v int) int {
			started <- v
			if v == 1 {
				<-release
			}
			return v
		},
		func(r int) {
			mu.Lock()
			committed = append(committed, r)
			mu.Unlock()
		},
	)

	done := make(chan bool)
	go func() { done <- g.Submit(1) }()
	require.Equal(t, 1, <-started)

	// both arrive while pass 1 is in flight; only the newest survives
	assert.False(t, g.Submit(2))
	assert.False(t, g.Submit(3))
	assert.True(t, g.Busy())

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, 3, <-started)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, committed)
	assert.False(t, g.Busy())
}

func TestFrameSchedulerCoalesces(t *testing.T) {
	f := NewFrameScheduler(20 * time.Millisecond)
	draws := make(chan string, 4)

	f.Request(func() { draws <- "first" })
	f.Request(func() { draws <- "second" })
	assert.True(t, f.Pending())

	select {
	case d := <-draws:
		assert.Equal(t, "second", d)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never drawn")
	}
	select {
	case d := <-draws:
		t.Fatalf("stacked draw %q", d)
	case <-time.After(60 * time.Millisecond):
	}
	assert.False(t, f.Pending())
}

func TestFrameSchedulerCancel(t *testing.T) {
	f := NewFrameScheduler(10 * time.Millisecond)
	var drawn atomic.Bool
	f.Request(func() { drawn.Store(true) })
	f.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.False(t, drawn.Load())
}
