package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBlockingPool_ProcessesAllJobs(t *testing.T) {
	jobs := make(chan int, 100)
	for i := range 100 {
		jobs <- i
	}
	close(jobs)

	var sum atomic.Int64
	BlockingPool(context.Background(), 4, jobs, func(_ context.Context, n int) {
		sum.Add(int64(n))
	})

	if got := sum.Load(); got != 4950 {
		t.Fatalf("sum = %d, want 4950", got)
	}
}

func TestBlockingPool_SurvivesPanics(t *testing.T) {
	jobs := make(chan int, 10)
	for i := range 10 {
		jobs <- i
	}
	close(jobs)

	var done atomic.Int64
	BlockingPool(context.Background(), 1, jobs, func(_ context.Context, n int) {
		if n%2 == 0 {
			panic("even")
		}
		done.Add(1)
	})

	if got := done.Load(); got != 5 {
		t.Fatalf("completed = %d, want 5", got)
	}
}

func TestBlockingPool_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := make(chan int)

	finished := make(chan struct{})
	go func() {
		BlockingPool(ctx, 2, jobs, func(context.Context, int) {})
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestDispatcher_DrainsOnClose(t *testing.T) {
	var done atomic.Int64
	d := NewDispatcher(context.Background(), 2, 16, func(context.Context, int) {
		time.Sleep(time.Millisecond)
		done.Add(1)
	})

	for i := range 10 {
		if err := d.Submit(i); err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := done.Load(); got != 10 {
		t.Fatalf("completed = %d, want 10", got)
	}
	if err := d.Submit(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit after Close = %v, want ErrClosed", err)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(context.Background(), 1, 1, func(context.Context, int) { <-block })

	// first job occupies the worker, second fills the buffer
	var full bool
	for i := range 3 {
		if err := d.Submit(i); errors.Is(err, ErrQueueFull) {
			full = true
		}
		time.Sleep(10 * time.Millisecond)
	}
	close(block)
	_ = d.Close(context.Background())

	if !full {
		t.Fatal("expected ErrQueueFull once worker and buffer are busy")
	}
}
