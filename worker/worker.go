// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

type Worker[Job any] func(context.Context, Job)

// BlockingPool spawns size workers pulling from jobs and blocks until the
// channel is closed and drained, or ctx is cancelled.
//
// The caller must ensure that jobs eventually gets closed or ctx gets cancelled.
//
// A pool fits unbounded or bursty workloads (outbound email after a busy
// webhook, for example) where spawning a goroutine per job could saturate the
// downstream API. For small bounded fan-outs plain goroutines are simpler.
func BlockingPool[Job any](ctx context.Context, size int, jobs <-chan Job, worker Worker[Job]) {
	if size <= 0 {
		size = 1
	}
	wg := sync.WaitGroup{}
	for range size {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					runJob(ctx, worker, job)
				}
			}
		})
	}

	wg.Wait()
}

// runJob isolates a panicking job so the worker keeps serving the queue.
func runJob[Job any](ctx context.Context, worker Worker[Job], job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "worker: job panicked", slog.Any("error", rec))
		}
	}()
	worker(ctx, job)
}

// ErrQueueFull is returned by Dispatcher.Submit when the buffer is full.
var ErrQueueFull = errors.New("worker: queue full")

// ErrClosed is returned by Dispatcher.Submit after Close.
var ErrClosed = errors.New("worker: dispatcher closed")

// Dispatcher is a long-lived BlockingPool fed through Submit.
type Dispatcher[Job any] struct {
	jobs   chan Job
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts size workers over a queue of capacity buffer. Jobs run
// with ctx, which should outlive request contexts.
func NewDispatcher[Job any](ctx context.Context, size, buffer int, worker Worker[Job]) *Dispatcher[Job] {
	d := &Dispatcher[Job]{
		jobs: make(chan Job, max(buffer, 0)),
		done: make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		BlockingPool(ctx, size, d.jobs, worker)
	}()
	return d
}

// Submit enqueues job without blocking.
func (d *Dispatcher[Job]) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to expire.
func (d *Dispatcher[Job]) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
