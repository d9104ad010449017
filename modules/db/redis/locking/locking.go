// Copyright 2025 Nhat-Nguyen Nguyen
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

package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/rueidis/rueidislock"
)

type TaskFunc func(ctx context.Context) error

// Locker is the part of rueidislock.Locker the executor uses.
type Locker interface {
	WithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
	TryWithContext(ctx context.Context, name string) (context.Context, context.CancelFunc, error)
}

var _ Locker = (rueidislock.Locker)(nil)

// LockConfiguration bounds one locked run.
//
// LockAtMostFor becomes the deadline of the task context. LockAtLeastFor keeps
// the lock after an early return, so peers firing on the same tick skip.
type LockConfiguration struct {
	Name           string
	LockAtMostFor  time.Duration
	LockAtLeastFor time.Duration
}

func (c LockConfiguration) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: lock name must not be empty", ErrInvalidConfiguration)
	case c.LockAtMostFor < 0, c.LockAtLeastFor < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfiguration)
	case c.LockAtMostFor > 0 && c.LockAtLeastFor > c.LockAtMostFor:
		return fmt.Errorf("%w: lockAtLeastFor (%s) > lockAtMostFor (%s)",
			ErrInvalidConfiguration, c.LockAtLeastFor, c.LockAtMostFor)
	}
	return nil
}

var (
	// ErrLockNotAcquired means another node holds the lock.
	ErrLockNotAcquired      = errors.New("locking: lock not acquired")
	ErrInvalidConfiguration = errors.New("locking: invalid lock configuration")
)

// LockingTaskExecutor runs tasks while holding a rueidislock lock.
type LockingTaskExecutor struct {
	locker Locker
	logger *slog.Logger
	now    func() time.Time

	// wait blocks on the lock instead of trying once.
	wait           bool
	acquireTimeout time.Duration
	namePrefix     string
}

type Option func(*LockingTaskExecutor)

func WithLogger(l *slog.Logger) Option {
	return func(e *LockingTaskExecutor) { e.logger = l }
}

// WithWaitForLock makes Execute block until the lock is free.
func WithWaitForLock(wait bool) Option {
	return func(e *LockingTaskExecutor) { e.wait = wait }
}

// WithAcquireTimeout bounds the wait of WithWaitForLock(true).
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *LockingTaskExecutor) { e.acquireTimeout = d }
}

// WithNamePrefix namespaces lock names, e.g. "storefront:" + "payouts".
func WithNamePrefix(prefix string) Option {
	return func(e *LockingTaskExecutor) { e.namePrefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(e *LockingTaskExecutor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewLockingTaskExecutor(locker Locker, opts ...Option) *LockingTaskExecutor {
	e := &LockingTaskExecutor{locker: locker, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Execute runs task under the lock named by cfg. It returns ErrLockNotAcquired
// when trying once and the lock is held, and otherwise the task's error. The
// lock is released on every path, including panics in task.
func (e *LockingTaskExecutor) Execute(ctx context.Context, cfg LockConfiguration, task TaskFunc) error {
	if task == nil {
		return errors.New("locking: task must not be nil")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	name := e.namePrefix + cfg.Name

	requested := e.now()
	lockCtx, release, err := e.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()
	e.debug("locking: lock acquired",
		slog.String("lock.name", name),
		slog.Duration("lock.acquire_latency", e.now().Sub(requested)),
	)

	started := e.now()
	err = e.run(lockCtx, cfg.LockAtMostFor, task)
	e.debug("locking: task finished",
		slog.String("lock.name", name),
		slog.Duration("task.duration", e.now().Sub(started)),
		slog.Any("task.error", err),
	)

	e.hold(ctx, lockCtx, started.Add(cfg.LockAtLeastFor))
	return err
}

func (e *LockingTaskExecutor) run(lockCtx context.Context, atMost time.Duration, task TaskFunc) error {
	taskCtx, cancel := context.WithCancel(lockCtx)
	if atMost > 0 {
		taskCtx, cancel = context.WithTimeout(lockCtx, atMost)
	}
	defer cancel()
	return task(taskCtx)
}

func (e *LockingTaskExecutor) acquire(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if !e.wait {
		lockCtx, cancel, err := e.locker.TryWithContext(ctx, name)
		if errors.Is(err, rueidislock.ErrNotLocked) {
			e.debug("locking: lock held by another node", slog.String("lock.name", name))
			return nil, nil, ErrLockNotAcquired
		}
		if err != nil {
			return nil, nil, fmt.Errorf("locking: try-acquire %q: %w", name, err)
		}
		return lockCtx, cancel, nil
	}

	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}
	lockCtx, cancel, err := e.locker.WithContext(ctx, name)
	switch {
	case err == nil:
		return lockCtx, cancel, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, nil, err
	default:
		return nil, nil, fmt.Errorf("locking: acquire %q: %w", name, err)
	}
}

// hold sleeps until until unless ctx ends or the lock is lost first.
func (e *LockingTaskExecutor) hold(ctx, lockCtx context.Context, until time.Time) {
	wait := until.Sub(e.now())
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-lockCtx.Done():
	}
}

func (e *LockingTaskExecutor) debug(msg string, attrs ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, attrs...)
	}
}
