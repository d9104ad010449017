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

// Package jobs runs store tasks under a cluster-wide lock and schedules the
// periodic payout.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/core/store/domain"
	"storefront/modules/db/redis/locking"
)

type Config struct {
	// Interval of the payout job. Zero disables it; staff can still trigger payouts.
	Interval time.Duration `env:"INTERVAL" envDefault:"0s"`
	// LockTTL bounds how long one payout may hold the lock.
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"5m"`
	// MinHold keeps the lock after a quick run so peers firing on the same tick skip.
	MinHold time.Duration `env:"MIN_HOLD" envDefault:"10s"`
}

// Executor is satisfied by *locking.LockingTaskExecutor.
type Executor interface {
	Execute(ctx context.Context, cfg locking.LockConfiguration, task locking.TaskFunc) error
}

var _ domain.TaskRunner = (*LockedRunner)(nil)

type LockedRunner struct {
	exec Executor
	cfg  Config
}

func NewLockedRunner(exec Executor, cfg Config) *LockedRunner {
	return &LockedRunner{exec: exec, cfg: cfg}
}

func (r *LockedRunner) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := r.exec.Execute(ctx, locking.LockConfiguration{
		Name:           name,
		LockAtMostFor:  r.cfg.LockTTL,
		LockAtLeastFor: r.cfg.MinHold,
	}, fn)
	if errors.Is(err, locking.ErrLockNotAcquired) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, name)
	}
	return err
}

// Payouter is the use case the scheduler drives.
type Payouter interface {
	RunPayout(ctx context.Context) (*domain.PayoutResult, error)
}

// PayoutScheduler pays out unpaid transfers every Interval until ctx is done.
type PayoutScheduler struct {
	app      Payouter
	interval time.Duration
}

func NewPayoutScheduler(app Payouter, cfg Config) *PayoutScheduler {
	return &PayoutScheduler{app: app, interval: cfg.Interval}
}

// Run blocks until ctx is cancelled. It returns at once when the job is disabled.
func (s *PayoutScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		slog.InfoContext(ctx, "payout job disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "payout job started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *PayoutScheduler) tick(ctx context.Context) {
	res, err := s.app.RunPayout(ctx)
	switch {
	case errors.Is(err, domain.ErrConflict):
		slog.DebugContext(ctx, "payout job skipped, lock held elsewhere")
	case err != nil:
		slog.ErrorContext(ctx, "payout job failed", slog.Any("error", err))
	case res == nil:
		slog.DebugContext(ctx, "payout job: nothing due")
	default:
		slog.InfoContext(ctx, "payout job sent",
			slog.Int("transfers", res.Transfers),
			slog.Int64("amount", res.Amount),
		)
	}
}
