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

// Package ratelimit decides whether a keyed caller may proceed, given a
// request budget per time window.
package ratelimit

import (
	"context"
	"time"
)

// Key identifies the caller being limited, e.g. "user:<id>" or a remote ip.
type Key string

// Result is the outcome of one Allow call.
type Result struct {
	Allowed bool
	Limit   int64
	// Remaining requests in the window after this one.
	Remaining int64
	Window    time.Duration
	// WindowResetIn is the time left in the current fixed window.
	WindowResetIn time.Duration
	// RetryAfter is zero for allowed requests.
	RetryAfter time.Duration
}

// RateLimiter enforces budgets such as 100 requests per minute.
type RateLimiter interface {
	Allow(ctx context.Context, key Key) (Result, error)
}

// LimiterFactory builds a limiter for one policy.
type LimiterFactory func(limit int64, window time.Duration) RateLimiter

// CounterStore keeps the per-window counters, usually in Redis.
type CounterStore interface {
	// Incr bumps key and keeps it alive for at least ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Get returns 0 for a missing key.
	Get(ctx context.Context, key string) (int64, error)
}
