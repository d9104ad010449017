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

package ratelimit

import (
	"context"
	"math/bits"
	"strconv"
	"time"

	"storefront/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a rolling window with two fixed
// windows: the current count plus the previous count scaled by how much of
// the previous window still overlaps the rolling one.
type SlidingWindowRateLimiter struct {
	clock   clock.Clock
	counter CounterStore
	prefix  string
	limit   uint64
	window  time.Duration
}

func SlidingWindowFactory(clk clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(limit int64, window time.Duration) RateLimiter {
		return &SlidingWindowRateLimiter{
			clock:   clk,
			counter: counter,
			prefix:  keyPrefix,
			limit:   uint64(max(limit, 0)),
			window:  window,
		}
	}
}

// span locates an instant inside the fixed window grid.
type span struct {
	index   int64
	elapsed time.Duration
}

func (s *SlidingWindowRateLimiter) locate(t time.Time) span {
	w := s.window.Nanoseconds()
	ns := t.UnixNano()
	return span{index: ns / w, elapsed: time.Duration(ns % w)}
}

func (s *SlidingWindowRateLimiter) counterKey(key Key, index int64) string {
	return s.prefix + ":" + string(key) + ":" + strconv.FormatInt(index, 10)
}

func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	at := s.locate(s.clock.Now())

	// The counter outlives its own window so the next one can weigh it.
	cur, err := s.counter.Incr(ctx, s.counterKey(key, at.index), 2*s.window)
	if err != nil {
		return Result{}, err
	}
	prev, err := s.counter.Get(ctx, s.counterKey(key, at.index-1))
	if err != nil {
		return Result{}, err
	}

	overlap := s.window - at.elapsed
	used, allowed := weightedUsage(
		uint64(max(cur, 0)),
		uint64(max(prev, 0)),
		uint64(overlap.Nanoseconds()),
		uint64(s.window.Nanoseconds()),
		s.limit,
	)

	res := Result{
		Allowed:       allowed,
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: overlap,
	}
	if used < s.limit {
		res.Remaining = int64(s.limit - used)
	}
	if !allowed {
		res.RetryAfter = overlap
	}
	return res, nil
}

// weightedUsage compares cur*window + prev*prevWeight with limit*window using
// 128-bit products, so large windows in nanoseconds never overflow. The
// returned usage is rounded up to whole requests and saturates at MaxUint64.
func weightedUsage(cur, prev, prevWeight, window, limit uint64) (uint64, bool) {
	hi, lo := bits.Mul64(cur, window)
	pHi, pLo := bits.Mul64(prev, prevWeight)
	var carry uint64
	lo, carry = bits.Add64(lo, pLo, 0)
	hi, _ = bits.Add64(hi, pHi, carry)

	capHi, capLo := bits.Mul64(limit, window)
	allowed := hi < capHi || (hi == capHi && lo <= capLo)

	// Div64 panics when the quotient does not fit in 64 bits.
	if hi >= window {
		return ^uint64(0), allowed
	}
	q, r := bits.Div64(hi, lo, window)
	if r != 0 && q != ^uint64(0) {
		q++
	}
	return q, allowed
}
