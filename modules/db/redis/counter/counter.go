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

// Package counter backs the sliding window rate limiter with Redis counters.
package counter

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"

	"storefront/modules/db/redis"
	"storefront/modules/ratelimit"
)

var (
	_ ratelimit.CounterStore = (*RedisCounter)(nil)

	// INCR that sets a millisecond expiry only when it creates the key.
	//go:embed incr_expr.lua
	incrLua    string
	incrWithPX = rueidis.NewLuaScript(incrLua)
)

type RedisCounter struct {
	client rueidis.Client
	prefix string
}

func NewRedisCounterStore(client rueidis.Client, prefix string) *RedisCounter {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

// NewInstrumentedRedisCounterStore logs round trips slower than threshold.
// Every request consults the limiter, so a slow Redis surfaces here first.
func NewInstrumentedRedisCounterStore(client rueidis.Client, prefix string, threshold time.Duration) ratelimit.CounterStore {
	if threshold > 0 {
		logger := slog.Default().With(slog.String("component", "ratelimit"))
		client = rueidishook.WithHook(client, redis.NewSlowCommandHook(threshold, logger))
	}
	return NewRedisCounterStore(client, prefix)
}

func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	px := strconv.FormatInt(max(ttl.Milliseconds(), 1), 10)
	n, err := incrWithPX.Exec(ctx, c.client, []string{c.prefix + key}, []string{px}).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter: incr %q: %w", key, err)
	}
	return n, nil
}

func (c *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis counter: get %q: %w", key, err)
	}
	return n, nil
}
