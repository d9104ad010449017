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

// Package cache is the read-through catalog cache. It never fails a request:
// every backend error is logged and treated as a miss.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"storefront/core/store/domain"
	"storefront/modules/db"
)

type Config struct {
	TTL    time.Duration `env:"TTL" envDefault:"5m"`
	Prefix string        `env:"PREFIX" envDefault:"storefront:cache:"`
}

// Store is the key-value backend, e.g. *redis.RedisKV.
type Store interface {
	db.KV
	db.PrefixDeleter
}

var _ domain.Cache = (*Cache)(nil)

type Cache struct {
	kv     db.JSONKV[json.RawMessage]
	prefix db.PrefixDeleter
}

func New(store Store) *Cache {
	return &Cache{
		kv:     db.NewJSONKV[json.RawMessage](store),
		prefix: store,
	}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache: get failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(*raw, dst); err != nil {
		slog.WarnContext(ctx, "cache: stale entry", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache: encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if _, err := c.kv.Set(ctx, key, json.RawMessage(b)); err != nil {
		slog.WarnContext(ctx, "cache: set failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.kv.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache: invalidate failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	n, err := c.prefix.DeletePrefix(ctx, prefix)
	if err != nil {
		slog.WarnContext(ctx, "cache: invalidate prefix failed", slog.String("prefix", prefix), slog.Any("error", err))
		return
	}
	slog.DebugContext(ctx, "cache: invalidated", slog.String("prefix", prefix), slog.Int64("keys", n))
}
