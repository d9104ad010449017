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

package redis

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/modules/db"

	"github.com/redis/rueidis"
)

var (
	_ db.KV            = (*RedisKV)(nil)
	_ db.PrefixDeleter = (*RedisKV)(nil)

	// SET with an optional EX, returning the previous value in one round trip.
	//go:embed atomic_set.lua
	atomicSetLua string
	setAndGetOld = rueidis.NewLuaScript(atomicSetLua)
)

const scanCount = 500

// RedisKV stores byte values under an optional namespace. The store layer uses
// it for cached catalog reads.
type RedisKV struct {
	client    rueidis.Client
	namespace string
	ttl       time.Duration
	// tracked reads go through rueidis client side caching
	tracked bool
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix namespaces every key; a trailing ":" is added when missing.
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.namespace = prefix
	}
}

// WithDefaultTTL expires every written key after ttl.
func WithDefaultTTL(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) { k.ttl = ttl }
}

// WithClientSideCache serves reads from the client side cache for up to the
// default TTL. It has no effect without one.
func WithClientSideCache() RedisKVOption {
	return func(k *RedisKV) { k.tracked = true }
}

func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (k *RedisKV) full(key string) string { return k.namespace + key }

// bytesOrNil maps a redis nil reply to (nil, nil).
func bytesOrNil(res rueidis.RedisResult) ([]byte, error) {
	b, err := res.AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, nil
	}
	return b, err
}

// AtomicGet returns the stored bytes, or nil for a missing key.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	get := k.client.B().Get().Key(k.full(key))
	var res rueidis.RedisResult
	if k.tracked && k.ttl > 0 {
		res = k.client.DoCache(ctx, get.Cache(), k.ttl)
	} else {
		res = k.client.Do(ctx, get.Build())
	}
	b, err := bytesOrNil(res)
	if err != nil {
		return nil, fmt.Errorf("redis kv: get %q: %w", key, err)
	}
	if b == nil {
		return nil, nil
	}
	return b, nil
}

// AtomicSet writes value and returns the bytes it replaced, or nil.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	payload, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode %q: %w", key, err)
	}
	var ex string
	if k.ttl > 0 {
		// EX takes whole seconds
		ex = strconv.FormatInt(max(int64(k.ttl/time.Second), 1), 10)
	}
	prev, err := bytesOrNil(setAndGetOld.Exec(ctx, k.client, []string{k.full(key)}, []string{payload, ex}))
	if err != nil {
		return nil, fmt.Errorf("redis kv: set %q: %w", key, err)
	}
	if prev == nil {
		return nil, nil
	}
	return prev, nil
}

func (k *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, k.full(key))
	}
	if err := k.client.Do(ctx, k.client.B().Del().Key(full...).Build()).Error(); err != nil {
		return fmt.Errorf("redis kv: delete: %w", err)
	}
	return nil
}

// DeletePrefix unlinks every key under prefix, one SCAN page at a time. In
// cluster mode SCAN only sees the node it is routed to, so prefixes that are
// invalidated together should share a hash tag there.
func (k *RedisKV) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	match := k.full(prefix) + "*"
	var cursor uint64
	var removed int64
	for {
		page, err := k.client.Do(ctx, k.client.B().Scan().Cursor(cursor).Match(match).Count(scanCount).Build()).AsScanEntry()
		if err != nil {
			return removed, fmt.Errorf("redis kv: scan %q: %w", match, err)
		}
		if len(page.Elements) > 0 {
			n, err := k.client.Do(ctx, k.client.B().Unlink().Key(page.Elements...).Build()).AsInt64()
			if err != nil {
				return removed, fmt.Errorf("redis kv: unlink: %w", err)
			}
			removed += n
		}
		if cursor = page.Cursor; cursor == 0 {
			return removed, nil
		}
	}
}

func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}

func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("redis kv: nil values are not allowed")
	case []byte:
		return rueidis.BinaryString(x), nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return rueidis.BinaryString(b), nil
}
