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

// Package db declares the storage ports shared by the persistence adapters.
package db

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
)

// Querier runs queries; both bob.DB and bob.Tx satisfy it.
type Querier interface {
	bob.Executor
}

// TxFn is the body of a transaction. q must be used for every statement.
type TxFn func(ctx context.Context, q Querier) error

// ConnectionPool is a primary with optional read replicas.
type ConnectionPool interface {
	HealthCheck(ctx context.Context) error

	// Writer is the primary.
	Writer() Querier
	// Reader is a replica, or the primary when none is reachable. Reads that
	// must observe the caller's own writes belong on Writer.
	Reader() Querier

	// WithTx runs fn on the primary and commits when it returns nil.
	WithTx(ctx context.Context, fn TxFn) error
	WithTimeoutTx(ctx context.Context, timeout time.Duration, fn TxFn) error

	MigrateUp(ctx context.Context) error
	MigrateDown(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

// KV is a byte store; a miss reads as (nil, nil).
type KV interface {
	AtomicGet(ctx context.Context, key string) (any, error)
	// AtomicSet returns the replaced value, or nil.
	AtomicSet(ctx context.Context, key string, value any) (any, error)
	Delete(ctx context.Context, keys ...string) error
}

// PrefixDeleter drops a key family at once, e.g. every cached product page.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}
