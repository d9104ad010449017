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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync/atomic"
	"time"

	"storefront/modules/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"
)

var _ db.ConnectionPool = (*PostgresConnectionPool)(nil)

// PostgresConnectionPool routes writes and transactions to the primary and
// spreads plain reads over the replicas.
type PostgresConnectionPool struct {
	primary  bob.DB
	replicas []bob.DB
	next     atomic.Uint32

	primaryConfig PoolConfig
	migrations    fs.FS
	migrationsDir string
}

func New(ctx context.Context, config *PostgresConfig, opts PostgresOptions) (*PostgresConnectionPool, error) {
	primary, err := open(ctx, &config.WriteConfig, opts.WriterOptions)
	if err != nil {
		return nil, fmt.Errorf("postgres: open primary: %w", err)
	}

	p := &PostgresConnectionPool{
		primary:       primary,
		primaryConfig: config.WriteConfig,
		migrations:    opts.Migrations,
		migrationsDir: opts.MigrationsDir,
	}
	if p.migrationsDir == "" {
		p.migrationsDir = "migrations"
	}

	for i := range config.ReadConfigs {
		rc := &config.ReadConfigs[i]
		replica, err := open(ctx, rc, opts.ReaderOptions)
		if err != nil {
			// reads fall back to the primary
			slog.WarnContext(ctx, "postgres replica unavailable", slog.String("host", rc.Host), slog.Any("error", err))
			continue
		}
		p.replicas = append(p.replicas, replica)
	}
	return p, nil
}

func open(ctx context.Context, cfg *PoolConfig, opts []PgxConfigOption) (bob.DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL(true).String())
	if err != nil {
		return bob.DB{}, err
	}
	for _, opt := range opts {
		if opt != nil {
			opt(pc)
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return bob.DB{}, err
	}
	return bob.NewDB(stdlib.OpenDBFromPool(pool)), nil
}

func (p *PostgresConnectionPool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := p.primary.ExecContext(ctx, "SELECT 1")
	return err
}

func (p *PostgresConnectionPool) Writer() db.Querier {
	return p.primary
}

// Reader picks replicas round robin.
func (p *PostgresConnectionPool) Reader() db.Querier {
	n := len(p.replicas)
	if n == 0 {
		return p.primary
	}
	return p.replicas[int(p.next.Add(1)-1)%n]
}

// WithTx runs fn in a READ COMMITTED transaction on the primary. Concurrent
// writers are serialized by the row locks fn takes (SELECT ... FOR UPDATE).
func (p *PostgresConnectionPool) WithTx(ctx context.Context, fn db.TxFn) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return p.primary.RunInTx(ctx, opts, func(ctx context.Context, tx bob.Executor) error {
		return fn(ctx, tx)
	})
}

func (p *PostgresConnectionPool) WithTimeoutTx(ctx context.Context, timeout time.Duration, fn db.TxFn) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.WithTx(ctx, fn)
}

func (p *PostgresConnectionPool) Shutdown(context.Context) error {
	if p == nil {
		return nil
	}
	errs := []error{p.primary.Close()}
	for _, r := range p.replicas {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
