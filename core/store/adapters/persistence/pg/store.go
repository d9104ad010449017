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

package pg

import (
	"context"
	"fmt"

	"storefront/core/store/domain"
	"storefront/modules/db"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var _ domain.Store = (*PostgresStore)(nil)

// PostgresStore implements every store port. Public catalog listings read from
// a replica; everything a caller may read back right after writing it goes
// through the primary.
type PostgresStore struct {
	pool db.ConnectionPool

	productStmt bob.QueryStmt[idArgs, productRow, []productRow]
	variantStmt bob.QueryStmt[idArgs, variantRow, []variantRow]
	sizeStmt    bob.QueryStmt[idArgs, sizeRow, []sizeRow]
}

type idArgs struct {
	ID uuid.UUID `db:"id"`
}

// NewPostgresStore prepares the hot-path statements on the primary.
func NewPostgresStore(ctx context.Context, pool db.ConnectionPool) (*PostgresStore, error) {
	primary := pool.Writer().(bob.DB)
	s := &PostgresStore{pool: pool}

	var err error

	s.productStmt, err = bob.PrepareQuery[idArgs](ctx, primary, psql.Select(
		sm.Columns(productColumns...),
		sm.From(productsTable),
		sm.Where(psql.Quote(productsTable, "id").EQ(bob.Named("id"))),
		sm.Where(psql.Quote(productsTable, "deleted_at").IsNull()),
	), scan.StructMapper[productRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare get product: %w", err)
	}

	s.variantStmt, err = bob.PrepareQuery[idArgs](ctx, primary, psql.Select(
		sm.Columns(variantColumns...),
		sm.From(variantsTable),
		sm.Where(psql.Quote("id").EQ(bob.Named("id"))),
	), scan.StructMapper[variantRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare get variant: %w", err)
	}

	s.sizeStmt, err = bob.PrepareQuery[idArgs](ctx, primary, psql.Select(
		sm.Columns(sizeColumns...),
		sm.From(sizesTable),
		sm.Where(psql.Quote("id").EQ(bob.Named("id"))),
	), scan.StructMapper[sizeRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare get size: %w", err)
	}

	return s, nil
}

// withTx runs fn in a transaction on the primary.
func (s *PostgresStore) withTx(ctx context.Context, fn func(ctx context.Context, tx bob.Tx) error) error {
	return s.pool.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		tx, err := asTx(q)
		if err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}
