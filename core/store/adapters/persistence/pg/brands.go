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
	"database/sql"
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const brandsTable = "brands"

var brandColumns = []any{
	"brands.id", "brands.owner_id", "brands.name", "brands.slug", "brands.logo",
	"brands.commission_percent", "brands.subaccount_code", "brands.recipient_code", "brands.created_at",
	"(SELECT email FROM users WHERE users.id = brands.owner_id) AS owner_email",
}

type brandRow struct {
	ID                uuid.UUID       `db:"id"`
	OwnerID           uuid.UUID       `db:"owner_id"`
	OwnerEmail        sql.NullString  `db:"owner_email"`
	Name              string          `db:"name"`
	Slug              string          `db:"slug"`
	Logo              sql.NullString  `db:"logo"`
	CommissionPercent decimal.Decimal `db:"commission_percent"`
	SubaccountCode    sql.NullString  `db:"subaccount_code"`
	RecipientCode     sql.NullString  `db:"recipient_code"`
	CreatedAt         time.Time       `db:"created_at"`
}

func (r brandRow) toDomain() domain.Brand {
	return domain.Brand{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		OwnerEmail:        r.OwnerEmail.String,
		Name:              r.Name,
		Slug:              r.Slug,
		Logo:              stringPtr(r.Logo),
		CommissionPercent: r.CommissionPercent,
		SubaccountCode:    stringPtr(r.SubaccountCode),
		RecipientCode:     stringPtr(r.RecipientCode),
		CreatedAt:         r.CreatedAt,
	}
}

type brandTransformer struct{}

func (brandTransformer) TransformScanned(rows []brandRow) ([]domain.Brand, error) {
	out := make([]domain.Brand, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func selectBrands(mods ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(brandColumns...),
		sm.From(brandsTable),
	)
	q.Apply(mods...)
	return q
}

func (s *PostgresStore) ListBrands(ctx context.Context, limit, offset int) ([]domain.Brand, int, error) {
	brands, err := bob.Allx[brandTransformer](ctx, s.pool.Reader(), selectBrands(
		sm.OrderBy("brands.name"),
		sm.Limit(limit),
		sm.Offset(offset),
	), scan.StructMapper[brandRow]())
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	count, err := bob.One(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("COUNT(*)"),
		sm.From(brandsTable),
	), scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return brands, count, nil
}

func (s *PostgresStore) GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	row, err := bob.One(ctx, s.pool.Writer(), selectBrands(
		sm.Where(psql.Quote(brandsTable, "id").EQ(psql.Arg(id))),
	), scan.StructMapper[brandRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	b := row.toDomain()
	return &b, nil
}

// CreateBrand inserts the brand and flags its owner in one transaction.
func (s *PostgresStore) CreateBrand(ctx context.Context, b domain.Brand) (*domain.Brand, error) {
	err := s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		if _, err := bob.Exec(ctx, tx, psql.Insert(
			im.Into(brandsTable, "id", "owner_id", "name", "slug", "logo", "commission_percent", "created_at"),
			im.Values(psql.Arg(b.ID, b.OwnerID, b.Name, b.Slug, nullString(b.Logo), b.CommissionPercent, b.CreatedAt)),
		)); err != nil {
			return err
		}
		_, err := bob.Exec(ctx, tx, psql.Update(
			um.Table("users"),
			um.SetCol("is_brand_owner").To(psql.Raw("true")),
			um.Where(psql.Quote("id").EQ(psql.Arg(b.OwnerID))),
		))
		return err
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return s.GetBrand(ctx, b.ID)
}

func (s *PostgresStore) UpdateBrand(ctx context.Context, b domain.Brand) (*domain.Brand, error) {
	if err := expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Update(
		um.Table(brandsTable),
		um.SetCol("name").To(psql.Arg(b.Name)),
		um.SetCol("slug").To(psql.Arg(b.Slug)),
		um.SetCol("logo").To(psql.Arg(nullString(b.Logo))),
		um.SetCol("commission_percent").To(psql.Arg(b.CommissionPercent)),
		um.Where(psql.Quote("id").EQ(psql.Arg(b.ID))),
	))); err != nil {
		return nil, err
	}
	return s.GetBrand(ctx, b.ID)
}

func (s *PostgresStore) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(brandsTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}
