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
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const reviewsTable = "reviews"

var reviewColumns = []any{"id", "product_id", "user_id", "stars", "body", "created_at"}

type reviewRow struct {
	ID        uuid.UUID `db:"id"`
	ProductID uuid.UUID `db:"product_id"`
	UserID    uuid.UUID `db:"user_id"`
	Stars     int       `db:"stars"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func (r reviewRow) toDomain() domain.Review {
	return domain.Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Stars:     r.Stars,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

func (s *PostgresStore) ListReviews(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	rows, err := bob.All(ctx, s.pool.Reader(), psql.Select(
		sm.Columns(reviewColumns...),
		sm.From(reviewsTable),
		sm.Where(psql.Quote("product_id").EQ(psql.Arg(productID))),
		sm.OrderBy("created_at").Desc(),
	), scan.StructMapper[reviewRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}

	out := make([]domain.Review, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *PostgresStore) GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(reviewColumns...),
		sm.From(reviewsTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[reviewRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	r := row.toDomain()
	return &r, nil
}

func (s *PostgresStore) CreateReview(ctx context.Context, r domain.Review) (*domain.Review, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(reviewsTable, "id", "product_id", "user_id", "stars", "body", "created_at", "updated_at"),
		im.Values(psql.Arg(r.ID, r.ProductID, r.UserID, r.Stars, r.Body, r.CreatedAt, r.CreatedAt)),
		im.Returning(reviewColumns...),
	), scan.StructMapper[reviewRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) UpdateReview(ctx context.Context, r domain.Review) (*domain.Review, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(reviewsTable),
		um.SetCol("stars").To(psql.Arg(r.Stars)),
		um.SetCol("body").To(psql.Arg(r.Body)),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(psql.Arg(r.ID))),
		um.Returning(reviewColumns...),
	), scan.StructMapper[reviewRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(reviewsTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}
