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

const (
	categoriesTable = "categories"
	colorsTable     = "colors"
)

type (
	categoryRow struct {
		ID        uuid.UUID `db:"id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}

	colorRow struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
		Code string    `db:"code"`
	}
)

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func (r colorRow) toDomain() domain.Color {
	return domain.Color{ID: r.ID, Name: r.Name, Code: r.Code}
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := bob.All(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("id", "name", "created_at"),
		sm.From(categoriesTable),
		sm.OrderBy("name"),
	), scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := make([]domain.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	row, err := bob.One(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("id", "name", "created_at"),
		sm.From(categoriesTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	c := row.toDomain()
	return &c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(categoriesTable, "id", "name", "created_at"),
		im.Values(psql.Arg(c.ID, c.Name, c.CreatedAt)),
		im.Returning("id", "name", "created_at"),
	), scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) RenameCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(categoriesTable),
		um.SetCol("name").To(psql.Arg(name)),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Returning("id", "name", "created_at"),
	), scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(categoriesTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

func (s *PostgresStore) ListColors(ctx context.Context) ([]domain.Color, error) {
	rows, err := bob.All(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("id", "name", "code"),
		sm.From(colorsTable),
		sm.OrderBy("name"),
	), scan.StructMapper[colorRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := make([]domain.Color, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *PostgresStore) CreateColor(ctx context.Context, c domain.Color) (*domain.Color, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(colorsTable, "id", "name", "code"),
		im.Values(psql.Arg(c.ID, c.Name, c.Code)),
		im.Returning("id", "name", "code"),
	), scan.StructMapper[colorRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteColor(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(colorsTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}
