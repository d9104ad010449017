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
	variantsTable = "variants"
	sizesTable    = "sizes"
	imagesTable   = "images"
)

var (
	variantColumns = []any{"id", "product_id", "color_id", "quantity", "is_available"}
	sizeColumns    = []any{"id", "variant_id", "value", "quantity", "is_available"}
	imageColumns   = []any{"id", "product_id", "variant_id", "url", "created_at"}
)

type (
	variantRow struct {
		ID          uuid.UUID `db:"id"`
		ProductID   uuid.UUID `db:"product_id"`
		ColorID     uuid.UUID `db:"color_id"`
		Quantity    int       `db:"quantity"`
		IsAvailable bool      `db:"is_available"`
	}

	sizeRow struct {
		ID          uuid.UUID `db:"id"`
		VariantID   uuid.UUID `db:"variant_id"`
		Value       string    `db:"value"`
		Quantity    int       `db:"quantity"`
		IsAvailable bool      `db:"is_available"`
	}

	imageRow struct {
		ID        uuid.UUID     `db:"id"`
		ProductID uuid.UUID     `db:"product_id"`
		VariantID uuid.NullUUID `db:"variant_id"`
		URL       string        `db:"url"`
		CreatedAt time.Time     `db:"created_at"`
	}
)

func (r variantRow) toDomain() domain.Variant {
	return domain.Variant{
		ID:          r.ID,
		ProductID:   r.ProductID,
		ColorID:     r.ColorID,
		Quantity:    r.Quantity,
		IsAvailable: r.IsAvailable,
	}
}

func (r sizeRow) toDomain() domain.Size {
	return domain.Size{
		ID:          r.ID,
		VariantID:   r.VariantID,
		Value:       r.Value,
		Quantity:    r.Quantity,
		IsAvailable: r.IsAvailable,
	}
}

func (r imageRow) toDomain() domain.Image {
	return domain.Image{
		ID:        r.ID,
		ProductID: r.ProductID,
		VariantID: uuidPtr(r.VariantID),
		URL:       r.URL,
		CreatedAt: r.CreatedAt,
	}
}

// --- variants ---

func (s *PostgresStore) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	row, err := s.variantStmt.One(ctx, idArgs{ID: id})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	v := row.toDomain()
	return &v, nil
}

func (s *PostgresStore) CreateVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(variantsTable, "id", "product_id", "color_id", "quantity", "is_available"),
		im.Values(psql.Arg(v.ID, v.ProductID, v.ColorID, v.Quantity, v.IsAvailable)),
		im.Returning(variantColumns...),
	), scan.StructMapper[variantRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) UpdateVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(variantsTable),
		um.SetCol("color_id").To(psql.Arg(v.ColorID)),
		um.SetCol("quantity").To(psql.Arg(v.Quantity)),
		um.SetCol("is_available").To(psql.Arg(v.IsAvailable)),
		um.Where(psql.Quote("id").EQ(psql.Arg(v.ID))),
		um.Returning(variantColumns...),
	), scan.StructMapper[variantRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(variantsTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

// --- sizes ---

func (s *PostgresStore) GetSize(ctx context.Context, id uuid.UUID) (*domain.Size, error) {
	row, err := s.sizeStmt.One(ctx, idArgs{ID: id})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	sz := row.toDomain()
	return &sz, nil
}

func (s *PostgresStore) GetSizeByValue(ctx context.Context, variantID uuid.UUID, value string) (*domain.Size, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(sizeColumns...),
		sm.From(sizesTable),
		sm.Where(psql.Quote("variant_id").EQ(psql.Arg(variantID))),
		sm.Where(psql.Quote("value").EQ(psql.Arg(value))),
	), scan.StructMapper[sizeRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	sz := row.toDomain()
	return &sz, nil
}

func (s *PostgresStore) CreateSize(ctx context.Context, sz domain.Size) (*domain.Size, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(sizesTable, "id", "variant_id", "value", "quantity", "is_available"),
		im.Values(psql.Arg(sz.ID, sz.VariantID, sz.Value, sz.Quantity, sz.IsAvailable)),
		im.Returning(sizeColumns...),
	), scan.StructMapper[sizeRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) UpdateSize(ctx context.Context, sz domain.Size) (*domain.Size, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(sizesTable),
		um.SetCol("value").To(psql.Arg(sz.Value)),
		um.SetCol("quantity").To(psql.Arg(sz.Quantity)),
		um.SetCol("is_available").To(psql.Arg(sz.IsAvailable)),
		um.Where(psql.Quote("id").EQ(psql.Arg(sz.ID))),
		um.Returning(sizeColumns...),
	), scan.StructMapper[sizeRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteSize(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(sizesTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

// --- images ---

func (s *PostgresStore) GetImage(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(imageColumns...),
		sm.From(imagesTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[imageRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	img := row.toDomain()
	return &img, nil
}

func (s *PostgresStore) CreateImage(ctx context.Context, img domain.Image) (*domain.Image, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(imagesTable, "id", "product_id", "variant_id", "url", "created_at"),
		im.Values(psql.Arg(img.ID, img.ProductID, nullUUID(img.VariantID), img.URL, img.CreatedAt)),
		im.Returning(imageColumns...),
	), scan.StructMapper[imageRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(imagesTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

func (s *PostgresStore) IsCustomer(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	ok, err := bob.One(ctx, s.pool.Reader(), psql.RawQuery(
		`SELECT EXISTS (SELECT 1 FROM product_customers WHERE product_id = ? AND user_id = ?)`,
		productID, userID,
	), scan.SingleColumnMapper[bool])
	if err != nil {
		return false, wrapStoreError(err)
	}
	return ok, nil
}
