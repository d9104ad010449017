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
	"errors"
	"slices"
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const productsTable = "products"

var productColumns = []any{
	"products.id", "products.brand_id", "products.category_id", "products.name", "products.description",
	"products.price", "products.quantity", "products.is_available", "products.created_at", "products.version_number",
	"(SELECT owner_id FROM brands WHERE brands.id = products.brand_id) AS owner_id",
}

type productRow struct {
	ID          uuid.UUID      `db:"id"`
	BrandID     uuid.UUID      `db:"brand_id"`
	OwnerID     uuid.UUID      `db:"owner_id"`
	CategoryID  uuid.UUID      `db:"category_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Price       int64          `db:"price"`
	Quantity    int            `db:"quantity"`
	IsAvailable bool           `db:"is_available"`
	CreatedAt   time.Time      `db:"created_at"`
	Version     int64          `db:"version_number"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		BrandID:     r.BrandID,
		OwnerID:     r.OwnerID,
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: stringPtr(r.Description),
		Price:       r.Price,
		Quantity:    r.Quantity,
		IsAvailable: r.IsAvailable,
		CreatedAt:   r.CreatedAt,
		Version:     r.Version,
	}
}

type productTransformer struct{}

func (productTransformer) TransformScanned(rows []productRow) ([]domain.Product, error) {
	out := make([]domain.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// productFilter renders f as WHERE mods over live products.
func productFilter(f domain.ProductFilter) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Where(psql.Quote(productsTable, "deleted_at").IsNull()),
	}
	if f.CategoryID != nil {
		mods = append(mods, sm.Where(psql.Quote(productsTable, "category_id").EQ(psql.Arg(*f.CategoryID))))
	}
	if f.BrandID != nil {
		mods = append(mods, sm.Where(psql.Quote(productsTable, "brand_id").EQ(psql.Arg(*f.BrandID))))
	}
	if f.Available != nil {
		mods = append(mods, sm.Where(psql.Quote(productsTable, "is_available").EQ(psql.Arg(*f.Available))))
	}
	return mods
}

func selectProducts(f domain.ProductFilter, mods ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(productColumns...),
		sm.From(productsTable),
	)
	q.Apply(productFilter(f)...)
	q.Apply(mods...)
	return q
}

func (s *PostgresStore) ListProducts(ctx context.Context, f domain.ProductFilter, limit, offset int) ([]domain.Product, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, domain.ErrInvalidData
	}

	products, err := bob.Allx[productTransformer](ctx, s.pool.Reader(), selectProducts(f,
		sm.OrderBy(psql.Quote(productsTable, "created_at")).Desc(),
		sm.OrderBy(psql.Quote(productsTable, "id")).Desc(),
		sm.Limit(limit),
		sm.Offset(offset),
	), scan.StructMapper[productRow]())
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	countQuery := psql.Select(
		sm.Columns("COUNT(*)"),
		sm.From(productsTable),
	)
	countQuery.Apply(productFilter(f)...)

	count, err := bob.One(ctx, s.pool.Reader(), countQuery, scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return products, count, nil
}

func (s *PostgresStore) ListProductsFirstPage(ctx context.Context, f domain.ProductFilter, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidData
	}

	products, err := bob.Allx[productTransformer](ctx, s.pool.Reader(), selectProducts(f,
		sm.OrderBy(psql.Quote(productsTable, "created_at")).Desc(),
		sm.OrderBy(psql.Quote(productsTable, "id")).Desc(),
		sm.Limit(limit),
	), scan.StructMapper[productRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return products, nil
}

// ListProductsByCursor pages away from the pivot. Backward pages are read in
// ascending order, so the rows nearest the pivot are kept, then flipped.
func (s *PostgresStore) ListProductsByCursor(
	ctx context.Context,
	f domain.ProductFilter,
	pivotCreatedAt time.Time,
	pivotID uuid.UUID,
	dir domain.CursorDirection,
	limit int,
) ([]domain.Product, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidData
	}

	var q bob.BaseQuery[*dialect.SelectQuery]
	if dir == domain.ASC {
		q = selectProducts(f,
			sm.Where(psql.Raw("(products.created_at, products.id) > (?, ?)", pivotCreatedAt, pivotID)),
			sm.OrderBy(psql.Quote(productsTable, "created_at")).Asc(),
			sm.OrderBy(psql.Quote(productsTable, "id")).Asc(),
			sm.Limit(limit),
		)
	} else {
		q = selectProducts(f,
			sm.Where(psql.Raw("(products.created_at, products.id) < (?, ?)", pivotCreatedAt, pivotID)),
			sm.OrderBy(psql.Quote(productsTable, "created_at")).Desc(),
			sm.OrderBy(psql.Quote(productsTable, "id")).Desc(),
			sm.Limit(limit),
		)
	}

	products, err := bob.Allx[productTransformer](ctx, s.pool.Reader(), q, scan.StructMapper[productRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if dir == domain.ASC {
		slices.Reverse(products)
	}
	return products, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row, err := s.productStmt.One(ctx, idArgs{ID: id})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	p := row.toDomain()
	return &p, nil
}

// GetProductDetail assembles the product read model from the replica.
func (s *PostgresStore) GetProductDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	reader := s.pool.Reader()

	row, err := bob.One(ctx, reader, selectProducts(domain.ProductFilter{},
		sm.Where(psql.Quote(productsTable, "id").EQ(psql.Arg(id))),
	), scan.StructMapper[productRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	d := &domain.ProductDetail{Product: row.toDomain()}

	brand, err := bob.One(ctx, reader, selectBrands(
		sm.Where(psql.Quote(brandsTable, "id").EQ(psql.Arg(row.BrandID))),
	), scan.StructMapper[brandRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	d.Brand = brand.toDomain()

	category, err := bob.One(ctx, reader, psql.Select(
		sm.Columns("id", "name", "created_at"),
		sm.From(categoriesTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(row.CategoryID))),
	), scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	d.Category = category.toDomain()

	images, err := bob.All(ctx, reader, psql.Select(
		sm.Columns(imageColumns...),
		sm.From(imagesTable),
		sm.Where(psql.Quote("product_id").EQ(psql.Arg(id))),
		sm.OrderBy("created_at"),
	), scan.StructMapper[imageRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	for _, img := range images {
		d.Images = append(d.Images, img.toDomain())
	}

	if d.Variants, err = s.variantDetails(ctx, reader, id); err != nil {
		return nil, err
	}

	stats, err := bob.One(ctx, reader, psql.RawQuery(
		`SELECT COALESCE(AVG(stars), 0)::float8 AS rating, COUNT(*) AS review_count
		 FROM reviews WHERE product_id = ?`, id,
	), scan.StructMapper[reviewStatsRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	d.Rating, d.ReviewCount = stats.Rating, stats.ReviewCount

	return d, nil
}

type reviewStatsRow struct {
	Rating      float64 `db:"rating"`
	ReviewCount int     `db:"review_count"`
}

type variantDetailRow struct {
	variantRow
	ColorName string `db:"color_name"`
	ColorCode string `db:"color_code"`
}

func (s *PostgresStore) variantDetails(ctx context.Context, exec bob.Executor, productID uuid.UUID) ([]domain.VariantDetail, error) {
	variants, err := bob.All(ctx, exec, psql.RawQuery(
		`SELECT v.id, v.product_id, v.color_id, v.quantity, v.is_available,
		        c.name AS color_name, c.code AS color_code
		 FROM variants v JOIN colors c ON c.id = v.color_id
		 WHERE v.product_id = ?
		 ORDER BY c.name, v.id`, productID,
	), scan.StructMapper[variantDetailRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if len(variants) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
	}
	sizes, err := bob.All(ctx, exec, psql.Select(
		sm.Columns(sizeColumns...),
		sm.From(sizesTable),
		sm.Where(psql.Quote("variant_id").In(inIDs(ids)...)),
		sm.OrderBy("value"),
	), scan.StructMapper[sizeRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}

	bySize := make(map[uuid.UUID][]domain.Size, len(variants))
	for _, sz := range sizes {
		bySize[sz.VariantID] = append(bySize[sz.VariantID], sz.toDomain())
	}

	out := make([]domain.VariantDetail, len(variants))
	for i, v := range variants {
		out[i] = domain.VariantDetail{
			Variant: v.toDomain(),
			Color:   domain.Color{ID: v.ColorID, Name: v.ColorName, Code: v.ColorCode},
			Sizes:   bySize[v.ID],
		}
	}
	return out, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := bob.Exec(ctx, s.pool.Writer(), psql.Insert(
		im.Into(productsTable, "id", "brand_id", "category_id", "name", "description", "price",
			"quantity", "is_available", "version_number", "created_at", "updated_at"),
		im.Values(psql.Arg(p.ID, p.BrandID, p.CategoryID, p.Name, nullString(p.Description), p.Price,
			p.Quantity, p.IsAvailable, p.Version, p.CreatedAt, p.CreatedAt)),
	)); err != nil {
		return nil, wrapStoreError(err)
	}
	return s.GetProduct(ctx, p.ID)
}

// UpdateProduct is a compare-and-swap on version_number.
func (s *PostgresStore) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	_, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(productsTable),
		um.SetCol("category_id").To(psql.Arg(p.CategoryID)),
		um.SetCol("name").To(psql.Arg(p.Name)),
		um.SetCol("description").To(psql.Arg(nullString(p.Description))),
		um.SetCol("price").To(psql.Arg(p.Price)),
		um.SetCol("quantity").To(psql.Arg(p.Quantity)),
		um.SetCol("is_available").To(psql.Arg(p.IsAvailable)),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("id").EQ(psql.Arg(p.ID))),
		um.Where(psql.Quote("deleted_at").IsNull()),
		um.Where(psql.Quote("version_number").EQ(psql.Arg(p.Version))),
		um.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, s.casError(ctx, p.ID, err)
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id uuid.UUID, version int64) error {
	_, err := bob.One(ctx, s.pool.Writer(), psql.Update(
		um.Table(productsTable),
		um.SetCol("deleted_at").To(psql.Raw("now()")),
		um.SetCol("version_number").To(psql.Raw("version_number + 1")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Where(psql.Quote("deleted_at").IsNull()),
		um.Where(psql.Quote("version_number").EQ(psql.Arg(version))),
		um.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return s.casError(ctx, id, err)
	}
	return nil
}

// casError tells a missing product from a stale version after a CAS write hit no row.
func (s *PostgresStore) casError(ctx context.Context, id uuid.UUID, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return wrapStoreError(err)
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return domain.ErrPrecondition
}
