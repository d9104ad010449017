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
	"slices"
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

func (s *PostgresStore) WithWebhookTx(ctx context.Context, fn func(ctx context.Context, tx domain.WebhookTx) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		return fn(ctx, &pgWebhookTx{tx: tx})
	})
}

type pgWebhookTx struct {
	tx bob.Tx
}

var _ domain.WebhookTx = (*pgWebhookTx)(nil)

type stockRow struct {
	ID          uuid.UUID `db:"id"`
	Quantity    int       `db:"quantity"`
	IsAvailable bool      `db:"is_available"`
}

func (t *pgWebhookTx) LockOrder(ctx context.Context, ref uuid.UUID) (*domain.Order, error) {
	return getOrder(ctx, t.tx, ref, sm.ForUpdate(ordersTable))
}

// LockStock locks products, then variants, then sizes. Within a level rows are
// locked in id order so that concurrent webhooks cannot deadlock each other.
func (t *pgWebhookTx) LockStock(ctx context.Context, items []domain.OrderItem) (*domain.Stock, error) {
	var products, variants, sizes []uuid.UUID
	for _, it := range items {
		products = append(products, it.ProductID)
		variants = append(variants, it.VariantID)
		sizes = append(sizes, it.SizeID)
	}

	st := &domain.Stock{}
	var err error
	if st.Products, err = t.lockLevel(ctx, productsTable, products); err != nil {
		return nil, err
	}
	if st.Variants, err = t.lockLevel(ctx, variantsTable, variants); err != nil {
		return nil, err
	}
	if st.Sizes, err = t.lockLevel(ctx, sizesTable, sizes); err != nil {
		return nil, err
	}
	return st, nil
}

func (t *pgWebhookTx) lockLevel(ctx context.Context, table string, ids []uuid.UUID) (map[uuid.UUID]*domain.StockRow, error) {
	ids = sortedUnique(ids)
	out := make(map[uuid.UUID]*domain.StockRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := bob.All(ctx, t.tx, psql.Select(
		sm.Columns("id", "quantity", "is_available"),
		sm.From(table),
		sm.Where(psql.Quote("id").In(inIDs(ids)...)),
		sm.OrderBy("id"),
		sm.ForUpdate(),
	), scan.StructMapper[stockRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	for _, r := range rows {
		out[r.ID] = &domain.StockRow{ID: r.ID, Quantity: r.Quantity, IsAvailable: r.IsAvailable}
	}
	return out, nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

func (t *pgWebhookTx) SaveStock(ctx context.Context, st *domain.Stock) error {
	levels := []struct {
		table string
		rows  map[uuid.UUID]*domain.StockRow
	}{
		{productsTable, st.Products},
		{variantsTable, st.Variants},
		{sizesTable, st.Sizes},
	}

	for _, level := range levels {
		ids := make([]uuid.UUID, 0, len(level.rows))
		for id := range level.rows {
			ids = append(ids, id)
		}
		for _, id := range sortedUnique(ids) {
			r := level.rows[id]
			if _, err := bob.Exec(ctx, t.tx, psql.Update(
				um.Table(level.table),
				um.SetCol("quantity").To(psql.Arg(r.Quantity)),
				um.SetCol("is_available").To(psql.Arg(r.IsAvailable)),
				um.Where(psql.Quote("id").EQ(psql.Arg(id))),
			)); err != nil {
				return wrapStoreError(err)
			}
		}
	}
	return nil
}

func (t *pgWebhookTx) MarkItemUnfulfilled(ctx context.Context, itemID uuid.UUID) error {
	return expectRow(bob.Exec(ctx, t.tx, psql.Update(
		um.Table(orderItemsTable),
		um.SetCol("fulfilled").To(psql.Raw("false")),
		um.Where(psql.Quote("id").EQ(psql.Arg(itemID))),
	)))
}

func (t *pgWebhookTx) AddCustomer(ctx context.Context, productID, userID uuid.UUID) error {
	_, err := bob.Exec(ctx, t.tx, psql.RawQuery(
		`INSERT INTO product_customers (product_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		productID, userID,
	))
	return wrapStoreError(err)
}

func (t *pgWebhookTx) BrandsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Brand, error) {
	ids = sortedUnique(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	brands, err := bob.Allx[brandTransformer](ctx, t.tx, selectBrands(
		sm.Where(psql.Quote(brandsTable, "id").In(inIDs(ids)...)),
		sm.OrderBy(psql.Quote(brandsTable, "id")),
	), scan.StructMapper[brandRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return brands, nil
}

func (t *pgWebhookTx) CreateTransfer(ctx context.Context, tr domain.Transfer) error {
	_, err := bob.Exec(ctx, t.tx, psql.Insert(
		im.Into(transfersTable, "id", "ref", "brand_id", "amount", "paid", "code", "created_at"),
		im.Values(psql.Arg(tr.ID, tr.Ref, tr.BrandID, tr.Amount, tr.Paid, nullString(tr.Code), tr.CreatedAt)),
	))
	return wrapStoreError(err)
}

func (t *pgWebhookTx) CreateMessage(ctx context.Context, m domain.Message) error {
	_, err := bob.Exec(ctx, t.tx, psql.Insert(
		im.Into(messagesTable, "id", "brand_id", "user_id", "status", "body", "order_item_ids", "created_at"),
		im.Values(psql.Arg(m.ID, m.BrandID, m.UserID, string(m.Status), m.Body, uuidList(m.OrderItemIDs), m.CreatedAt)),
	))
	return wrapStoreError(err)
}

func (t *pgWebhookTx) CompleteOrder(ctx context.Context, ref uuid.UUID, at time.Time) error {
	return expectRow(bob.Exec(ctx, t.tx, psql.Update(
		um.Table(ordersTable),
		um.SetCol("status").To(psql.Arg(string(domain.OrderCompleted))),
		um.SetCol("completed_at").To(psql.Arg(at)),
		um.Where(psql.Quote("ref").EQ(psql.Arg(ref))),
	)))
}

func (t *pgWebhookTx) ClearUserCart(ctx context.Context, userID uuid.UUID) error {
	_, err := bob.Exec(ctx, t.tx, psql.Delete(
		dm.From(cartItemsTable),
		dm.Where(psql.Raw("cart_id IN (SELECT id FROM carts WHERE user_id = ?)", userID)),
	))
	return wrapStoreError(err)
}

func (t *pgWebhookTx) LockTransfer(ctx context.Context, ref uuid.UUID) (*domain.Transfer, error) {
	row, err := bob.One(ctx, t.tx, psql.Select(
		sm.Columns(transferColumns...),
		sm.From(transfersTable),
		sm.Where(psql.Quote("ref").EQ(psql.Arg(ref))),
		sm.ForUpdate(),
	), scan.StructMapper[transferRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	tr := row.toDomain()
	return &tr, nil
}

func (t *pgWebhookTx) SaveTransfer(ctx context.Context, tr domain.Transfer) error {
	return expectRow(bob.Exec(ctx, t.tx, psql.Update(
		um.Table(transfersTable),
		um.SetCol("amount").To(psql.Arg(tr.Amount)),
		um.SetCol("paid").To(psql.Arg(tr.Paid)),
		um.SetCol("code").To(psql.Arg(nullString(tr.Code))),
		um.Where(psql.Quote("id").EQ(psql.Arg(tr.ID))),
	)))
}
