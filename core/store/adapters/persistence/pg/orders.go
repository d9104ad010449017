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
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var (
	orderColumns = []any{
		"orders.ref", "orders.user_id", "orders.status", "orders.source", "orders.total",
		"orders.redirect_url", "orders.authorization_url", "orders.created_at", "orders.completed_at",
		"(SELECT email FROM users WHERE users.id = orders.user_id) AS email",
	}
	orderItemColumns = []any{
		"id", "order_ref", "product_id", "variant_id", "size_id", "brand_id",
		"product_name", "size_value", "quantity", "unit_price", "fulfilled",
	}
)

type (
	orderRow struct {
		Ref              uuid.UUID      `db:"ref"`
		UserID           uuid.UUID      `db:"user_id"`
		Email            string         `db:"email"`
		Status           string         `db:"status"`
		Source           string         `db:"source"`
		Total            int64          `db:"total"`
		RedirectURL      string         `db:"redirect_url"`
		AuthorizationURL sql.NullString `db:"authorization_url"`
		CreatedAt        time.Time      `db:"created_at"`
		CompletedAt      sql.NullTime   `db:"completed_at"`
	}

	orderItemRow struct {
		ID          uuid.UUID `db:"id"`
		OrderRef    uuid.UUID `db:"order_ref"`
		ProductID   uuid.UUID `db:"product_id"`
		VariantID   uuid.UUID `db:"variant_id"`
		SizeID      uuid.UUID `db:"size_id"`
		BrandID     uuid.UUID `db:"brand_id"`
		ProductName string    `db:"product_name"`
		SizeValue   string    `db:"size_value"`
		Quantity    int       `db:"quantity"`
		UnitPrice   int64     `db:"unit_price"`
		Fulfilled   bool      `db:"fulfilled"`
	}
)

func (r orderRow) toDomain() domain.Order {
	o := domain.Order{
		Ref:              r.Ref,
		UserID:           r.UserID,
		Email:            r.Email,
		Status:           domain.OrderStatus(r.Status),
		Source:           domain.OrderSource(r.Source),
		Total:            r.Total,
		RedirectURL:      r.RedirectURL,
		AuthorizationURL: stringPtr(r.AuthorizationURL),
		CreatedAt:        r.CreatedAt,
	}
	if r.CompletedAt.Valid {
		at := r.CompletedAt.Time
		o.CompletedAt = &at
	}
	return o
}

func (r orderItemRow) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ID:          r.ID,
		ProductID:   r.ProductID,
		VariantID:   r.VariantID,
		SizeID:      r.SizeID,
		BrandID:     r.BrandID,
		ProductName: r.ProductName,
		SizeValue:   r.SizeValue,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Fulfilled:   r.Fulfilled,
	}
}

func selectOrders(mods ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(orderColumns...),
		sm.From(ordersTable),
	)
	q.Apply(mods...)
	return q
}

// orderItems loads the items of refs in insertion order, grouped by order.
func orderItems(ctx context.Context, exec bob.Executor, refs ...uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	rows, err := bob.All(ctx, exec, psql.Select(
		sm.Columns(orderItemColumns...),
		sm.From(orderItemsTable),
		sm.Where(psql.Quote("order_ref").In(inIDs(refs)...)),
		sm.OrderBy("id"),
	), scan.StructMapper[orderItemRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}

	out := make(map[uuid.UUID][]domain.OrderItem, len(refs))
	for _, r := range rows {
		out[r.OrderRef] = append(out[r.OrderRef], r.toDomain())
	}
	return out, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	err := s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		if _, err := bob.Exec(ctx, tx, psql.Insert(
			im.Into(ordersTable, "ref", "user_id", "status", "source", "total", "redirect_url", "created_at"),
			im.Values(psql.Arg(o.Ref, o.UserID, string(o.Status), string(o.Source), o.Total, o.RedirectURL, o.CreatedAt)),
		)); err != nil {
			return err
		}

		if len(o.Items) == 0 {
			return nil
		}
		q := psql.Insert(im.Into(orderItemsTable,
			"id", "order_ref", "product_id", "variant_id", "size_id", "brand_id",
			"product_name", "size_value", "quantity", "unit_price", "fulfilled",
		))
		for _, it := range o.Items {
			q.Apply(im.Values(psql.Arg(
				it.ID, o.Ref, it.ProductID, it.VariantID, it.SizeID, it.BrandID,
				it.ProductName, it.SizeValue, it.Quantity, it.UnitPrice, it.Fulfilled,
			)))
		}
		_, err := bob.Exec(ctx, tx, q)
		return err
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return s.GetOrder(ctx, o.Ref)
}

func (s *PostgresStore) SetAuthorizationURL(ctx context.Context, ref uuid.UUID, url string) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Update(
		um.Table(ordersTable),
		um.SetCol("authorization_url").To(psql.Arg(url)),
		um.Where(psql.Quote("ref").EQ(psql.Arg(ref))),
	)))
}

func (s *PostgresStore) GetOrder(ctx context.Context, ref uuid.UUID) (*domain.Order, error) {
	return getOrder(ctx, s.pool.Writer(), ref)
}

func getOrder(ctx context.Context, exec bob.Executor, ref uuid.UUID, mods ...bob.Mod[*dialect.SelectQuery]) (*domain.Order, error) {
	q := selectOrders(sm.Where(psql.Quote(ordersTable, "ref").EQ(psql.Arg(ref))))
	q.Apply(mods...)

	row, err := bob.One(ctx, exec, q, scan.StructMapper[orderRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}

	items, err := orderItems(ctx, exec, ref)
	if err != nil {
		return nil, err
	}
	o := row.toDomain()
	o.Items = items[ref]
	return &o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]domain.Order, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, domain.ErrInvalidData
	}

	var filter []bob.Mod[*dialect.SelectQuery]
	if userID != nil {
		filter = append(filter, sm.Where(psql.Quote(ordersTable, "user_id").EQ(psql.Arg(*userID))))
	}

	exec := s.pool.Reader()
	q := selectOrders(filter...)
	q.Apply(
		sm.OrderBy(psql.Quote(ordersTable, "created_at")).Desc(),
		sm.Limit(limit),
		sm.Offset(offset),
	)
	rows, err := bob.All(ctx, exec, q, scan.StructMapper[orderRow]())
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	refs := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		refs[i] = r.Ref
	}
	items, err := orderItems(ctx, exec, refs...)
	if err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.toDomain()
		orders[i].Items = items[r.Ref]
	}

	countQuery := psql.Select(sm.Columns("COUNT(*)"), sm.From(ordersTable))
	countQuery.Apply(filter...)
	count, err := bob.One(ctx, exec, countQuery, scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return orders, count, nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, ref uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(ordersTable),
		dm.Where(psql.Quote("ref").EQ(psql.Arg(ref))),
	)))
}
