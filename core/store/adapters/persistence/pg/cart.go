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

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const cartItemsTable = "cart_items"

type cartItemRow struct {
	ID          uuid.UUID `db:"id"`
	ProductID   uuid.UUID `db:"product_id"`
	VariantID   uuid.UUID `db:"variant_id"`
	SizeID      uuid.UUID `db:"size_id"`
	BrandID     uuid.UUID `db:"brand_id"`
	ProductName string    `db:"product_name"`
	SizeValue   string    `db:"size_value"`
	Quantity    int       `db:"quantity"`
	UnitPrice   int64     `db:"unit_price"`
}

// GetCart returns the user's cart, creating an empty one on first access.
// Item names and prices are read live from the catalog.
func (s *PostgresStore) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	newID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	exec := s.pool.Writer()
	cartID, err := bob.One(ctx, exec, psql.RawQuery(
		`INSERT INTO carts (id, user_id) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id`, newID, userID,
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, wrapStoreError(err)
	}

	rows, err := bob.All(ctx, exec, psql.RawQuery(
		`SELECT ci.id, ci.product_id, ci.variant_id, ci.size_id, ci.quantity,
		        p.brand_id, p.name AS product_name, p.price AS unit_price, sz.value AS size_value
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 JOIN sizes sz ON sz.id = ci.size_id
		 WHERE ci.cart_id = ?
		 ORDER BY ci.created_at, ci.id`, cartID,
	), scan.StructMapper[cartItemRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}

	cart := &domain.Cart{ID: cartID, UserID: userID}
	for _, r := range rows {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:          r.ID,
			ProductID:   r.ProductID,
			VariantID:   r.VariantID,
			SizeID:      r.SizeID,
			BrandID:     r.BrandID,
			ProductName: r.ProductName,
			SizeValue:   r.SizeValue,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		})
	}
	return cart, nil
}

func (s *PostgresStore) AddCartItem(ctx context.Context, cartID uuid.UUID, item domain.CartItem) error {
	_, err := bob.Exec(ctx, s.pool.Writer(), psql.RawQuery(
		`INSERT INTO cart_items (id, cart_id, product_id, variant_id, size_id, quantity)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (cart_id, variant_id, size_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		item.ID, cartID, item.ProductID, item.VariantID, item.SizeID, item.Quantity,
	))
	return wrapStoreError(err)
}

func (s *PostgresStore) SetCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Update(
		um.Table(cartItemsTable),
		um.SetCol("quantity").To(psql.Arg(quantity)),
		um.Where(psql.Quote("id").EQ(psql.Arg(itemID))),
	)))
}

func (s *PostgresStore) RemoveCartItem(ctx context.Context, itemID uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(cartItemsTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(itemID))),
	)))
}

func (s *PostgresStore) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(cartItemsTable),
		dm.Where(psql.Quote("cart_id").EQ(psql.Arg(cartID))),
	))
	return wrapStoreError(err)
}
