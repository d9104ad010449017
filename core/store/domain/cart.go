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

package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
)

type CartAction string

const (
	CartAdd      CartAction = "add"
	CartSubtract CartAction = "subtract"
	CartRemove   CartAction = "remove"
)

// CartUpdate mirrors the request body; nil means the field was omitted.
type CartUpdate struct {
	VariantID *uuid.UUID
	Action    *string
	Quantity  *int
	SizeID    *uuid.UUID
}

const (
	detailVariantOutOfStock = "This variant of this product is out of stock"
	detailAddTooMany        = "The quantity you are trying to add is greater than is available"
	detailSizeOutOfStock    = "The Size of the product you're adding to cart is out of stock"
	detailEmptyCartAlter    = "Cannot alter an empty cart"
	detailSubtractMissing   = "Cannot reduce the quantity of an item that is not in the cart"
	detailRemoveMissing     = "Cannot remove an item that is not in the cart"
)

func (app *Application) GetCart(ctx context.Context, actor Actor) (*Cart, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	c, err := app.store.GetCart(ctx, actor.UserID)
	return c, unhandled(ctx, "get cart", err)
}

func (app *Application) ClearCart(ctx context.Context, actor Actor) error {
	c, err := app.GetCart(ctx, actor)
	if err != nil {
		return err
	}
	return unhandled(ctx, "clear cart", app.store.ClearCart(ctx, c.ID))
}

// UpdateCart adds, subtracts or removes a variant and returns the resulting cart.
func (app *Application) UpdateCart(ctx context.Context, actor Actor, in CartUpdate) (*Cart, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	missing := map[string]string{}
	if in.VariantID == nil || in.VariantID.IsNil() {
		missing["product_variant_id"] = "This field is required."
	}
	var action CartAction
	if in.Action == nil || strings.TrimSpace(*in.Action) == "" {
		missing["action"] = "This field is required."
	} else {
		action = CartAction(strings.ToLower(strings.TrimSpace(*in.Action)))
		if action != CartAdd && action != CartSubtract && action != CartRemove {
			missing["action"] = "Invalid action: Your choices are add, subtract, remove"
		}
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty <= 0 {
		missing["quantity"] = "Ensure this value is greater than 0."
	}
	if len(missing) > 0 {
		return nil, failFields(ErrInvalidData, "Invalid cart update.", missing)
	}

	variant, err := app.store.GetVariant(ctx, *in.VariantID)
	if err != nil {
		return nil, unhandled(ctx, "get variant", err)
	}
	cart, err := app.store.GetCart(ctx, actor.UserID)
	if err != nil {
		return nil, unhandled(ctx, "get cart", err)
	}

	switch action {
	case CartAdd:
		err = app.addToCart(ctx, cart, variant, in.SizeID, qty)
	case CartSubtract:
		err = app.subtractFromCart(ctx, cart, variant, in.SizeID, qty)
	case CartRemove:
		err = app.removeFromCart(ctx, cart, variant, in.SizeID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := app.store.GetCart(ctx, actor.UserID)
	return updated, unhandled(ctx, "get cart", err)
}

func (app *Application) addToCart(ctx context.Context, cart *Cart, variant *Variant, sizeID *uuid.UUID, qty int) error {
	if !variant.IsAvailable {
		return fail(ErrOutOfStock, detailVariantOutOfStock)
	}
	if sizeID == nil || sizeID.IsNil() {
		return failField(ErrInvalidData, "size", "This field is required")
	}
	if variant.Quantity < qty {
		return fail(ErrInsufficientStock, detailAddTooMany)
	}

	if existing := findCartItem(cart, variant.ID, sizeID); existing != nil {
		if existing.Quantity+qty > variant.Quantity {
			return fail(ErrInsufficientStock, detailAddTooMany)
		}
		return unhandled(ctx, "add cart item", app.store.AddCartItem(ctx, cart.ID, CartItem{
			ID:        existing.ID,
			ProductID: existing.ProductID,
			VariantID: variant.ID,
			SizeID:    *sizeID,
			Quantity:  qty,
		}))
	}

	size, err := app.store.GetSize(ctx, *sizeID)
	if errors.Is(err, ErrNotFound) {
		return fail(ErrOutOfStock, detailSizeOutOfStock)
	}
	if err != nil {
		return unhandled(ctx, "get size", err)
	}
	if size.VariantID != variant.ID || !size.IsAvailable || size.Quantity < qty {
		return fail(ErrOutOfStock, detailSizeOutOfStock)
	}
	product, err := app.store.GetProduct(ctx, variant.ProductID)
	if err != nil {
		return unhandled(ctx, "get product", err)
	}
	return unhandled(ctx, "add cart item", app.store.AddCartItem(ctx, cart.ID, CartItem{
		ID:        app.newID(),
		ProductID: product.ID,
		VariantID: variant.ID,
		SizeID:    size.ID,
		Quantity:  qty,
	}))
}

func (app *Application) subtractFromCart(ctx context.Context, cart *Cart, variant *Variant, sizeID *uuid.UUID, qty int) error {
	if len(cart.Items) == 0 {
		return fail(ErrEmptyCart, detailEmptyCartAlter)
	}
	item := findCartItem(cart, variant.ID, sizeID)
	if item == nil {
		return fail(ErrInvalidData, detailSubtractMissing)
	}
	if qty >= item.Quantity {
		return unhandled(ctx, "remove cart item", app.store.RemoveCartItem(ctx, item.ID))
	}
	return unhandled(ctx, "set cart item quantity", app.store.SetCartItemQuantity(ctx, item.ID, item.Quantity-qty))
}

func (app *Application) removeFromCart(ctx context.Context, cart *Cart, variant *Variant, sizeID *uuid.UUID) error {
	if len(cart.Items) == 0 {
		return fail(ErrEmptyCart, detailEmptyCartAlter)
	}
	item := findCartItem(cart, variant.ID, sizeID)
	if item == nil {
		return fail(ErrNotFound, detailRemoveMissing)
	}
	return unhandled(ctx, "remove cart item", app.store.RemoveCartItem(ctx, item.ID))
}

// findCartItem matches by variant, and by size too when one is given.
func findCartItem(cart *Cart, variantID uuid.UUID, sizeID *uuid.UUID) *CartItem {
	for i := range cart.Items {
		it := &cart.Items[i]
		if it.VariantID != variantID {
			continue
		}
		if sizeID != nil && !sizeID.IsNil() && it.SizeID != *sizeID {
			continue
		}
		return it
	}
	return nil
}
