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
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"
)

var checkoutChannels = []string{"card", "bank"}

const (
	detailProductOutOfStock = "Product is out of stock"
	detailOrderTooMany      = "'quantity' is greater than the quantity of the product available"
	detailOrderSizeOut      = "The size of the product you are trying to order is out of stock"
	detailCartEmpty         = "Your cart is empty"
)

type (
	CheckoutRequest struct {
		VariantID   *uuid.UUID
		Size        string
		Quantity    int
		RedirectURL string
	}

	CheckoutResult struct {
		Ref              uuid.UUID
		AuthorizationURL string
		AccessCode       string
	}
)

// Checkout creates a pending order for one variant, or for the whole cart when
// no variant is given, and starts a gateway transaction for it.
func (app *Application) Checkout(ctx context.Context, actor Actor, in CheckoutRequest) (*CheckoutResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validateRedirect(in.RedirectURL); err != nil {
		return nil, err
	}
	if in.Size == "" {
		in.Size = SizeNotApplicable
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, failField(ErrInvalidData, "quantity", "Ensure this value is greater than 0.")
	}

	order := Order{
		Ref:         app.newID(),
		UserID:      actor.UserID,
		Email:       actor.Email,
		Status:      OrderPending,
		RedirectURL: in.RedirectURL,
		CreatedAt:   app.now(),
	}

	var err error
	if in.VariantID != nil {
		order.Source = SourceDirect
		order.Items, err = app.directItems(ctx, *in.VariantID, in.Size, in.Quantity)
	} else {
		order.Source = SourceCart
		order.Items, err = app.cartItems(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	for i := range order.Items {
		order.Items[i].ID = app.newID()
		order.Items[i].Fulfilled = true
		order.Total += order.Items[i].Subtotal()
	}

	subaccount, err := app.singleBrandSubaccount(ctx, order.Items)
	if err != nil {
		return nil, err
	}

	created, err := app.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, unhandled(ctx, "create order", err)
	}

	session, err := app.gateway.InitializeTransaction(ctx, TransactionInit{
		Email:       actor.Email,
		Amount:      created.Total,
		Currency:    Currency,
		Reference:   created.Ref.String(),
		CallbackURL: created.RedirectURL,
		Channels:    checkoutChannels,
		Subaccount:  subaccount,
	})
	if err != nil {
		slog.ErrorContext(ctx, "initialize transaction failed",
			slog.String("order.ref", created.Ref.String()), slog.Any("error", err))
		if errors.Is(err, ErrGateway) {
			return nil, fail(ErrGateway, "The payment gateway could not start the transaction, try again later.")
		}
		return nil, unhandled(ctx, "initialize transaction", err)
	}
	if err := app.store.SetAuthorizationURL(ctx, created.Ref, session.AuthorizationURL); err != nil {
		slog.WarnContext(ctx, "failed to persist authorization url",
			slog.String("order.ref", created.Ref.String()), slog.Any("error", err))
	}

	return &CheckoutResult{
		Ref:              created.Ref,
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
	}, nil
}

func (app *Application) directItems(ctx context.Context, variantID uuid.UUID, sizeValue string, qty int) ([]OrderItem, error) {
	variant, err := app.store.GetVariant(ctx, variantID)
	if err != nil {
		return nil, unhandled(ctx, "get variant", err)
	}
	product, err := app.store.GetProduct(ctx, variant.ProductID)
	if errors.Is(err, ErrNotFound) {
		return nil, fail(ErrOutOfStock, detailProductOutOfStock)
	}
	if err != nil {
		return nil, unhandled(ctx, "get product", err)
	}
	if !variant.IsAvailable || !product.IsAvailable {
		return nil, fail(ErrOutOfStock, detailProductOutOfStock)
	}
	if qty > variant.Quantity {
		return nil, fail(ErrInsufficientStock, detailOrderTooMany)
	}
	size, err := app.store.GetSizeByValue(ctx, variant.ID, sizeValue)
	if errors.Is(err, ErrNotFound) {
		return nil, fail(ErrOutOfStock, detailOrderSizeOut)
	}
	if err != nil {
		return nil, unhandled(ctx, "get size", err)
	}
	if !size.IsAvailable || size.Quantity < qty {
		return nil, fail(ErrOutOfStock, detailOrderSizeOut)
	}
	return []OrderItem{{
		ProductID:   product.ID,
		VariantID:   variant.ID,
		SizeID:      size.ID,
		BrandID:     product.BrandID,
		ProductName: product.Name,
		SizeValue:   size.Value,
		Quantity:    qty,
		UnitPrice:   product.Price,
	}}, nil
}

// cartItems snapshots the cart at its current prices.
func (app *Application) cartItems(ctx context.Context, userID uuid.UUID) ([]OrderItem, error) {
	cart, err := app.store.GetCart(ctx, userID)
	if err != nil {
		return nil, unhandled(ctx, "get cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, fail(ErrEmptyCart, detailCartEmpty)
	}
	items := make([]OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, OrderItem{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			SizeID:      it.SizeID,
			BrandID:     it.BrandID,
			ProductName: it.ProductName,
			SizeValue:   it.SizeValue,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return items, nil
}

// singleBrandSubaccount returns the brand's subaccount when every item comes from one brand.
func (app *Application) singleBrandSubaccount(ctx context.Context, items []OrderItem) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	brandID := items[0].BrandID
	for _, it := range items[1:] {
		if it.BrandID != brandID {
			return "", nil
		}
	}
	b, err := app.store.GetBrand(ctx, brandID)
	if err != nil {
		return "", unhandled(ctx, "get brand", err)
	}
	if b.SubaccountCode == nil {
		return "", nil
	}
	return *b.SubaccountCode, nil
}

func (app *Application) GetOrder(ctx context.Context, actor Actor, ref uuid.UUID) (*Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if ref.IsNil() {
		return nil, ErrInvalidData
	}
	o, err := app.store.GetOrder(ctx, ref)
	if err != nil {
		return nil, unhandled(ctx, "get order", err)
	}
	if err := requireOwnerOrStaff(actor, o.UserID, true); err != nil {
		return nil, err
	}
	return o, nil
}

func (app *Application) ListOrders(ctx context.Context, actor Actor, page, pageSize int) ([]Order, int, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	var user *uuid.UUID
	if !actor.IsStaff {
		user = &actor.UserID
	}
	orders, total, err := app.store.ListOrders(ctx, user, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list orders", err)
	}
	return orders, total, nil
}

func (app *Application) DeleteOrder(ctx context.Context, actor Actor, ref uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return unhandled(ctx, "delete order", app.store.DeleteOrder(ctx, ref))
}

// VerifyOrder asks the gateway for the transaction status of the order.
func (app *Application) VerifyOrder(ctx context.Context, actor Actor, ref uuid.UUID) (*TransactionStatus, error) {
	o, err := app.GetOrder(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	st, err := app.gateway.VerifyTransaction(ctx, o.Ref.String())
	return st, unhandled(ctx, "verify transaction", err)
}

// OrderReceipt renders a PDF receipt of a completed order.
func (app *Application) OrderReceipt(ctx context.Context, actor Actor, ref uuid.UUID) ([]byte, error) {
	o, err := app.GetOrder(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	if o.Status != OrderCompleted {
		return nil, fail(ErrInvalidData, "Receipts are only available for completed orders.")
	}
	if app.receipts == nil {
		return nil, ErrUnhandled
	}
	pdf, err := app.receipts.Render(ctx, o)
	return pdf, unhandled(ctx, "render receipt", err)
}

func validateRedirect(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return failField(ErrInvalidData, "redirect_url", "This field is required.")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return failField(ErrInvalidData, "redirect_url", "Enter a valid URL.")
	}
	return nil
}
