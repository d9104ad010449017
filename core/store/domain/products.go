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
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

type (
	NewProduct struct {
		BrandID     uuid.UUID
		CategoryID  uuid.UUID
		Name        string
		Description *string
		Price       int64
		Quantity    int
		IsAvailable *bool
	}

	// ProductChanges is a partial update; nil fields keep their value.
	ProductChanges struct {
		CategoryID  *uuid.UUID
		Name        *string
		Description nullable.Nullable[string]
		Price       *int64
		Quantity    *int
		IsAvailable *bool
	}
)

// availability applies the stock rule: no stock means unavailable, otherwise
// an explicit flag wins, then a restock makes the item available again.
func availability(qty int, requested *bool, current bool, qtyChanged bool) bool {
	switch {
	case qty <= 0:
		return false
	case requested != nil:
		return *requested
	case qtyChanged:
		return true
	default:
		return current
	}
}

func (app *Application) ListProducts(ctx context.Context, f ProductFilter, page, pageSize int) ([]Product, int, error) {
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	products, total, err := app.store.ListProducts(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list products", err)
	}
	return products, total, nil
}

func (app *Application) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	var cached ProductDetail
	if app.cache.Get(ctx, keyProduct(id), &cached) {
		return &cached, nil
	}
	d, err := app.store.GetProductDetail(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get product detail", err)
	}
	app.cache.Set(ctx, keyProduct(id), d)
	return d, nil
}

// CurrentProduct reads the product without the cache, for ETag refreshes after a 412.
func (app *Application) CurrentProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := app.store.GetProduct(ctx, id)
	return p, unhandled(ctx, "get product", err)
}

func (app *Application) CreateProduct(ctx context.Context, actor Actor, in NewProduct) (*Product, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	brand, err := app.store.GetBrand(ctx, in.BrandID)
	if err != nil {
		return nil, unhandled(ctx, "get brand", err)
	}
	if err := requireOwnerOrStaff(actor, brand.OwnerID, false); err != nil {
		return nil, err
	}

	p := Product{
		ID:          app.newID(),
		BrandID:     brand.ID,
		OwnerID:     brand.OwnerID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		CreatedAt:   app.now(),
		Version:     1,
	}
	p.IsAvailable = availability(p.Quantity, in.IsAvailable, true, true)
	if err := validateProduct(&p); err != nil {
		return nil, err
	}

	created, err := app.store.CreateProduct(ctx, p)
	return created, unhandled(ctx, "create product", err)
}

// UpdateProduct replaces every mutable field. A nil description clears it.
func (app *Application) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, version int64, in NewProduct) (*Product, error) {
	desc := nullable.NewNullNullable[string]()
	if in.Description != nil {
		desc = nullable.NewNullableWithValue(*in.Description)
	}
	return app.ModifyProduct(ctx, actor, id, version, ProductChanges{
		CategoryID:  &in.CategoryID,
		Name:        &in.Name,
		Description: desc,
		Price:       &in.Price,
		Quantity:    &in.Quantity,
		IsAvailable: in.IsAvailable,
	})
}

func (app *Application) ModifyProduct(ctx context.Context, actor Actor, id uuid.UUID, version int64, ch ProductChanges) (*Product, error) {
	if id.IsNil() || version <= 0 {
		return nil, ErrInvalidData
	}
	p, err := app.ownedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Version != version {
		return nil, ErrPrecondition
	}

	if ch.CategoryID != nil {
		p.CategoryID = *ch.CategoryID
	}
	if ch.Name != nil {
		p.Name = strings.TrimSpace(*ch.Name)
	}
	if ch.Description.IsSpecified() {
		if ch.Description.IsNull() {
			p.Description = nil
		} else {
			d := ch.Description.MustGet()
			p.Description = &d
		}
	}
	if ch.Price != nil {
		p.Price = *ch.Price
	}
	qtyChanged := ch.Quantity != nil && *ch.Quantity != p.Quantity
	if ch.Quantity != nil {
		p.Quantity = *ch.Quantity
	}
	p.IsAvailable = availability(p.Quantity, ch.IsAvailable, p.IsAvailable, qtyChanged)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	updated, err := app.store.UpdateProduct(ctx, *p)
	if err != nil {
		return nil, unhandled(ctx, "update product", err)
	}
	app.cache.Invalidate(ctx, keyProduct(id))
	return updated, nil
}

func (app *Application) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID, version int64) error {
	if id.IsNil() || version <= 0 {
		return ErrInvalidData
	}
	p, err := app.ownedProduct(ctx, actor, id)
	if err != nil {
		return err
	}
	if p.Version != version {
		return ErrPrecondition
	}
	if err := app.store.DeleteProduct(ctx, id, version); err != nil {
		return unhandled(ctx, "delete product", err)
	}
	app.cache.Invalidate(ctx, keyProduct(id))
	return nil
}

func (app *Application) ownedProduct(ctx context.Context, actor Actor, id uuid.UUID) (*Product, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	p, err := app.store.GetProduct(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get product", err)
	}
	if err := requireOwnerOrStaff(actor, p.OwnerID, false); err != nil {
		return nil, err
	}
	return p, nil
}

func validateProduct(p *Product) error {
	switch {
	case p.Name == "":
		return failField(ErrInvalidData, "name", "This field may not be blank.")
	case p.CategoryID.IsNil():
		return failField(ErrInvalidData, "categoryId", "This field is required.")
	case p.Price <= 0:
		return failField(ErrInvalidData, "price", "Ensure this value is greater than 0.")
	case p.Quantity < 0:
		return failField(ErrInvalidData, "quantity", "Ensure this value is greater than or equal to 0.")
	}
	return nil
}
