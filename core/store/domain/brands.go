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
	"github.com/gosimple/slug"
	"github.com/oapi-codegen/nullable"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type (
	NewBrand struct {
		Name string
		Logo *string
	}

	// BrandChanges is a partial update. Logo may be cleared with an explicit null.
	BrandChanges struct {
		Name              *string
		Logo              nullable.Nullable[string]
		CommissionPercent *decimal.Decimal
	}
)

func (app *Application) ListBrands(ctx context.Context, page, pageSize int) ([]Brand, int, error) {
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	key := keyBrandPage(limit, offset)
	var cached brandPage
	if app.cache.Get(ctx, key, &cached) {
		return cached.Brands, cached.Total, nil
	}
	brands, total, err := app.store.ListBrands(ctx, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list brands", err)
	}
	app.cache.Set(ctx, key, brandPage{Brands: brands, Total: total})
	return brands, total, nil
}

func (app *Application) GetBrand(ctx context.Context, id uuid.UUID) (*Brand, error) {
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	var cached Brand
	if app.cache.Get(ctx, keyBrand(id), &cached) {
		return &cached, nil
	}
	b, err := app.store.GetBrand(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get brand", err)
	}
	app.cache.Set(ctx, keyBrand(id), b)
	return b, nil
}

// CreateBrand makes the caller the owner of a new brand.
func (app *Application) CreateBrand(ctx context.Context, actor Actor, in NewBrand) (*Brand, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, failField(ErrInvalidData, "name", "This field may not be blank.")
	}
	s := slug.Make(name)
	if s == "" {
		return nil, failField(ErrInvalidData, "name", "Name must contain letters or digits.")
	}
	b, err := app.store.CreateBrand(ctx, Brand{
		ID:                app.newID(),
		OwnerID:           actor.UserID,
		OwnerEmail:        actor.Email,
		Name:              name,
		Slug:              s,
		Logo:              in.Logo,
		CommissionPercent: decimal.Zero,
		CreatedAt:         app.now(),
	})
	if err != nil {
		return nil, unhandled(ctx, "create brand", err)
	}
	app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	return b, nil
}

// ModifyBrand lets the owner or staff change name and logo. Only staff may set the commission.
func (app *Application) ModifyBrand(ctx context.Context, actor Actor, id uuid.UUID, ch BrandChanges) (*Brand, error) {
	b, err := app.store.GetBrand(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get brand", err)
	}
	if err := requireOwnerOrStaff(actor, b.OwnerID, true); err != nil {
		return nil, err
	}

	if ch.Name != nil {
		name := strings.TrimSpace(*ch.Name)
		if name == "" || slug.Make(name) == "" {
			return nil, failField(ErrInvalidData, "name", "This field may not be blank.")
		}
		b.Name = name
		b.Slug = slug.Make(name)
	}
	if ch.Logo.IsSpecified() {
		if ch.Logo.IsNull() {
			b.Logo = nil
		} else {
			logo := ch.Logo.MustGet()
			b.Logo = &logo
		}
	}
	if ch.CommissionPercent != nil {
		if !actor.IsStaff {
			return nil, failField(ErrForbidden, "commissionPercent", "Only staff can change the commission.")
		}
		c := *ch.CommissionPercent
		if c.IsNegative() || c.GreaterThan(hundred) {
			return nil, failField(ErrInvalidData, "commissionPercent", "Ensure this value is between 0 and 100.")
		}
		b.CommissionPercent = c
	}

	updated, err := app.store.UpdateBrand(ctx, *b)
	if err != nil {
		return nil, unhandled(ctx, "update brand", err)
	}
	app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	return updated, nil
}

func (app *Application) DeleteBrand(ctx context.Context, actor Actor, id uuid.UUID) error {
	b, err := app.store.GetBrand(ctx, id)
	if err != nil {
		return unhandled(ctx, "get brand", err)
	}
	if err := requireOwnerOrStaff(actor, b.OwnerID, true); err != nil {
		return err
	}
	if err := app.store.DeleteBrand(ctx, id); err != nil {
		return unhandled(ctx, "delete brand", err)
	}
	app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	return nil
}
