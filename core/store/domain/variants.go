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
	"io"
	"strings"

	"github.com/gofrs/uuid/v5"
)

type (
	NewVariant struct {
		ColorID     uuid.UUID
		Quantity    int
		IsAvailable *bool
	}

	VariantChanges struct {
		ColorID     *uuid.UUID
		Quantity    *int
		IsAvailable *bool
	}

	NewSize struct {
		Value       string
		Quantity    int
		IsAvailable *bool
	}

	SizeChanges struct {
		Value       *string
		Quantity    *int
		IsAvailable *bool
	}

	NewImage struct {
		VariantID *uuid.UUID
		URL       string
	}
)

func (app *Application) CreateVariant(ctx context.Context, actor Actor, productID uuid.UUID, in NewVariant) (*Variant, error) {
	p, err := app.ownedProduct(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	v := Variant{
		ID:        app.newID(),
		ProductID: p.ID,
		ColorID:   in.ColorID,
		Quantity:  in.Quantity,
	}
	v.IsAvailable = availability(v.Quantity, in.IsAvailable, true, true)
	if err := validateVariant(&v, p); err != nil {
		return nil, err
	}
	created, err := app.store.CreateVariant(ctx, v)
	if err != nil {
		return nil, unhandled(ctx, "create variant", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return created, nil
}

func (app *Application) ModifyVariant(ctx context.Context, actor Actor, id uuid.UUID, ch VariantChanges) (*Variant, error) {
	v, p, err := app.ownedVariant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ch.ColorID != nil {
		v.ColorID = *ch.ColorID
	}
	qtyChanged := ch.Quantity != nil && *ch.Quantity != v.Quantity
	if ch.Quantity != nil {
		v.Quantity = *ch.Quantity
	}
	v.IsAvailable = availability(v.Quantity, ch.IsAvailable, v.IsAvailable, qtyChanged)
	if err := validateVariant(v, p); err != nil {
		return nil, err
	}
	updated, err := app.store.UpdateVariant(ctx, *v)
	if err != nil {
		return nil, unhandled(ctx, "update variant", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return updated, nil
}

func (app *Application) DeleteVariant(ctx context.Context, actor Actor, id uuid.UUID) error {
	_, p, err := app.ownedVariant(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := app.store.DeleteVariant(ctx, id); err != nil {
		return unhandled(ctx, "delete variant", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return nil
}

func (app *Application) CreateSize(ctx context.Context, actor Actor, variantID uuid.UUID, in NewSize) (*Size, error) {
	v, p, err := app.ownedVariant(ctx, actor, variantID)
	if err != nil {
		return nil, err
	}
	s := Size{
		ID:        app.newID(),
		VariantID: v.ID,
		Value:     strings.TrimSpace(in.Value),
		Quantity:  in.Quantity,
	}
	s.IsAvailable = availability(s.Quantity, in.IsAvailable, true, true)
	if err := validateSize(&s, v); err != nil {
		return nil, err
	}
	created, err := app.store.CreateSize(ctx, s)
	if err != nil {
		return nil, unhandled(ctx, "create size", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return created, nil
}

func (app *Application) ModifySize(ctx context.Context, actor Actor, id uuid.UUID, ch SizeChanges) (*Size, error) {
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	s, err := app.store.GetSize(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get size", err)
	}
	v, p, err := app.ownedVariant(ctx, actor, s.VariantID)
	if err != nil {
		return nil, err
	}
	if ch.Value != nil {
		s.Value = strings.TrimSpace(*ch.Value)
	}
	qtyChanged := ch.Quantity != nil && *ch.Quantity != s.Quantity
	if ch.Quantity != nil {
		s.Quantity = *ch.Quantity
	}
	s.IsAvailable = availability(s.Quantity, ch.IsAvailable, s.IsAvailable, qtyChanged)
	if err := validateSize(s, v); err != nil {
		return nil, err
	}
	updated, err := app.store.UpdateSize(ctx, *s)
	if err != nil {
		return nil, unhandled(ctx, "update size", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return updated, nil
}

func (app *Application) DeleteSize(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id.IsNil() {
		return ErrInvalidData
	}
	s, err := app.store.GetSize(ctx, id)
	if err != nil {
		return unhandled(ctx, "get size", err)
	}
	_, p, err := app.ownedVariant(ctx, actor, s.VariantID)
	if err != nil {
		return err
	}
	if err := app.store.DeleteSize(ctx, id); err != nil {
		return unhandled(ctx, "delete size", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return nil
}

func (app *Application) AddImage(ctx context.Context, actor Actor, productID uuid.UUID, in NewImage) (*Image, error) {
	p, err := app.ownedProduct(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, failField(ErrInvalidData, "url", "This field may not be blank.")
	}
	if in.VariantID != nil {
		v, err := app.store.GetVariant(ctx, *in.VariantID)
		if err != nil {
			return nil, unhandled(ctx, "get variant", err)
		}
		if v.ProductID != p.ID {
			return nil, failField(ErrInvalidData, "variantId", "Variant does not belong to this product.")
		}
	}
	img, err := app.store.CreateImage(ctx, Image{
		ID:        app.newID(),
		ProductID: p.ID,
		VariantID: in.VariantID,
		URL:       url,
		CreatedAt: app.now(),
	})
	if err != nil {
		return nil, unhandled(ctx, "create image", err)
	}
	app.cache.Invalidate(ctx, keyProduct(p.ID))
	return img, nil
}

// UploadImage stores the file with the media adapter and attaches its URL.
func (app *Application) UploadImage(ctx context.Context, actor Actor, productID uuid.UUID, variantID *uuid.UUID, filename string, r io.Reader) (*Image, error) {
	if _, err := app.ownedProduct(ctx, actor, productID); err != nil {
		return nil, err
	}
	url, err := app.media.Upload(ctx, filename, r)
	if err != nil {
		return nil, unhandled(ctx, "upload image", err)
	}
	return app.AddImage(ctx, actor, productID, NewImage{VariantID: variantID, URL: url})
}

func (app *Application) DeleteImage(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id.IsNil() {
		return ErrInvalidData
	}
	img, err := app.store.GetImage(ctx, id)
	if err != nil {
		return unhandled(ctx, "get image", err)
	}
	if _, err := app.ownedProduct(ctx, actor, img.ProductID); err != nil {
		return err
	}
	if err := app.store.DeleteImage(ctx, id); err != nil {
		return unhandled(ctx, "delete image", err)
	}
	app.cache.Invalidate(ctx, keyProduct(img.ProductID))
	return nil
}

func (app *Application) ownedVariant(ctx context.Context, actor Actor, id uuid.UUID) (*Variant, *Product, error) {
	if err := requireUser(actor); err != nil {
		return nil, nil, err
	}
	if id.IsNil() {
		return nil, nil, ErrInvalidData
	}
	v, err := app.store.GetVariant(ctx, id)
	if err != nil {
		return nil, nil, unhandled(ctx, "get variant", err)
	}
	p, err := app.ownedProduct(ctx, actor, v.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return v, p, nil
}

func validateVariant(v *Variant, p *Product) error {
	switch {
	case v.ColorID.IsNil():
		return failField(ErrInvalidData, "colorId", "This field is required.")
	case v.Quantity < 0:
		return failField(ErrInvalidData, "quantity", "Ensure this value is greater than or equal to 0.")
	case v.Quantity > p.Quantity:
		return failField(ErrInvalidData, "quantity", "Quantity of variant cannot exceed the quantity of the product.")
	}
	return nil
}

func validateSize(s *Size, v *Variant) error {
	switch {
	case !ValidSize(s.Value):
		return failField(ErrInvalidData, "value", `"`+s.Value+`" is not a valid choice.`)
	case s.Quantity < 0:
		return failField(ErrInvalidData, "quantity", "Ensure this value is greater than or equal to 0.")
	case s.Quantity > v.Quantity:
		return failField(ErrInvalidData, "quantity", "Quantity of size cannot exceed the quantity of the variant.")
	}
	return nil
}
