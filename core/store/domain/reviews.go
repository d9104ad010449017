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
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
)

const maxReviewBody = 1000

func (app *Application) ListReviews(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	if productID.IsNil() {
		return nil, ErrInvalidData
	}
	reviews, err := app.store.ListReviews(ctx, productID)
	return reviews, unhandled(ctx, "list reviews", err)
}

// CreateReview accepts one review per customer per product.
func (app *Application) CreateReview(ctx context.Context, actor Actor, productID uuid.UUID, stars int, body string) (*Review, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validateReview(stars, body); err != nil {
		return nil, err
	}
	if _, err := app.store.GetProduct(ctx, productID); err != nil {
		return nil, unhandled(ctx, "get product", err)
	}
	ok, err := app.store.IsCustomer(ctx, productID, actor.UserID)
	if err != nil {
		return nil, unhandled(ctx, "is customer", err)
	}
	if !ok {
		return nil, fail(ErrForbidden, "Only customers who bought this product can review it.")
	}
	r, err := app.store.CreateReview(ctx, Review{
		ID:        app.newID(),
		ProductID: productID,
		UserID:    actor.UserID,
		Stars:     stars,
		Body:      body,
		CreatedAt: app.now(),
	})
	if err != nil {
		return nil, unhandled(ctx, "create review", err)
	}
	app.cache.Invalidate(ctx, keyProduct(productID))
	return r, nil
}

func (app *Application) ModifyReview(ctx context.Context, actor Actor, id uuid.UUID, stars *int, body *string) (*Review, error) {
	r, err := app.review(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	if stars != nil {
		r.Stars = *stars
	}
	if body != nil {
		r.Body = *body
	}
	if err := validateReview(r.Stars, r.Body); err != nil {
		return nil, err
	}
	updated, err := app.store.UpdateReview(ctx, *r)
	if err != nil {
		return nil, unhandled(ctx, "update review", err)
	}
	app.cache.Invalidate(ctx, keyProduct(r.ProductID))
	return updated, nil
}

func (app *Application) DeleteReview(ctx context.Context, actor Actor, id uuid.UUID) error {
	r, err := app.review(ctx, actor, id, true)
	if err != nil {
		return err
	}
	if err := app.store.DeleteReview(ctx, id); err != nil {
		return unhandled(ctx, "delete review", err)
	}
	app.cache.Invalidate(ctx, keyProduct(r.ProductID))
	return nil
}

func (app *Application) review(ctx context.Context, actor Actor, id uuid.UUID, allowStaff bool) (*Review, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	r, err := app.store.GetReview(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get review", err)
	}
	if err := requireOwnerOrStaff(actor, r.UserID, allowStaff); err != nil {
		return nil, err
	}
	return r, nil
}

func validateReview(stars int, body string) error {
	if stars < 1 || stars > 5 {
		return failField(ErrInvalidData, "stars", "Ensure this value is between 1 and 5.")
	}
	if utf8.RuneCountInString(body) > maxReviewBody {
		return failField(ErrInvalidData, "body", "Ensure this field has no more than 1000 characters.")
	}
	return nil
}
