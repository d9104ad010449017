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

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

func (app *Application) GetUser(ctx context.Context, a Actor, id uuid.UUID) (*User, error) {
	if err := selfOrStaff(a, id); err != nil {
		return nil, err
	}
	u, err := app.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get user", err)
	}
	return u, nil
}

// ListUsers pages through every account. Staff only.
func (app *Application) ListUsers(ctx context.Context, a Actor, page, pageSize int) ([]User, int, error) {
	if a.Anonymous() {
		return nil, 0, ErrUnauthenticated
	}
	if !a.IsStaff {
		return nil, 0, ErrForbidden
	}
	if page < 0 || pageSize <= 0 || pageSize > maxPageSize {
		return nil, 0, ErrInvalidData
	}

	users, total, err := app.store.ListUsers(ctx, pageSize, page*pageSize)
	if err != nil {
		return nil, 0, unhandled(ctx, "list users", err)
	}
	return users, total, nil
}

// ModifyUser applies profile changes. Account flags cannot be changed here.
func (app *Application) ModifyUser(ctx context.Context, a Actor, id uuid.UUID, c UserChanges) (*User, error) {
	if err := selfOrStaff(a, id); err != nil {
		return nil, err
	}

	u, err := app.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "modify user", err)
	}

	if c.FirstName.IsSpecified() {
		u.FirstName = textOrEmpty(c.FirstName)
	}
	if c.LastName.IsSpecified() {
		u.LastName = textOrEmpty(c.LastName)
	}
	if c.Pic.IsSpecified() {
		if c.Pic.IsNull() {
			u.Pic = nil
		} else {
			pic := c.Pic.MustGet()
			u.Pic = &pic
		}
	}
	if len(u.FirstName) > 150 || len(u.LastName) > 150 {
		return nil, fail(ErrInvalidData, "Ensure names have no more than 150 characters.")
	}
	u.UpdatedAt = app.now()

	updated, err := app.store.ModifyUser(ctx, *u)
	if err != nil {
		return nil, unhandled(ctx, "modify user", err)
	}
	return updated, nil
}

// DeactivateUser disables the account. Existing tokens stop working on the next request.
func (app *Application) DeactivateUser(ctx context.Context, a Actor, id uuid.UUID) error {
	if err := selfOrStaff(a, id); err != nil {
		return err
	}
	return unhandled(ctx, "deactivate user", app.store.DeactivateUser(ctx, id))
}

func textOrEmpty(v nullable.Nullable[string]) string {
	if v.IsNull() {
		return ""
	}
	return v.MustGet()
}
