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
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"
)

var colorCode = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

func (app *Application) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if app.cache.Get(ctx, keyCategories, &cached) {
		return cached, nil
	}
	cats, err := app.store.ListCategories(ctx)
	if err != nil {
		return nil, unhandled(ctx, "list categories", err)
	}
	app.cache.Set(ctx, keyCategories, cats)
	return cats, nil
}

func (app *Application) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	c, err := app.store.GetCategory(ctx, id)
	return c, unhandled(ctx, "get category", err)
}

func (app *Application) CreateCategory(ctx context.Context, actor Actor, name string) (*Category, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, failField(ErrInvalidData, "name", "This field may not be blank.")
	}
	c, err := app.store.CreateCategory(ctx, Category{ID: app.newID(), Name: name, CreatedAt: app.now()})
	if err != nil {
		return nil, unhandled(ctx, "create category", err)
	}
	app.cache.Invalidate(ctx, keyCategories)
	return c, nil
}

func (app *Application) RenameCategory(ctx context.Context, actor Actor, id uuid.UUID, name string) (*Category, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if id.IsNil() || name == "" {
		return nil, ErrInvalidData
	}
	c, err := app.store.RenameCategory(ctx, id, name)
	if err != nil {
		return nil, unhandled(ctx, "rename category", err)
	}
	app.cache.Invalidate(ctx, keyCategories)
	return c, nil
}

func (app *Application) DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := app.store.DeleteCategory(ctx, id); err != nil {
		return unhandled(ctx, "delete category", err)
	}
	app.cache.Invalidate(ctx, keyCategories)
	return nil
}

func (app *Application) ListColors(ctx context.Context) ([]Color, error) {
	colors, err := app.store.ListColors(ctx)
	return colors, unhandled(ctx, "list colors", err)
}

func (app *Application) CreateColor(ctx context.Context, actor Actor, name, code string) (*Color, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, failField(ErrInvalidData, "name", "This field may not be blank.")
	}
	code = strings.TrimPrefix(strings.TrimSpace(code), "#")
	if !colorCode.MatchString(code) {
		return nil, failField(ErrInvalidData, "code", "Enter a 6 digit hex color code.")
	}
	c, err := app.store.CreateColor(ctx, Color{ID: app.newID(), Name: name, Code: strings.ToUpper(code)})
	return c, unhandled(ctx, "create color", err)
}

func (app *Application) DeleteColor(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return unhandled(ctx, "delete color", app.store.DeleteColor(ctx, id))
}
