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

package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"
	"storefront/modules/etag"
	"storefront/modules/middleware/problem"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime"
)

type (
	productRequest struct {
		Brand       uuid.UUID `json:"brand"`
		Category    uuid.UUID `json:"category"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		Price       int64     `json:"price"`
		Quantity    int       `json:"quantity"`
		IsAvailable *bool     `json:"is_available"`
	}

	modifyProductRequest struct {
		Category    *uuid.UUID                `json:"category"`
		Name        *string                   `json:"name"`
		Description nullable.Nullable[string] `json:"description"`
		Price       *int64                    `json:"price"`
		Quantity    *int                      `json:"quantity"`
		IsAvailable *bool                     `json:"is_available"`
	}

	offsetMeta struct {
		serde.PageMeta
		ETags map[string]string `json:"etags"`
	}

	cursorMeta struct {
		Limit int               `json:"limit"`
		Next  string            `json:"next,omitempty"`
		Prev  string            `json:"prev,omitempty"`
		ETags map[string]string `json:"etags"`
	}

	listParams struct {
		page, pageSize *int
		after, before  *string
		limit          *int
		filter         domain.ProductFilter
	}
)

func queryUUID(q url.Values, name string) (*uuid.UUID, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func bindListParams(r *http.Request) (listParams, string, error) {
	q := r.URL.Query()
	var p listParams
	binds := []struct {
		name string
		dst  any
	}{
		{"page", &p.page},
		{"pageSize", &p.pageSize},
		{"after", &p.after},
		{"before", &p.before},
		{"limit", &p.limit},
		{"available", &p.filter.Available},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dst); err != nil {
			return p, b.name, err
		}
	}

	var err error
	if p.filter.CategoryID, err = queryUUID(q, "category"); err != nil {
		return p, "category", err
	}
	if p.filter.BrandID, err = queryUUID(q, "brand"); err != nil {
		return p, "brand", err
	}
	return p, "", nil
}

// ListProducts serves offset pages (page, pageSize) or cursor pages (after|before, limit).
// The collection ETag goes in the header and per-item ETags in meta.
func (a *StoreAPI) ListProducts(w http.ResponseWriter, r *http.Request) {
	p, param, err := bindListParams(r)
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid query parameter", problem.WithInvalidParam(param, "invalid value")))
		return
	}

	offsetProvided := p.page != nil || p.pageSize != nil
	cursorProvided := p.after != nil || p.before != nil || p.limit != nil
	if (offsetProvided && cursorProvided) || (p.after != nil && p.before != nil) {
		problem.Write(w, problem.BadRequest("Provide either page+pageSize or a cursor (after or before) with limit"))
		return
	}

	if !cursorProvided {
		a.listProductsByOffset(w, r, p)
		return
	}
	a.listProductsByCursor(w, r, p)
}

func (a *StoreAPI) listProductsByOffset(w http.ResponseWriter, r *http.Request, p listParams) {
	page := serde.Deref(p.page, 0)
	pageSize := serde.Deref(p.pageSize, serde.DefaultPageSize)
	slog.DebugContext(r.Context(), "using offset pagination", slog.Int("page", page), slog.Int("pageSize", pageSize))

	products, total, err := a.app.ListProducts(r.Context(), p.filter, page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", quoted(collectionETag(products, fmt.Sprintf("offset:%d:%d:%d", page, pageSize, total))))
	serde.WriteJSON(w, http.StatusOK, serde.Envelope{
		Data: mapSlice(products, mapProductListItem),
		Meta: offsetMeta{
			PageMeta: serde.PageMeta{Page: page, PageSize: pageSize, Total: total},
			ETags:    productETags(products),
		},
	})
}

func (a *StoreAPI) listProductsByCursor(w http.ResponseWriter, r *http.Request, p listParams) {
	limit := serde.Deref(p.limit, serde.DefaultPageSize)

	var (
		page     *domain.ProductPage
		err      error
		position string
	)
	switch {
	case p.after != nil:
		page, err = a.app.ListProductsByCursor(r.Context(), *p.after, limit)
		position = "after:" + *p.after
	case p.before != nil:
		page, err = a.app.ListProductsByCursor(r.Context(), *p.before, limit)
		position = "before:" + *p.before
	default:
		page, err = a.app.ListProductsFirstPage(r.Context(), p.filter, limit)
		position = "first"
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", quoted(collectionETag(page.Products, fmt.Sprintf("cursor:%s:%d", position, limit))))
	serde.WriteJSON(w, http.StatusOK, serde.Envelope{
		Data: mapSlice(page.Products, mapProductListItem),
		Meta: cursorMeta{
			Limit: limit,
			Next:  page.Next,
			Prev:  page.Prev,
			ETags: productETags(page.Products),
		},
	})
}

func (a *StoreAPI) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := a.app.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("ETag", quoted(etag.ETag(&d.Product)))
	serde.WriteData(w, http.StatusOK, mapProductDetail(*d))
}

func (a *StoreAPI) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := a.app.CreateProduct(r.Context(), actor(r), body.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/products/%s", p.ID))
	w.Header().Set("ETag", quoted(etag.ETag(p)))
	serde.WriteData(w, http.StatusCreated, mapProduct(*p))
}

// UpdateProduct replaces the product. Requires If-Match with the current ETag.
func (a *StoreAPI) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	version, ok := ifMatchVersion(w, r)
	if !ok {
		return
	}
	var body productRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := a.app.UpdateProduct(r.Context(), actor(r), id, version, body.toDomain())
	if err != nil {
		a.writeProductError(w, r, id, err)
		return
	}
	w.Header().Set("ETag", quoted(etag.ETag(p)))
	serde.WriteData(w, http.StatusOK, mapProduct(*p))
}

// ModifyProduct is a partial update; description may be cleared with null.
func (a *StoreAPI) ModifyProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	version, ok := ifMatchVersion(w, r)
	if !ok {
		return
	}
	var body modifyProductRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := a.app.ModifyProduct(r.Context(), actor(r), id, version, domain.ProductChanges{
		CategoryID:  body.Category,
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Quantity:    body.Quantity,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		a.writeProductError(w, r, id, err)
		return
	}
	w.Header().Set("ETag", quoted(etag.ETag(p)))
	serde.WriteData(w, http.StatusOK, mapProduct(*p))
}

func (a *StoreAPI) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	version, ok := ifMatchVersion(w, r)
	if !ok {
		return
	}
	if err := a.app.DeleteProduct(r.Context(), actor(r), id, version); err != nil {
		a.writeProductError(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b productRequest) toDomain() domain.NewProduct {
	return domain.NewProduct{
		BrandID:     b.Brand,
		CategoryID:  b.Category,
		Name:        b.Name,
		Description: b.Description,
		Price:       b.Price,
		Quantity:    b.Quantity,
		IsAvailable: b.IsAvailable,
	}
}
