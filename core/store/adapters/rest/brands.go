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
	"net/http"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"

	"github.com/oapi-codegen/nullable"
	"github.com/shopspring/decimal"
)

type (
	createBrandRequest struct {
		Name string  `json:"name"`
		Logo *string `json:"logo"`
	}

	modifyBrandRequest struct {
		Name              *string                   `json:"name"`
		Logo              nullable.Nullable[string] `json:"logo"`
		CommissionPercent *decimal.Decimal          `json:"commission_percent"`
	}
)

func (a *StoreAPI) ListBrands(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := bindPage(w, r)
	if !ok {
		return
	}
	brands, total, err := a.app.ListBrands(r.Context(), page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WritePage(w, mapSlice(brands, mapBrand), serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

func (a *StoreAPI) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := a.app.GetBrand(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapBrand(*b))
}

// CreateBrand makes the caller the owner of the new brand.
func (a *StoreAPI) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var body createBrandRequest
	if !decodeBody(w, r, &body) {
		return
	}
	b, err := a.app.CreateBrand(r.Context(), actor(r), domain.NewBrand{Name: body.Name, Logo: body.Logo})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/brands/%s", b.ID))
	serde.WriteData(w, http.StatusCreated, mapBrand(*b))
}

func (a *StoreAPI) ModifyBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body modifyBrandRequest
	if !decodeBody(w, r, &body) {
		return
	}
	b, err := a.app.ModifyBrand(r.Context(), actor(r), id, domain.BrandChanges{
		Name:              body.Name,
		Logo:              body.Logo,
		CommissionPercent: body.CommissionPercent,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapBrand(*b))
}

func (a *StoreAPI) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteBrand(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *StoreAPI) ListBrandMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, pageSize, ok := bindPage(w, r)
	if !ok {
		return
	}
	msgs, total, err := a.app.ListBrandMessages(r.Context(), actor(r), id, page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WritePage(w, mapSlice(msgs, mapMessage), serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}
