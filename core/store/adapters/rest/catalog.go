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
)

type (
	categoryRequest struct {
		Name string `json:"name"`
	}

	colorRequest struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
)

func (a *StoreAPI) SizeChart(w http.ResponseWriter, r *http.Request) {
	serde.WriteData(w, http.StatusOK, domain.SizeChart())
}

func (a *StoreAPI) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.app.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSlice(cats, mapCategory))
}

func (a *StoreAPI) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := a.app.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapCategory(*c))
}

func (a *StoreAPI) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := a.app.CreateCategory(r.Context(), actor(r), body.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/categories/%s", c.ID))
	serde.WriteData(w, http.StatusCreated, mapCategory(*c))
}

func (a *StoreAPI) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body categoryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := a.app.RenameCategory(r.Context(), actor(r), id, body.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapCategory(*c))
}

func (a *StoreAPI) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteCategory(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *StoreAPI) ListColors(w http.ResponseWriter, r *http.Request) {
	colors, err := a.app.ListColors(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSlice(colors, mapColor))
}

func (a *StoreAPI) CreateColor(w http.ResponseWriter, r *http.Request) {
	var body colorRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := a.app.CreateColor(r.Context(), actor(r), body.Name, body.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusCreated, mapColor(*c))
}

func (a *StoreAPI) DeleteColor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteColor(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
