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
	"net/http"

	"storefront/modules/api/serde"
)

type (
	reviewRequest struct {
		Stars int    `json:"stars"`
		Body  string `json:"body"`
	}

	modifyReviewRequest struct {
		Stars *int    `json:"stars"`
		Body  *string `json:"body"`
	}
)

func (a *StoreAPI) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviews, err := a.app.ListReviews(r.Context(), productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSlice(reviews, mapReview))
}

// CreateReview is open to customers of the product only.
func (a *StoreAPI) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body reviewRequest
	if !decodeBody(w, r, &body) {
		return
	}
	rv, err := a.app.CreateReview(r.Context(), actor(r), productID, body.Stars, body.Body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusCreated, mapReview(*rv))
}

func (a *StoreAPI) ModifyReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body modifyReviewRequest
	if !decodeBody(w, r, &body) {
		return
	}
	rv, err := a.app.ModifyReview(r.Context(), actor(r), id, body.Stars, body.Body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapReview(*rv))
}

func (a *StoreAPI) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteReview(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
