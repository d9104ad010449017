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
	"mime"
	"net/http"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"
	"storefront/modules/middleware/problem"

	"github.com/gofrs/uuid/v5"
)

// maxUploadBytes bounds multipart image uploads.
const maxUploadBytes = 10 << 20

type (
	variantRequest struct {
		Color       uuid.UUID `json:"color"`
		Quantity    int       `json:"quantity"`
		IsAvailable *bool     `json:"is_available"`
	}

	modifyVariantRequest struct {
		Color       *uuid.UUID `json:"color"`
		Quantity    *int       `json:"quantity"`
		IsAvailable *bool      `json:"is_available"`
	}

	sizeRequest struct {
		Value       string `json:"value"`
		Quantity    int    `json:"quantity"`
		IsAvailable *bool  `json:"is_available"`
	}

	modifySizeRequest struct {
		Value       *string `json:"value"`
		Quantity    *int    `json:"quantity"`
		IsAvailable *bool   `json:"is_available"`
	}

	imageRequest struct {
		Variant *uuid.UUID `json:"variant"`
		URL     string     `json:"url"`
	}
)

func (a *StoreAPI) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body variantRequest
	if !decodeBody(w, r, &body) {
		return
	}
	v, err := a.app.CreateVariant(r.Context(), actor(r), productID, domain.NewVariant{
		ColorID:     body.Color,
		Quantity:    body.Quantity,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/variants/%s", v.ID))
	serde.WriteData(w, http.StatusCreated, mapVariant(*v))
}

func (a *StoreAPI) ModifyVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body modifyVariantRequest
	if !decodeBody(w, r, &body) {
		return
	}
	v, err := a.app.ModifyVariant(r.Context(), actor(r), id, domain.VariantChanges{
		ColorID:     body.Color,
		Quantity:    body.Quantity,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapVariant(*v))
}

func (a *StoreAPI) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteVariant(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *StoreAPI) CreateSize(w http.ResponseWriter, r *http.Request) {
	variantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body sizeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	s, err := a.app.CreateSize(r.Context(), actor(r), variantID, domain.NewSize{
		Value:       body.Value,
		Quantity:    body.Quantity,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusCreated, mapSize(*s))
}

func (a *StoreAPI) ModifySize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body modifySizeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	s, err := a.app.ModifySize(r.Context(), actor(r), id, domain.SizeChanges{
		Value:       body.Value,
		Quantity:    body.Quantity,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSize(*s))
}

func (a *StoreAPI) DeleteSize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteSize(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddImage accepts either a JSON body with a URL or a multipart upload in the
// "image" field, with an optional "variant" field.
func (a *StoreAPI) AddImage(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		img *domain.Image
		err error
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		img, err = a.uploadImage(w, r, productID)
		if img == nil && err == nil {
			return
		}
	} else {
		var body imageRequest
		if !decodeBody(w, r, &body) {
			return
		}
		img, err = a.app.AddImage(r.Context(), actor(r), productID, domain.NewImage{VariantID: body.Variant, URL: body.URL})
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusCreated, mapImage(*img))
}

// uploadImage returns (nil, nil) after writing a 400 for a malformed form.
func (a *StoreAPI) uploadImage(w http.ResponseWriter, r *http.Request, productID uuid.UUID) (*domain.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		problem.Write(w, problem.BadRequest("malformed multipart body"))
		return nil, nil
	}
	defer r.MultipartForm.RemoveAll()

	var variantID *uuid.UUID
	if raw := r.FormValue("variant"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			problem.Write(w, problem.BadRequest("invalid variant", problem.WithInvalidParam("variant", "invalid value")))
			return nil, nil
		}
		variantID = &id
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		problem.Write(w, problem.BadRequest("image is required", problem.WithInvalidParam("image", "This field is required.")))
		return nil, nil
	}
	defer file.Close()

	return a.app.UploadImage(r.Context(), actor(r), productID, variantID, header.Filename, file)
}

func (a *StoreAPI) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteImage(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
