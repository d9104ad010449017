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

	"storefront/core/identity/domain"
	"storefront/modules/api/serde"
	"storefront/modules/middleware/problem"

	"github.com/oapi-codegen/nullable"
)

type (
	registerRequest struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	loginRequest struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}

	modifyUserRequest struct {
		FirstName nullable.Nullable[string] `json:"first_name"`
		LastName  nullable.Nullable[string] `json:"last_name"`
		Pic       nullable.Nullable[string] `json:"pic"`
	}
)

// Register answers 201 with the new user and a bearer token.
func (a *IdentityAPI) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}

	s, err := a.app.Register(r.Context(), domain.Registration{
		Username:  body.Username,
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", s.User.ID))
	serde.WriteData(w, http.StatusCreated, mapSession(s))
}

func (a *IdentityAPI) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}

	s, err := a.app.Login(r.Context(), body.Login, body.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSession(s))
}

func (a *IdentityAPI) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := serde.BindPage(r)
	if err != nil {
		problem.Write(w, problem.BadRequest(err.Error()))
		return
	}

	users, total, err := a.app.ListUsers(r.Context(), actor(r), page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, mapUser(u))
	}
	serde.WritePage(w, out, serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

func (a *IdentityAPI) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := serde.PathUUID(r, "id")
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid id", problem.WithInvalidParam("id", "invalid value")))
		return
	}

	u, err := a.app.GetUser(r.Context(), actor(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapUser(*u))
}

// ModifyUser applies a partial update. Flags in the body are rejected by the decoder.
func (a *IdentityAPI) ModifyUser(w http.ResponseWriter, r *http.Request) {
	id, err := serde.PathUUID(r, "id")
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid id", problem.WithInvalidParam("id", "invalid value")))
		return
	}

	var body modifyUserRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}

	u, err := a.app.ModifyUser(r.Context(), actor(r), id, domain.UserChanges{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Pic:       body.Pic,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapUser(*u))
}

func (a *IdentityAPI) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := serde.PathUUID(r, "id")
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid id", problem.WithInvalidParam("id", "invalid value")))
		return
	}

	if err := a.app.DeactivateUser(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
