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

	"storefront/core/identity/domain"
	"storefront/modules/auth"
)

// IdentityAPI translates account and session requests into identity use cases.
type IdentityAPI struct {
	app *domain.Application
}

func NewIdentityAPI(app *domain.Application) *IdentityAPI {
	return &IdentityAPI{app: app}
}

// Routes mounts the identity endpoints on mux.
func (a *IdentityAPI) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/register", a.Register)
	mux.HandleFunc("POST /v1/auth/login", a.Login)

	mux.HandleFunc("GET /v1/users", a.ListUsers)
	mux.HandleFunc("GET /v1/users/{id}", a.GetUser)
	mux.HandleFunc("PATCH /v1/users/{id}", a.ModifyUser)
	mux.HandleFunc("DELETE /v1/users/{id}", a.DeactivateUser)
}

func actor(r *http.Request) domain.Actor {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{UserID: p.UserID, IsStaff: p.IsStaff}
}
