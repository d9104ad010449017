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

package services

import (
	"io/fs"
	"net/http"

	store_http "storefront/core/store/adapters/rest"
	"storefront/modules/middleware"
	"storefront/modules/server"
)

var _ server.RegistrableService = (*StoreService)(nil)

// StoreService encapsulates the registration logic for the catalog, cart,
// order and payment routes.
type StoreService struct {
	specPath string
	specFS   fs.FS
	api      *store_http.StoreAPI
}

func NewStoreService(api *store_http.StoreAPI, specFS fs.FS, specPath string) *StoreService {
	return &StoreService{specFS: specFS, specPath: specPath, api: api}
}

func (s *StoreService) Register(mux *http.ServeMux) {
	s.api.Routes(mux)
}

// Middlewares validates every request against the OpenAPI document. The
// webhook is signed over its raw bytes and the probes carry no payload, so
// both bypass validation.
func (s *StoreService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.OpenAPIValidation(
			s.specFS,
			s.specPath,
			middleware.WithSkipPrefixes(store_http.WebhookPath, "/healthz", "/readyz"),
			middleware.WithBinaryContentTypes("image/png", "image/jpeg", "image/webp", "image/gif"),
		),
	}
}
