package services

import (
	"net/http"

	identity_http "storefront/core/identity/adapters/rest"
	"storefront/modules/server"
)

var _ server.RegistrableService = (*IdentityService)(nil)

// IdentityService mounts registration, login and user routes.
type IdentityService struct {
	api *identity_http.IdentityAPI
}

func NewIdentityService(api *identity_http.IdentityAPI) *IdentityService {
	return &IdentityService{api: api}
}

func (s *IdentityService) Register(mux *http.ServeMux) {
	s.api.Routes(mux)
}

// Middlewares is empty; request validation is installed once by StoreService.
func (s *IdentityService) Middlewares() []func(http.Handler) http.Handler {
	return nil
}
