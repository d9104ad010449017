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

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"

	"storefront/modules/middleware/problem"
)

// Principal is the authenticated caller, loaded fresh on every request so
// deactivation and role changes apply immediately.
type Principal struct {
	UserID       uuid.UUID
	Username     string
	Email        string
	IsActive     bool
	IsStaff      bool
	IsBrandOwner bool
}

// PrincipalLoader resolves a token subject to its current account state.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID uuid.UUID) (Principal, error)
}

// ErrUnknownPrincipal is returned by loaders when the subject no longer exists.
var ErrUnknownPrincipal = errors.New("auth: unknown principal")

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Subject returns the caller's user id, for rate limiting keys.
func Subject(r *http.Request) (string, bool) {
	p, ok := FromContext(r.Context())
	if !ok {
		return "", false
	}
	return p.UserID.String(), true
}

// Authenticate resolves an optional bearer token. Requests without an
// Authorization header pass through anonymously; a present but invalid token,
// or one belonging to an inactive user, is rejected with 401.
func Authenticate(issuer *TokenIssuer, loader PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				problem.Write(w, problem.Unauthorized("Invalid token header."))
				return
			}

			userID, err := issuer.Verify(strings.TrimSpace(raw))
			if err != nil {
				slog.DebugContext(r.Context(), "token rejected", slog.Any("error", err))
				problem.Write(w, problem.Unauthorized("Invalid token."))
				return
			}

			p, err := loader.LoadPrincipal(r.Context(), userID)
			switch {
			case errors.Is(err, ErrUnknownPrincipal):
				problem.Write(w, problem.Unauthorized("Invalid token."))
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "load principal", slog.Any("error", err))
				problem.Write(w, problem.Internal("could not authenticate request"))
				return
			case !p.IsActive:
				problem.Write(w, problem.Unauthorized("User inactive or deleted."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
