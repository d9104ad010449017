package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"storefront/core/identity/domain"
	"storefront/modules/middleware/problem"

	"github.com/gofrs/uuid/v5"
)

type (
	userDTO struct {
		ID           uuid.UUID `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		FirstName    string    `json:"first_name"`
		LastName     string    `json:"last_name"`
		Pic          *string   `json:"pic"`
		IsActive     bool      `json:"is_active"`
		IsStaff      bool      `json:"is_staff"`
		IsBrandOwner bool      `json:"is_brand_owner"`
		CreatedAt    time.Time `json:"created_at"`
	}

	sessionDTO struct {
		User      userDTO   `json:"user"`
		Token     string    `json:"token"`
		TokenType string    `json:"token_type"`
		ExpiresAt time.Time `json:"expires_at"`
	}
)

func mapUser(u domain.User) userDTO {
	return userDTO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Pic:          u.Pic,
		IsActive:     u.IsActive,
		IsStaff:      u.IsStaff,
		IsBrandOwner: u.IsBrandOwner,
		CreatedAt:    u.CreatedAt,
	}
}

func mapSession(s *domain.Session) sessionDTO {
	return sessionDTO{
		User:      mapUser(*s.User),
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
	}
}

// writeDomainError maps identity errors onto problem details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	detail, fields, ok := domain.Detail(err)
	if !ok {
		detail = err.Error()
	}

	var opts []problem.Option
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, problem.WithInvalidParam(name, fields[name]))
	}

	switch {
	case errors.Is(err, domain.ErrInvalidData):
		problem.Write(w, problem.BadRequest(detail, opts...))
	case errors.Is(err, domain.ErrUnauthenticated):
		problem.Write(w, problem.Unauthorized(detail))
	case errors.Is(err, domain.ErrForbidden):
		problem.Write(w, problem.Forbidden("You do not have permission to perform this action."))
	case errors.Is(err, domain.ErrNotFound):
		problem.Write(w, problem.NotFound(detail))
	case errors.Is(err, domain.ErrDuplicate):
		problem.Write(w, problem.Conflict(detail))
	default:
		slog.ErrorContext(r.Context(), "identity request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		problem.Write(w, problem.Internal("unexpected error"))
	}
}
