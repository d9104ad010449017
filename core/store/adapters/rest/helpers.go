package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"
	"storefront/modules/etag"
	"storefront/modules/middleware/problem"

	"github.com/gofrs/uuid/v5"
)

// pathID parses the named path wildcard, writing a 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := serde.PathUUID(r, name)
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid "+name, problem.WithInvalidParam(name, "invalid value")))
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if err := serde.ParseJsonBody(r.Body, dst); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return false
	}
	return true
}

func bindPage(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	page, pageSize, err := serde.BindPage(r)
	if err != nil {
		problem.Write(w, problem.BadRequest(err.Error()))
		return 0, 0, false
	}
	return page, pageSize, true
}

// ifMatchVersion reads the row version from If-Match. A missing header is 428.
func ifMatchVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("If-Match")
	if raw == "" {
		problem.Write(w, problem.PreconditionRequired("missing if-match header",
			problem.WithInvalidParam("If-Match", "header is required")))
		return 0, false
	}
	v, err := etag.ParseVersion(raw)
	if err != nil {
		problem.Write(w, problem.BadRequest("invalid etag format",
			problem.WithInvalidParam("If-Match", "invalid etag format")))
		return 0, false
	}
	return v, true
}

func quoted(tag string) string {
	return `"` + tag + `"`
}

// productETags maps product ids to their ETags so clients can update listed
// items without fetching each one.
func productETags(products []domain.Product) map[string]string {
	etags := make(map[string]string, len(products))
	for _, p := range products {
		etags[p.ID.String()] = etag.ETag(&p)
	}
	return etags
}

// collectionETag combines the item ETags with the page position.
func collectionETag(products []domain.Product, position string) string {
	if len(products) == 0 {
		return fmt.Sprintf("collection:empty:%s", position)
	}
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, p.ID.String()+"@"+etag.ETag(&p))
	}
	return fmt.Sprintf("collection:%s:%s", position, strings.Join(parts, ","))
}

func invalidParams(err error) []problem.Option {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return nil
	}
	if de.Field != "" {
		return []problem.Option{problem.WithInvalidParam(de.Field, de.Detail)}
	}
	names := make([]string, 0, len(de.Fields))
	for name := range de.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	opts := make([]problem.Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, problem.WithInvalidParam(name, de.Fields[name]))
	}
	return opts
}

// writeDomainError maps store errors onto problem details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	detail, _, ok := domain.Detail(err)
	if !ok {
		detail = err.Error()
	}
	opts := invalidParams(err)

	switch {
	case errors.Is(err, domain.ErrInvalidData), errors.Is(err, domain.ErrInsufficientStock):
		problem.Write(w, problem.BadRequest(detail, opts...))
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidSignature):
		problem.Write(w, problem.Unauthorized(detail))
	case errors.Is(err, domain.ErrForbidden):
		problem.Write(w, problem.Forbidden("You do not have permission to perform this action."))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrEmptyCart):
		problem.Write(w, problem.NotFound(detail))
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		problem.Write(w, problem.Conflict(detail))
	case errors.Is(err, domain.ErrPrecondition):
		problem.Write(w, problem.PreconditionFailed(detail))
	case errors.Is(err, domain.ErrGateway):
		slog.WarnContext(r.Context(), "payment gateway failure", slog.String("path", r.URL.Path), slog.Any("error", err))
		problem.Write(w, problem.BadGateway("The payment provider could not complete the request."))
	default:
		slog.ErrorContext(r.Context(), "store request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		problem.Write(w, problem.Internal("unexpected error"))
	}
}

// writeProductError refreshes the ETag on a version mismatch so the client can retry.
func (a *StoreAPI) writeProductError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error) {
	if errors.Is(err, domain.ErrPrecondition) {
		if latest, ferr := a.app.CurrentProduct(r.Context(), id); ferr == nil {
			w.Header().Set("ETag", quoted(etag.ETag(latest)))
		}
	}
	writeDomainError(w, r, err)
}
