package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

// ValidationError is one invalid parameter or body property.
type ValidationError struct {
	Field  string
	Reason string
}

// ExtractValidationErrors flattens a kin-openapi error into per-field reasons.
// Reasons never quote the offending input.
func ExtractValidationErrors(err error) []ValidationError {
	if multi, ok := err.(openapi3.MultiError); ok {
		out := make([]ValidationError, 0, len(multi))
		for _, e := range multi {
			out = append(out, ExtractValidationErrors(e)...)
		}
		return out
	}

	var reqErr *openapi3filter.RequestError
	var schemaErr *openapi3.SchemaError
	hasReq := errors.As(err, &reqErr)
	hasSchema := errors.As(err, &schemaErr)

	switch {
	case hasReq && reqErr.Parameter != nil && hasSchema:
		return []ValidationError{{Field: reqErr.Parameter.Name, Reason: schemaErr.Reason}}
	case hasReq && reqErr.Parameter != nil:
		return []ValidationError{{Field: reqErr.Parameter.Name, Reason: SafeReason(reqErr.Reason)}}
	case hasSchema:
		return []ValidationError{{Field: topLevelField(schemaErr.JSONPointer()), Reason: schemaErr.Reason}}
	case hasReq:
		return []ValidationError{{Field: "body", Reason: SafeReason(reqErr.Reason)}}
	}
	return []ValidationError{{Field: "request", Reason: "invalid value"}}
}

// topLevelField maps /brand/name to "brand". Array roots map to "body".
func topLevelField(ptr []string) string {
	if len(ptr) == 0 || ptr[0] == "" || ptr[0] == "0" {
		return "body"
	}
	return ptr[0]
}

// InferBodyValidationStatus is 422 when a well-formed body breaks the schema,
// and 0 when the caller should keep its own status (bad parameters are 400).
func InferBodyValidationStatus(err error) int {
	if multi, ok := err.(openapi3.MultiError); ok {
		for _, e := range multi {
			if InferBodyValidationStatus(e) != 0 {
				return http.StatusUnprocessableEntity
			}
		}
		return 0
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return 0
		}
		var schemaErr *openapi3.SchemaError
		if reqErr.RequestBody != nil || errors.As(reqErr.Err, &schemaErr) {
			return http.StatusUnprocessableEntity
		}
		return 0
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return http.StatusUnprocessableEntity
	}
	return 0
}

// SafeReason keeps enum hints and drops anything that could echo input.
func SafeReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	}
	return "invalid value"
}
