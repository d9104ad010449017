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

package middleware

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"storefront/modules/middleware/problem"
)

// ValidationErrorHandler handles OpenAPI validation errors and writes an appropriate response.
type ValidationErrorHandler func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, statusCode int)

// SpecLoadErrorHandler handles errors that occur when loading the OpenAPI document.
type SpecLoadErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type (
	ValidationOption func(*validationOptions)

	validationOptions struct {
		errorHandler     ValidationErrorHandler
		loadErrorHandler SpecLoadErrorHandler
		skipPrefixes     []string
		binaryTypes      []string
	}
)

// WithValidationErrorHandler overrides ProblemValidationErrorHandler.
func WithValidationErrorHandler(h ValidationErrorHandler) ValidationOption {
	return func(o *validationOptions) { o.errorHandler = h }
}

// WithSpecLoadErrorHandler overrides the 500 written when the document cannot be loaded.
func WithSpecLoadErrorHandler(h SpecLoadErrorHandler) ValidationOption {
	return func(o *validationOptions) { o.loadErrorHandler = h }
}

// WithSkipPrefixes bypasses validation for paths with any of the given prefixes.
// Used for webhooks whose body must reach the handler byte for byte.
func WithSkipPrefixes(prefixes ...string) ValidationOption {
	return func(o *validationOptions) { o.skipPrefixes = append(o.skipPrefixes, prefixes...) }
}

// WithBinaryContentTypes lets multipart parts of the given media types (e.g.
// "image/png") through the validator as opaque files.
func WithBinaryContentTypes(types ...string) ValidationOption {
	return func(o *validationOptions) { o.binaryTypes = append(o.binaryTypes, types...) }
}

var (
	specCacheMu sync.Mutex
	specCache   = make(map[string]*specCacheEntry)
)

type specCacheEntry struct {
	doc *openapi3.T
	err error
}

// LoadSpec parses and validates the OpenAPI document once per path.
func LoadSpec(fsys fs.FS, specPath string) (*openapi3.T, error) {
	specCacheMu.Lock()
	defer specCacheMu.Unlock()

	if entry, ok := specCache[specPath]; ok {
		return entry.doc, entry.err
	}

	doc, err := loadSpec(fsys, specPath)
	specCache[specPath] = &specCacheEntry{doc: doc, err: err}
	return doc, err
}

func loadSpec(fsys fs.FS, specPath string) (*openapi3.T, error) {
	data, err := fs.ReadFile(fsys, specPath)
	if err != nil {
		return nil, err
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, err
	}
	return doc, nil
}

// OpenAPIValidation validates every request against the document at specPath.
// Routes missing from the document are answered by the validator with 404, so
// the document must list every mounted route.
func OpenAPIValidation(specFS fs.FS, specPath string, opts ...ValidationOption) func(http.Handler) http.Handler {
	o := validationOptions{
		errorHandler: ProblemValidationErrorHandler,
		loadErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.ErrorContext(r.Context(), "openapi document unavailable", slog.Any("error", err))
			problem.Write(w, problem.Internal("request validation unavailable"))
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	for _, ct := range o.binaryTypes {
		if openapi3filter.RegisteredBodyDecoder(ct) == nil {
			openapi3filter.RegisterBodyDecoder(ct, openapi3filter.FileBodyDecoder)
		}
	}

	spec, err := LoadSpec(specFS, specPath)
	if err != nil {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				o.loadErrorHandler(w, r, err)
			})
		}
	}

	validator := nethttpmiddleware.OapiRequestValidatorWithOptions(spec, &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, eopts nethttpmiddleware.ErrorHandlerOpts) {
			status := eopts.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			if InferBodyValidationStatus(err) == http.StatusUnprocessableEntity {
				status = http.StatusUnprocessableEntity
			}
			o.errorHandler(ctx, err, w, r, status)
		},
	})

	return func(next http.Handler) http.Handler {
		validated := validator(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range o.skipPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			validated.ServeHTTP(w, r)
		})
	}
}

// ProblemValidationErrorHandler renders validation failures as problem details
// with one invalidParams entry per violated field.
func ProblemValidationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, status int) {
	slog.DebugContext(ctx, "request validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))

	var opts []problem.Option
	for _, ve := range ExtractValidationErrors(err) {
		opts = append(opts, problem.WithInvalidParam(ve.Field, ve.Reason))
	}

	switch status {
	case http.StatusNotFound:
		problem.Write(w, problem.NotFound("no such route"))
	case http.StatusMethodNotAllowed:
		problem.Write(w, problem.MethodNotAllowed("method not allowed"))
	case http.StatusUnprocessableEntity:
		problem.Write(w, problem.UnprocessableEntity("request body failed validation", opts...))
	default:
		problem.Write(w, problem.Status(status, "request failed validation", opts...))
	}
}
