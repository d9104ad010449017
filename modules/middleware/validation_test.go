package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

const testSpec = `openapi: 3.0.3
info:
  title: test
  version: "1"
paths:
  /colors:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name, code]
              properties:
                name:
                  type: string
                  minLength: 1
                code:
                  type: string
                  pattern: "^[0-9A-Fa-f]{6}$"
      responses:
        "201":
          description: created
  /products:
    get:
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            minimum: 1
      responses:
        "200":
          description: ok
`

func validated(t *testing.T, opts ...ValidationOption) http.Handler {
	t.Helper()
	fsys := fstest.MapFS{"api.yaml": &fstest.MapFile{Data: []byte(testSpec)}}
	return OpenAPIValidation(fsys, "api.yaml", opts...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
}

func TestOpenAPIValidation_PassesValidRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/colors", strings.NewReader(`{"name":"red","code":"FF0000"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	validated(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestOpenAPIValidation_BodyViolationIs422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/colors", strings.NewReader(`{"name":"red","code":"zz"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	validated(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body struct {
		InvalidParams []struct{ Name string } `json:"invalidParams"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.InvalidParams) == 0 {
		t.Fatalf("expected invalidParams, got %s", rec.Body)
	}
}

func TestOpenAPIValidation_QueryViolationIs400(t *testing.T) {
	rec := httptest.NewRecorder()
	validated(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?limit=0", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestOpenAPIValidation_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	validated(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOpenAPIValidation_SkipPrefixes(t *testing.T) {
	rec := httptest.NewRecorder()
	validated(t, WithSkipPrefixes("/webhooks/")).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader("{}")))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOpenAPIValidation_MissingDocument(t *testing.T) {
	h := OpenAPIValidation(fstest.MapFS{}, "nope.yaml")(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSafeReason(t *testing.T) {
	tests := map[string]string{
		"":                                  "invalid value",
		"value doesn't match schema foo":    "doesn't match schema",
		"value must be one of add, remove":  "value must be one of add, remove",
		"secret input echoed back verbatim": "invalid value",
	}
	for in, want := range tests {
		if got := SafeReason(in); got != want {
			t.Errorf("SafeReason(%q) = %q, want %q", in, got, want)
		}
	}
}
