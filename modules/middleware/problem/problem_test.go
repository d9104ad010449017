package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, NotFound("Product not found", WithInvalidParam("id", "unknown"), WithExtension("etag", `"v:1"`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["title"] != "Not Found" || body["detail"] != "Product not found" || body["type"] != "about:blank" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["etag"] != `"v:1"` {
		t.Fatalf("extension missing: %v", body)
	}
	params, ok := body["invalidParams"].([]any)
	if !ok || len(params) != 1 {
		t.Fatalf("invalidParams = %v", body["invalidParams"])
	}
}

func TestWrite_NilIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExtensionsDoNotOverrideFields(t *testing.T) {
	p := Conflict("taken", WithExtension("status", 999))
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	_ = json.Unmarshal(b, &body)
	if body["status"] != float64(http.StatusConflict) {
		t.Fatalf("status overridden: %v", body["status"])
	}
}

func TestBuilders(t *testing.T) {
	tests := []struct {
		p    *Problem
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{PreconditionFailed("x"), http.StatusPreconditionFailed},
		{PreconditionRequired("x"), http.StatusPreconditionRequired},
		{UnprocessableEntity("x"), http.StatusUnprocessableEntity},
		{BadGateway("x"), http.StatusBadGateway},
		{TooManyRequests("x"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		if tt.p.Status != tt.want || tt.p.Title != http.StatusText(tt.want) {
			t.Errorf("got %d %q, want %d", tt.p.Status, tt.p.Title, tt.want)
		}
	}
}
