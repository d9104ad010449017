package serde

import (
	"net/http"

	"github.com/oapi-codegen/runtime"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Envelope is the shape of every successful JSON response body.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Data: data})
}

func WritePage(w http.ResponseWriter, data any, meta PageMeta) {
	WriteJSON(w, http.StatusOK, Envelope{Data: data, Meta: meta})
}

// BindPage reads the optional page (zero based) and pageSize query parameters.
func BindPage(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()

	var p, ps *int
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &p); err != nil {
		return 0, 0, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "pageSize", q, &ps); err != nil {
		return 0, 0, err
	}
	return Deref(p, 0), Deref(ps, DefaultPageSize), nil
}
