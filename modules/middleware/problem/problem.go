// Package problem writes RFC 7807 problem details, the error body of every
// storefront endpoint.
package problem

import (
	"encoding/json"
	"maps"
	"net/http"
)

const blankType = "about:blank"

type Problem struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	Code          string         `json:"code,omitempty"`
	TraceID       string         `json:"traceId,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`

	// Extensions are merged into the top-level object. They never shadow the
	// standard members.
	Extensions map[string]any `json:"-"`
}

type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Option func(*Problem)

func WithStatus(status int) Option { return func(p *Problem) { p.Status = status } }
func WithTitle(title string) Option { return func(p *Problem) { p.Title = title } }
func WithDetail(detail string) Option { return func(p *Problem) { p.Detail = detail } }
func WithType(typ string) Option { return func(p *Problem) { p.Type = typ } }
func WithCode(code string) Option { return func(p *Problem) { p.Code = code } }
func WithTraceID(id string) Option { return func(p *Problem) { p.TraceID = id } }

func WithInvalidParam(name, reason string) Option {
	return func(p *Problem) {
		p.InvalidParams = append(p.InvalidParams, InvalidParam{Name: name, Reason: reason})
	}
}

func WithExtension(key string, value any) Option {
	return func(p *Problem) {
		if p.Extensions == nil {
			p.Extensions = map[string]any{}
		}
		p.Extensions[key] = value
	}
}

// New builds a 500 "unhandled error" problem adjusted by opts. A missing title
// is derived from the status.
func New(opts ...Option) *Problem {
	p := &Problem{Type: blankType, Status: http.StatusInternalServerError, Detail: "unhandled error"}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Type == "" {
		p.Type = blankType
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Title == "" {
		p.Title = "Unknown Error"
	}
	return p
}

// Status builds a problem for status with its standard title.
func Status(status int, detail string, opts ...Option) *Problem {
	return New(append([]Option{WithStatus(status), WithTitle(http.StatusText(status)), WithDetail(detail)}, opts...)...)
}

func BadRequest(detail string, opts ...Option) *Problem {
	return Status(http.StatusBadRequest, detail, opts...)
}

func Unauthorized(detail string, opts ...Option) *Problem {
	return Status(http.StatusUnauthorized, detail, opts...)
}

func Forbidden(detail string, opts ...Option) *Problem {
	return Status(http.StatusForbidden, detail, opts...)
}

func NotFound(detail string, opts ...Option) *Problem {
	return Status(http.StatusNotFound, detail, opts...)
}

func MethodNotAllowed(detail string, opts ...Option) *Problem {
	return Status(http.StatusMethodNotAllowed, detail, opts...)
}

func Conflict(detail string, opts ...Option) *Problem {
	return Status(http.StatusConflict, detail, opts...)
}

func PreconditionFailed(detail string, opts ...Option) *Problem {
	return Status(http.StatusPreconditionFailed, detail, opts...)
}

func UnprocessableEntity(detail string, opts ...Option) *Problem {
	return Status(http.StatusUnprocessableEntity, detail, opts...)
}

func PreconditionRequired(detail string, opts ...Option) *Problem {
	return Status(http.StatusPreconditionRequired, detail, opts...)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return Status(http.StatusTooManyRequests, detail, opts...)
}

func Internal(detail string, opts ...Option) *Problem {
	return Status(http.StatusInternalServerError, detail, opts...)
}

func BadGateway(detail string, opts ...Option) *Problem {
	return Status(http.StatusBadGateway, detail, opts...)
}

// Write sends p as application/problem+json. A nil p is a 500.
func Write(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = Internal("server error")
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func (p Problem) MarshalJSON() ([]byte, error) {
	// plain has no methods, so Marshal does not recurse here
	type plain Problem
	b, err := json.Marshal(plain(p))
	if err != nil || len(p.Extensions) == 0 {
		return b, err
	}
	merged := make(map[string]any, len(p.Extensions)+8)
	maps.Copy(merged, p.Extensions)
	var std map[string]any
	if err := json.Unmarshal(b, &std); err != nil {
		return nil, err
	}
	maps.Copy(merged, std)
	return json.Marshal(merged)
}
