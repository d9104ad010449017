package domain

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrInvalidData       = errors.New("invalid data provided for store operations")
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("resource with the requested identifiers already exists")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("operation not permitted")
	ErrPrecondition      = errors.New("resource version does not match")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrGateway           = errors.New("payment gateway failure")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrConflict          = errors.New("operation already in progress")
	ErrUnhandled         = errors.New("unexpected error")
)

var known = []error{
	ErrInvalidData, ErrNotFound, ErrDuplicate, ErrUnauthenticated, ErrForbidden, ErrPrecondition,
	ErrOutOfStock, ErrInsufficientStock, ErrEmptyCart, ErrGateway, ErrInvalidSignature, ErrConflict,
	ErrUnhandled,
}

// DomainError carries a client-facing detail and unwraps to one of the sentinels above.
// Fields lists per-field reasons when more than one field is at fault.
type DomainError struct {
	Kind   error
	Detail string
	Field  string
	Fields map[string]string
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return e.Kind.Error() + ": " + e.Field + ": " + e.Detail
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *DomainError) Unwrap() error { return e.Kind }

func fail(kind error, detail string) error {
	return &DomainError{Kind: kind, Detail: detail}
}

func failField(kind error, field, detail string) error {
	return &DomainError{Kind: kind, Detail: detail, Field: field}
}

func failFields(kind error, detail string, fields map[string]string) error {
	return &DomainError{Kind: kind, Detail: detail, Fields: fields}
}

// Detail returns the client-facing text of err when it carries one.
func Detail(err error) (detail, field string, ok bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Detail, de.Field, true
	}
	return "", "", false
}

// unhandled passes known errors through and collapses the rest into ErrUnhandled.
func unhandled(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	slog.ErrorContext(ctx, "unexpected error", slog.String("op", op), slog.Any("error", err))
	return ErrUnhandled
}
