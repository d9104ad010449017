package domain

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrInvalidData     = errors.New("invalid data provided for user operations")
	ErrNotFound        = errors.New("user not found")
	ErrDuplicate       = errors.New("user with the requested username or email already exists")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not permitted")
	ErrUnhandled       = errors.New("unexpected error")
)

var known = []error{ErrInvalidData, ErrNotFound, ErrDuplicate, ErrUnauthenticated, ErrForbidden, ErrUnhandled}

// DomainError unwraps to one of the sentinels above and carries the text shown to clients.
type DomainError struct {
	Kind   error
	Detail string
	Fields map[string]string
}

func (e *DomainError) Error() string { return e.Kind.Error() + ": " + e.Detail }
func (e *DomainError) Unwrap() error { return e.Kind }

func fail(kind error, detail string) error {
	return &DomainError{Kind: kind, Detail: detail}
}

// Detail returns the client-facing text of err when it carries one.
func Detail(err error) (string, map[string]string, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Detail, de.Fields, true
	}
	return "", nil, false
}

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
