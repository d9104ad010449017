package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"storefront/core/identity/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapUserError(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", fmt.Errorf("query: %w", sql.ErrNoRows), domain.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, domain.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrInvalidData},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapUserError(tt.in); !errors.Is(got, tt.want) {
				t.Fatalf("wrapUserError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if wrapUserError(nil) != nil {
		t.Fatal("nil error wrapped")
	}
}

func TestToUser_Pic(t *testing.T) {
	u := toUser(UserRow{Username: "ada"})
	if u.Pic != nil {
		t.Fatalf("pic = %v, want nil", *u.Pic)
	}
	u = toUser(UserRow{Pic: sql.NullString{String: "p.png", Valid: true}})
	if u.Pic == nil || *u.Pic != "p.png" {
		t.Fatalf("pic = %v", u.Pic)
	}
	if got := nullString(u.Pic); !got.Valid || got.String != "p.png" {
		t.Fatalf("nullString = %+v", got)
	}
}
