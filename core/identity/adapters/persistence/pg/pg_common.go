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

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/core/identity/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
)

const (
	usersTable = "users"
	cartsTable = "carts"
)

var userColumns = []any{
	"id", "username", "email", "first_name", "last_name", "pic", "password_hash",
	"is_active", "is_staff", "is_brand_owner", "created_at", "updated_at",
}

type (
	// UserRow mirrors the users table.
	UserRow struct {
		ID           uuid.UUID      `db:"id"`
		Username     string         `db:"username"`
		Email        string         `db:"email"`
		FirstName    string         `db:"first_name"`
		LastName     string         `db:"last_name"`
		Pic          sql.NullString `db:"pic"`
		PasswordHash string         `db:"password_hash"`
		IsActive     bool           `db:"is_active"`
		IsStaff      bool           `db:"is_staff"`
		IsBrandOwner bool           `db:"is_brand_owner"`
		CreatedAt    time.Time      `db:"created_at"`
		UpdatedAt    time.Time      `db:"updated_at"`
	}
)

func toUser(row UserRow) domain.User {
	u := domain.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		IsStaff:      row.IsStaff,
		IsBrandOwner: row.IsBrandOwner,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Pic.Valid {
		pic := row.Pic.String
		u.Pic = &pic
	}
	return u
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type userTransformer struct{}

func (userTransformer) TransformScanned(rows []UserRow) ([]domain.User, error) {
	out := make([]domain.User, len(rows))
	for i, r := range rows {
		out[i] = toUser(r)
	}
	return out, nil
}

func wrapUserError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domain.ErrDuplicate
		case "23503", "23514": // foreign_key_violation, check_violation
			return domain.ErrInvalidData
		}
	}

	return err
}

func inTxQueryStmt[Arg any, T any, Ts ~[]T](
	ctx context.Context,
	stmt bob.QueryStmt[Arg, T, Ts],
	tx bob.Tx,
) bob.QueryStmt[Arg, T, Ts] {
	txStmt := stmt
	txStmt.Stmt = bob.InTx(ctx, stmt.Stmt, tx)
	return txStmt
}
