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
	"errors"
	"fmt"

	"storefront/core/identity/domain"
	"storefront/modules/auth"
	"storefront/modules/db"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

var (
	_ domain.UserStore     = (*PostgresUserStore)(nil)
	_ auth.PrincipalLoader = (*PostgresUserStore)(nil)
)

type (
	// PostgresUserStore writes through prepared statements on the primary and
	// reads listings from a replica.
	PostgresUserStore struct {
		pool db.ConnectionPool

		insertUserStmt bob.QueryStmt[insertUserArgs, UserRow, []UserRow]
		insertCartStmt bob.QueryStmt[insertCartArgs, uuid.UUID, []uuid.UUID]
		principalStmt  bob.QueryStmt[userIDArgs, UserRow, []UserRow]
		deactivateStmt bob.QueryStmt[userIDArgs, uuid.UUID, []uuid.UUID]
	}

	insertUserArgs struct {
		ID           uuid.UUID `db:"id"`
		Username     string    `db:"username"`
		Email        string    `db:"email"`
		FirstName    string    `db:"first_name"`
		LastName     string    `db:"last_name"`
		PasswordHash string    `db:"password_hash"`
		IsActive     bool      `db:"is_active"`
	}

	insertCartArgs struct {
		ID     uuid.UUID `db:"id"`
		UserID uuid.UUID `db:"user_id"`
	}

	userIDArgs struct {
		ID uuid.UUID `db:"id"`
	}
)

func NewPostgresUserStore(ctx context.Context, pool db.ConnectionPool) (*PostgresUserStore, error) {
	primary := pool.Writer().(bob.DB)
	s := &PostgresUserStore{pool: pool}

	var err error

	s.insertUserStmt, err = bob.PrepareQuery[insertUserArgs](ctx, primary, psql.Insert(
		im.Into(usersTable, "id", "username", "email", "first_name", "last_name", "password_hash", "is_active"),
		im.Values(
			bob.Named("id"),
			bob.Named("username"),
			bob.Named("email"),
			bob.Named("first_name"),
			bob.Named("last_name"),
			bob.Named("password_hash"),
			bob.Named("is_active"),
		),
		im.Returning(userColumns...),
	), scan.StructMapper[UserRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare insert user: %w", err)
	}

	s.insertCartStmt, err = bob.PrepareQuery[insertCartArgs](ctx, primary, psql.Insert(
		im.Into(cartsTable, "id", "user_id"),
		im.Values(bob.Named("id"), bob.Named("user_id")),
		im.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare insert cart: %w", err)
	}

	// Runs on every authenticated request, so it stays on the primary:
	// a deactivation must take effect immediately.
	s.principalStmt, err = bob.PrepareQuery[userIDArgs](ctx, primary, psql.Select(
		sm.Columns(userColumns...),
		sm.From(usersTable),
		sm.Where(psql.Quote("id").EQ(bob.Named("id"))),
	), scan.StructMapper[UserRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare load principal: %w", err)
	}

	s.deactivateStmt, err = bob.PrepareQuery[userIDArgs](ctx, primary, psql.Update(
		um.Table(usersTable),
		um.SetCol("is_active").To(psql.Raw("false")),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(bob.Named("id"))),
		um.Returning("id"),
	), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("prepare deactivate user: %w", err)
	}

	return s, nil
}

// CreateUserWithCart inserts the user and its cart in one transaction.
func (s *PostgresUserStore) CreateUserWithCart(ctx context.Context, u domain.User, cartID uuid.UUID) (*domain.User, error) {
	var created domain.User

	err := s.pool.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		tx, ok := q.(bob.Tx)
		if !ok {
			return fmt.Errorf("querier is not a transaction")
		}

		row, err := inTxQueryStmt(ctx, s.insertUserStmt, tx).One(ctx, insertUserArgs{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			PasswordHash: u.PasswordHash,
			IsActive:     u.IsActive,
		})
		if err != nil {
			return err
		}

		if _, err := inTxQueryStmt(ctx, s.insertCartStmt, tx).One(ctx, insertCartArgs{
			ID:     cartID,
			UserID: row.ID,
		}); err != nil {
			return err
		}

		created = toUser(row)
		return nil
	})
	if err != nil {
		return nil, wrapUserError(err)
	}
	return &created, nil
}

func (s *PostgresUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row, err := s.principalStmt.One(ctx, userIDArgs{ID: id})
	if err != nil {
		return nil, wrapUserError(err)
	}
	u := toUser(row)
	return &u, nil
}

// GetUserByLogin prefers an exact username match over an email match.
func (s *PostgresUserStore) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := psql.Select(
		sm.Columns(userColumns...),
		sm.From(usersTable),
		sm.Where(psql.Or(
			psql.Quote("username").EQ(psql.Arg(login)),
			psql.Raw("lower(email) = lower(?)", login),
		)),
		sm.OrderBy(psql.Raw("username = ?", login)).Desc(),
		sm.Limit(1),
	)

	row, err := bob.One(ctx, s.pool.Writer(), query, scan.StructMapper[UserRow]())
	if err != nil {
		return nil, wrapUserError(err)
	}
	u := toUser(row)
	return &u, nil
}

func (s *PostgresUserStore) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, domain.ErrInvalidData
	}

	listQuery := psql.Select(
		sm.Columns(userColumns...),
		sm.From(usersTable),
		sm.OrderBy("created_at").Desc(),
		sm.OrderBy("id").Desc(),
		sm.Limit(limit),
		sm.Offset(offset),
	)

	users, err := bob.Allx[userTransformer](ctx, s.pool.Reader(), listQuery, scan.StructMapper[UserRow]())
	if err != nil {
		return nil, 0, wrapUserError(err)
	}

	count, err := bob.One(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("COUNT(*)"),
		sm.From(usersTable),
	), scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapUserError(err)
	}

	return users, count, nil
}

func (s *PostgresUserStore) ModifyUser(ctx context.Context, u domain.User) (*domain.User, error) {
	query := psql.Update(
		um.Table(usersTable),
		um.SetCol("first_name").To(psql.Arg(u.FirstName)),
		um.SetCol("last_name").To(psql.Arg(u.LastName)),
		um.SetCol("pic").To(psql.Arg(nullString(u.Pic))),
		um.SetCol("updated_at").To(psql.Arg(u.UpdatedAt)),
		um.Where(psql.Quote("id").EQ(psql.Arg(u.ID))),
		um.Returning(userColumns...),
	)

	row, err := bob.One(ctx, s.pool.Writer(), query, scan.StructMapper[UserRow]())
	if err != nil {
		return nil, wrapUserError(err)
	}
	updated := toUser(row)
	return &updated, nil
}

func (s *PostgresUserStore) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.deactivateStmt.One(ctx, userIDArgs{ID: id})
	return wrapUserError(err)
}

// LoadPrincipal implements auth.PrincipalLoader.
func (s *PostgresUserStore) LoadPrincipal(ctx context.Context, id uuid.UUID) (auth.Principal, error) {
	row, err := s.principalStmt.One(ctx, userIDArgs{ID: id})
	if err != nil {
		if errors.Is(wrapUserError(err), domain.ErrNotFound) {
			return auth.Principal{}, auth.ErrUnknownPrincipal
		}
		return auth.Principal{}, err
	}
	return auth.Principal{
		UserID:       row.ID,
		Username:     row.Username,
		Email:        row.Email,
		IsActive:     row.IsActive,
		IsStaff:      row.IsStaff,
		IsBrandOwner: row.IsBrandOwner,
	}, nil
}
