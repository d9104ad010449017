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
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const (
	banksTable    = "banks"
	accountsTable = "accounts"
)

var accountColumns = []any{
	"accounts.id", "accounts.brand_id", "accounts.bank_id", "accounts.acct_no", "accounts.acct_name",
	"accounts.recipient_code", "accounts.subaccount_code", "accounts.in_use", "accounts.created_at",
	"(SELECT code FROM banks WHERE banks.id = accounts.bank_id) AS bank_code",
}

type (
	bankRow struct {
		ID   uuid.UUID `db:"id"`
		Code string    `db:"code"`
		Name string    `db:"name"`
	}

	accountRow struct {
		ID             uuid.UUID `db:"id"`
		BrandID        uuid.UUID `db:"brand_id"`
		BankID         uuid.UUID `db:"bank_id"`
		BankCode       string    `db:"bank_code"`
		AcctNo         string    `db:"acct_no"`
		AcctName       string    `db:"acct_name"`
		RecipientCode  string    `db:"recipient_code"`
		SubaccountCode string    `db:"subaccount_code"`
		InUse          bool      `db:"in_use"`
		CreatedAt      time.Time `db:"created_at"`
	}
)

func (r bankRow) toDomain() domain.Bank {
	return domain.Bank{ID: r.ID, Code: r.Code, Name: r.Name}
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:             r.ID,
		BrandID:        r.BrandID,
		BankID:         r.BankID,
		BankCode:       r.BankCode,
		AcctNo:         r.AcctNo,
		AcctName:       r.AcctName,
		RecipientCode:  r.RecipientCode,
		SubaccountCode: r.SubaccountCode,
		InUse:          r.InUse,
		CreatedAt:      r.CreatedAt,
	}
}

func (s *PostgresStore) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	rows, err := bob.All(ctx, s.pool.Reader(), psql.Select(
		sm.Columns("id", "code", "name"),
		sm.From(banksTable),
		sm.OrderBy("name"),
	), scan.StructMapper[bankRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := make([]domain.Bank, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *PostgresStore) GetBank(ctx context.Context, id uuid.UUID) (*domain.Bank, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns("id", "code", "name"),
		sm.From(banksTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[bankRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	b := row.toDomain()
	return &b, nil
}

func (s *PostgresStore) CreateBank(ctx context.Context, b domain.Bank) (*domain.Bank, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Insert(
		im.Into(banksTable, "id", "code", "name"),
		im.Values(psql.Arg(b.ID, b.Code, b.Name)),
		im.Returning("id", "code", "name"),
	), scan.StructMapper[bankRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *PostgresStore) DeleteBank(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(banksTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

// UpsertBanks writes the whole list in one transaction, keyed by code.
func (s *PostgresStore) UpsertBanks(ctx context.Context, banks []domain.Bank) (int, error) {
	written := 0
	err := s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		written = 0
		for _, b := range banks {
			res, err := bob.Exec(ctx, tx, psql.RawQuery(
				`INSERT INTO banks (id, code, name) VALUES (?, ?, ?)
				 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
				b.ID, b.Code, b.Name,
			))
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			written += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, wrapStoreError(err)
	}
	return written, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context, ownerID *uuid.UUID) ([]domain.Account, error) {
	q := psql.Select(
		sm.Columns(accountColumns...),
		sm.From(accountsTable),
		sm.OrderBy("accounts.created_at").Desc(),
	)
	if ownerID != nil {
		q.Apply(sm.Where(psql.Raw(
			"accounts.brand_id IN (SELECT id FROM brands WHERE owner_id = ?)", *ownerID,
		)))
	}

	rows, err := bob.All(ctx, s.pool.Reader(), q, scan.StructMapper[accountRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	out := make([]domain.Account, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(accountColumns...),
		sm.From(accountsTable),
		sm.Where(psql.Quote(accountsTable, "id").EQ(psql.Arg(id))),
	), scan.StructMapper[accountRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	a := row.toDomain()
	return &a, nil
}

// SaveAccount upserts a. The brand row is locked first so that concurrent
// saves for one brand cannot both leave an account in use.
func (s *PostgresStore) SaveAccount(ctx context.Context, a domain.Account) (*domain.Account, error) {
	err := s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		if err := lockBrand(ctx, tx, a.BrandID); err != nil {
			return err
		}

		if a.InUse {
			if _, err := bob.Exec(ctx, tx, psql.Update(
				um.Table(accountsTable),
				um.SetCol("in_use").To(psql.Raw("false")),
				um.Where(psql.Quote("brand_id").EQ(psql.Arg(a.BrandID))),
				um.Where(psql.Quote("id").NE(psql.Arg(a.ID))),
			)); err != nil {
				return err
			}
		}

		if _, err := bob.Exec(ctx, tx, psql.RawQuery(
			`INSERT INTO accounts (id, brand_id, bank_id, acct_no, acct_name, recipient_code, subaccount_code, in_use, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			     bank_id = EXCLUDED.bank_id,
			     acct_no = EXCLUDED.acct_no,
			     acct_name = EXCLUDED.acct_name,
			     recipient_code = EXCLUDED.recipient_code,
			     subaccount_code = EXCLUDED.subaccount_code,
			     in_use = EXCLUDED.in_use`,
			a.ID, a.BrandID, a.BankID, a.AcctNo, a.AcctName, a.RecipientCode, a.SubaccountCode, a.InUse, a.CreatedAt,
		)); err != nil {
			return err
		}
		return syncBrandCodes(ctx, tx, a.BrandID)
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return s.GetAccount(ctx, a.ID)
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	err := s.withTx(ctx, func(ctx context.Context, tx bob.Tx) error {
		brandID, err := bob.One(ctx, tx, psql.Select(
			sm.Columns("brand_id"),
			sm.From(accountsTable),
			sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		), scan.SingleColumnMapper[uuid.UUID])
		if err != nil {
			return err
		}
		if err := lockBrand(ctx, tx, brandID); err != nil {
			return err
		}
		if err := expectRow(bob.Exec(ctx, tx, psql.Delete(
			dm.From(accountsTable),
			dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		))); err != nil {
			return err
		}
		return syncBrandCodes(ctx, tx, brandID)
	})
	return wrapStoreError(err)
}

func lockBrand(ctx context.Context, tx bob.Tx, id uuid.UUID) error {
	_, err := bob.One(ctx, tx, psql.Select(
		sm.Columns("id"),
		sm.From(brandsTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		sm.ForUpdate(),
	), scan.SingleColumnMapper[uuid.UUID])
	return err
}

// syncBrandCodes copies the payout codes of the brand's account in use onto
// the brand, or clears them when no account is in use.
func syncBrandCodes(ctx context.Context, tx bob.Tx, brandID uuid.UUID) error {
	_, err := bob.Exec(ctx, tx, psql.RawQuery(
		`UPDATE brands SET
		     recipient_code = (SELECT recipient_code FROM accounts
		                       WHERE accounts.brand_id = brands.id AND accounts.in_use),
		     subaccount_code = (SELECT NULLIF(subaccount_code, '') FROM accounts
		                        WHERE accounts.brand_id = brands.id AND accounts.in_use)
		 WHERE id = ?`,
		brandID,
	))
	return err
}
