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
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

const (
	transfersTable = "transfers"
	messagesTable  = "messages"
)

var (
	transferColumns = []any{"id", "ref", "brand_id", "amount", "paid", "code", "created_at"}
	messageColumns  = []any{"id", "brand_id", "user_id", "status", "body", "order_item_ids", "created_at"}
)

type (
	transferRow struct {
		ID        uuid.UUID      `db:"id"`
		Ref       uuid.UUID      `db:"ref"`
		BrandID   uuid.UUID      `db:"brand_id"`
		Amount    int64          `db:"amount"`
		Paid      bool           `db:"paid"`
		Code      sql.NullString `db:"code"`
		CreatedAt time.Time      `db:"created_at"`
	}

	messageRow struct {
		ID           uuid.UUID `db:"id"`
		BrandID      uuid.UUID `db:"brand_id"`
		UserID       uuid.UUID `db:"user_id"`
		Status       string    `db:"status"`
		Body         string    `db:"body"`
		OrderItemIDs uuidList  `db:"order_item_ids"`
		CreatedAt    time.Time `db:"created_at"`
	}
)

func (r transferRow) toDomain() domain.Transfer {
	return domain.Transfer{
		ID:        r.ID,
		Ref:       r.Ref,
		BrandID:   r.BrandID,
		Amount:    r.Amount,
		Paid:      r.Paid,
		Code:      stringPtr(r.Code),
		CreatedAt: r.CreatedAt,
	}
}

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:           r.ID,
		BrandID:      r.BrandID,
		UserID:       r.UserID,
		Status:       domain.MessageKind(r.Status),
		Body:         r.Body,
		OrderItemIDs: []uuid.UUID(r.OrderItemIDs),
		CreatedAt:    r.CreatedAt,
	}
}

type transferTransformer struct{}

func (transferTransformer) TransformScanned(rows []transferRow) ([]domain.Transfer, error) {
	out := make([]domain.Transfer, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

type messageTransformer struct{}

func (messageTransformer) TransformScanned(rows []messageRow) ([]domain.Message, error) {
	out := make([]domain.Message, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// --- transfers ---

func (s *PostgresStore) ListTransfers(ctx context.Context, limit, offset int) ([]domain.Transfer, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, domain.ErrInvalidData
	}

	exec := s.pool.Reader()
	transfers, err := bob.Allx[transferTransformer](ctx, exec, psql.Select(
		sm.Columns(transferColumns...),
		sm.From(transfersTable),
		sm.OrderBy("created_at").Desc(),
		sm.Limit(limit),
		sm.Offset(offset),
	), scan.StructMapper[transferRow]())
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	count, err := bob.One(ctx, exec, psql.Select(
		sm.Columns("COUNT(*)"),
		sm.From(transfersTable),
	), scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return transfers, count, nil
}

func (s *PostgresStore) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(transferColumns...),
		sm.From(transfersTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[transferRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	t := row.toDomain()
	return &t, nil
}

func (s *PostgresStore) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(transfersTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}

// UnpaidTransfers reads from the primary: the payout job must not resend a
// transfer a replica has not yet seen as paid.
func (s *PostgresStore) UnpaidTransfers(ctx context.Context) ([]domain.Transfer, error) {
	transfers, err := bob.Allx[transferTransformer](ctx, s.pool.Writer(), psql.Select(
		sm.Columns(transferColumns...),
		sm.From(transfersTable),
		sm.Where(psql.Raw("NOT paid")),
		sm.OrderBy("created_at"),
	), scan.StructMapper[transferRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return transfers, nil
}

// --- messages ---

func (s *PostgresStore) ListMessages(ctx context.Context, brandID *uuid.UUID, limit, offset int) ([]domain.Message, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, domain.ErrInvalidData
	}

	var filter []bob.Mod[*dialect.SelectQuery]
	if brandID != nil {
		filter = append(filter, sm.Where(psql.Quote("brand_id").EQ(psql.Arg(*brandID))))
	}

	exec := s.pool.Reader()
	q := psql.Select(
		sm.Columns(messageColumns...),
		sm.From(messagesTable),
	)
	q.Apply(filter...)
	q.Apply(
		sm.OrderBy("created_at").Desc(),
		sm.Limit(limit),
		sm.Offset(offset),
	)
	messages, err := bob.Allx[messageTransformer](ctx, exec, q, scan.StructMapper[messageRow]())
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}

	countQuery := psql.Select(sm.Columns("COUNT(*)"), sm.From(messagesTable))
	countQuery.Apply(filter...)
	count, err := bob.One(ctx, exec, countQuery, scan.SingleColumnMapper[int])
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	return messages, count, nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	row, err := bob.One(ctx, s.pool.Writer(), psql.Select(
		sm.Columns(messageColumns...),
		sm.From(messagesTable),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	), scan.StructMapper[messageRow]())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	m := row.toDomain()
	return &m, nil
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return expectRow(bob.Exec(ctx, s.pool.Writer(), psql.Delete(
		dm.From(messagesTable),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)))
}
