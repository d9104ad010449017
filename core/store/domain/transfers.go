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

package domain

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/gofrs/uuid/v5"
)

const (
	payoutLockName = "payouts"
	payoutReason   = "Payment for products provided"
	payoutSource   = "balance"

	detailNoAccount = "You do not have an account!"
	DetailAllPaid   = "All debts have been paid!"
)

type PayoutResult struct {
	Transfers int
	Amount    int64
	Batch     *TransferBatch
}

func (app *Application) ListTransfers(ctx context.Context, actor Actor, page, pageSize int) ([]Transfer, int, error) {
	if err := requireStaff(actor); err != nil {
		return nil, 0, err
	}
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ts, total, err := app.store.ListTransfers(ctx, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list transfers", err)
	}
	return ts, total, nil
}

func (app *Application) GetTransfer(ctx context.Context, actor Actor, id uuid.UUID) (*Transfer, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	t, err := app.store.GetTransfer(ctx, id)
	return t, unhandled(ctx, "get transfer", err)
}

func (app *Application) DeleteTransfer(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return unhandled(ctx, "delete transfer", app.store.DeleteTransfer(ctx, id))
}

// Payout pays every unpaid transfer in one bulk transfer. A nil result means
// there was nothing to pay.
func (app *Application) Payout(ctx context.Context, actor Actor) (*PayoutResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return app.RunPayout(ctx)
}

// RunPayout is Payout without the caller check, for the scheduled job.
func (app *Application) RunPayout(ctx context.Context) (*PayoutResult, error) {
	var res *PayoutResult
	err := app.locks.Run(ctx, payoutLockName, func(ctx context.Context) error {
		var err error
		res, err = app.payout(ctx)
		return err
	})
	switch {
	case err == nil && res == nil:
		app.metrics.Payout(ctx, "nothing_due")
	case err == nil:
		app.metrics.Payout(ctx, "sent")
	case errors.Is(err, ErrConflict):
		app.metrics.Payout(ctx, "locked")
		return nil, fail(ErrConflict, "A payout is already running.")
	default:
		app.metrics.Payout(ctx, "failed")
	}
	return res, unhandled(ctx, "payout", err)
}

func (app *Application) payout(ctx context.Context) (*PayoutResult, error) {
	unpaid, err := app.store.UnpaidTransfers(ctx)
	if err != nil {
		return nil, err
	}
	due := slices.DeleteFunc(unpaid, func(t Transfer) bool { return t.Amount <= 0 })
	if len(due) == 0 {
		return nil, nil
	}

	recipients := map[uuid.UUID]string{}
	res := &PayoutResult{Transfers: len(due)}
	instructions := make([]TransferInstruction, 0, len(due))
	for _, t := range due {
		code, ok := recipients[t.BrandID]
		if !ok {
			b, err := app.store.GetBrand(ctx, t.BrandID)
			if err != nil {
				return nil, err
			}
			if b.RecipientCode == nil || *b.RecipientCode == "" {
				return nil, failFields(ErrNotFound, detailNoAccount, map[string]string{"brand": b.Name})
			}
			code = *b.RecipientCode
			recipients[t.BrandID] = code
		}
		res.Amount += t.Amount
		instructions = append(instructions, TransferInstruction{
			Amount:    t.Amount,
			Recipient: code,
			Reference: t.Ref.String(),
			Reason:    payoutReason,
		})
	}

	batch, err := app.gateway.BulkTransfer(ctx, Currency, payoutSource, instructions)
	if err != nil {
		return nil, err
	}
	res.Batch = batch
	slog.InfoContext(ctx, "payout sent",
		slog.Int("transfers", res.Transfers), slog.Int64("amount", res.Amount))
	return res, nil
}
