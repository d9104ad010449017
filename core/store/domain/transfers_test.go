package domain

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func unpaidTransfer(f *fixture, amount int64) Transfer {
	tr := Transfer{ID: uuid.Must(uuid.NewV7()), Ref: uuid.Must(uuid.NewV7()), BrandID: f.brand.ID, Amount: amount, CreatedAt: f.now}
	f.store.transfers[tr.ID] = tr
	return tr
}

func TestPayout_NothingDue(t *testing.T) {
	f := newFixture(t)
	res, err := f.app.Payout(context.Background(), f.staff)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if len(f.gateway.bulk) != 0 {
		t.Error("nothing due must not call the gateway")
	}
}

func TestPayout_SendsOneBatch(t *testing.T) {
	f := newFixture(t)
	a := unpaidTransfer(f, 9000)
	unpaidTransfer(f, 4500)
	paid := unpaidTransfer(f, 100)
	paid.Paid = true
	f.store.transfers[paid.ID] = paid

	res, err := f.app.Payout(context.Background(), f.staff)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if res.Transfers != 2 || res.Amount != 13500 {
		t.Errorf("result = %+v", res)
	}
	if len(f.gateway.bulk) != 1 || len(f.gateway.bulk[0]) != 2 {
		t.Fatalf("bulk calls = %+v", f.gateway.bulk)
	}
	var found bool
	for _, in := range f.gateway.bulk[0] {
		if in.Recipient != *f.brand.RecipientCode || in.Reason != payoutReason {
			t.Errorf("instruction = %+v", in)
		}
		found = found || (in.Reference == a.Ref.String() && in.Amount == 9000)
	}
	if !found {
		t.Error("transfer reference was not used as the payout reference")
	}
	if res.Batch == nil || res.Batch.Currency != Currency || res.Batch.Source != payoutSource {
		t.Errorf("batch = %+v", res.Batch)
	}
}

func TestPayout_SkipsZeroAmountTransfers(t *testing.T) {
	f := newFixture(t)
	unpaidTransfer(f, 0)
	due := unpaidTransfer(f, 9000)

	res, err := f.app.Payout(context.Background(), f.staff)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if res.Transfers != 1 || res.Amount != 9000 {
		t.Errorf("result = %+v", res)
	}
	if len(f.gateway.bulk) != 1 || len(f.gateway.bulk[0]) != 1 {
		t.Fatalf("bulk calls = %+v", f.gateway.bulk)
	}
	if in := f.gateway.bulk[0][0]; in.Amount != 9000 || in.Reference != due.Ref.String() {
		t.Errorf("instruction = %+v", in)
	}
}

func TestPayout_OnlyZeroAmountsIsNothingDue(t *testing.T) {
	f := newFixture(t)
	unpaidTransfer(f, 0)

	res, err := f.app.Payout(context.Background(), f.staff)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if len(f.gateway.bulk) != 0 {
		t.Error("zero-amount transfers must not reach the gateway")
	}
}

func TestPayout_BrandWithoutAccount(t *testing.T) {
	f := newFixture(t)
	b := f.store.brands[f.brand.ID]
	b.RecipientCode = nil
	f.store.brands[b.ID] = b
	unpaidTransfer(f, 9000)

	_, err := f.app.Payout(context.Background(), f.staff)
	assertKind(t, err, ErrNotFound)
	assertDetail(t, err, detailNoAccount)
	de := err.(*DomainError)
	if de.Fields["brand"] != f.brand.Name {
		t.Errorf("fields = %v", de.Fields)
	}
	if len(f.gateway.bulk) != 0 {
		t.Error("gateway called despite a missing account")
	}
}

func TestPayout_AlreadyRunning(t *testing.T) {
	f := newFixture(t)
	f.app.locks = busyRunner{}
	unpaidTransfer(f, 9000)

	_, err := f.app.Payout(context.Background(), f.staff)
	assertKind(t, err, ErrConflict)
	if len(f.gateway.bulk) != 0 {
		t.Error("gateway called without holding the lock")
	}
}

func TestPayout_StaffOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Payout(context.Background(), f.owner)
	assertKind(t, err, ErrForbidden)
}

func TestTransfers_StaffCrud(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := unpaidTransfer(f, 10)

	_, _, err := f.app.ListTransfers(ctx, f.owner, 0, 10)
	assertKind(t, err, ErrForbidden)

	ts, total, err := f.app.ListTransfers(ctx, f.staff, 0, 10)
	if err != nil || total != 1 || ts[0].ID != tr.ID {
		t.Fatalf("ListTransfers = %v, %d, %v", ts, total, err)
	}
	if err := f.app.DeleteTransfer(ctx, f.staff, tr.ID); err != nil {
		t.Fatalf("DeleteTransfer: %v", err)
	}
	_, err = f.app.GetTransfer(ctx, f.staff, tr.ID)
	assertKind(t, err, ErrNotFound)
}
