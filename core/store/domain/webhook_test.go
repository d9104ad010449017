package domain

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

func TestHandleWebhook_ChargeSuccess(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 2})

	out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total, Status: "success"})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeProcessed {
		t.Fatalf("outcome = %q, want %q", out, OutcomeProcessed)
	}

	s := f.store
	if got := s.sizes[f.sizeM.ID].Quantity; got != 1 {
		t.Errorf("size quantity = %d, want 1", got)
	}
	if got := s.variants[f.variant.ID].Quantity; got != 3 {
		t.Errorf("variant quantity = %d, want 3", got)
	}
	if got := s.products[f.product.ID].Quantity; got != 8 {
		t.Errorf("product quantity = %d, want 8", got)
	}
	if got := s.orders[o.Ref]; got.Status != OrderCompleted || got.CompletedAt == nil {
		t.Errorf("order = %+v, want completed", got)
	}
	if !s.customers[[2]uuid.UUID{f.product.ID, f.customer.UserID}] {
		t.Error("customer was not recorded for the product")
	}

	if len(s.transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(s.transfers))
	}
	for _, tr := range s.transfers {
		// 10000 less the 10% commission
		if tr.Amount != 9000 || tr.Paid || tr.BrandID != f.brand.ID {
			t.Errorf("transfer = %+v", tr)
		}
	}

	msgs := s.messagesOf(f.brand.ID, MsgOrderSuccessful)
	if len(msgs) != 1 || len(msgs[0].OrderItemIDs) != 1 || msgs[0].OrderItemIDs[0] != o.Items[0].ID {
		t.Fatalf("order.successful messages = %+v", msgs)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].To != f.owner.Email {
		t.Errorf("notifications = %+v", f.notifier.sent)
	}
	if got := f.events.types(); !slices.Equal(got, []string{EventOrderCompleted}) {
		t.Errorf("events = %v", got)
	}
}

func TestHandleWebhook_ChargeReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})
	data := WebhookData{Reference: o.Ref.String(), Amount: o.Total}

	if out, err := f.webhook(t, EventChargeSuccess, data); err != nil || out != OutcomeProcessed {
		t.Fatalf("first delivery = %q, %v", out, err)
	}
	out, err := f.webhook(t, EventChargeSuccess, data)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out != OutcomeDuplicate {
		t.Fatalf("replay outcome = %q, want %q", out, OutcomeDuplicate)
	}
	if got := f.store.sizes[f.sizeM.ID].Quantity; got != 2 {
		t.Errorf("size quantity after replay = %d, want 2", got)
	}
	if len(f.store.transfers) != 1 {
		t.Errorf("transfers after replay = %d, want 1", len(f.store.transfers))
	}
	if len(f.events.events) != 1 {
		t.Errorf("events after replay = %d, want 1", len(f.events.events))
	}
}

func TestHandleWebhook_OversoldItemIsUnfulfilled(t *testing.T) {
	f := newFixture(t)
	// size L holds a single unit
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 2, f.sizeL.ID: 2})

	out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total})
	if err != nil || out != OutcomeProcessed {
		t.Fatalf("HandleWebhook = %q, %v", out, err)
	}

	s := f.store
	if got := s.sizes[f.sizeL.ID].Quantity; got != 1 {
		t.Errorf("oversold size quantity = %d, want 1", got)
	}
	if got := s.sizes[f.sizeM.ID].Quantity; got != 1 {
		t.Errorf("fulfilled size quantity = %d, want 1", got)
	}
	for _, it := range s.orders[o.Ref].Items {
		want := it.SizeID == f.sizeM.ID
		if it.Fulfilled != want {
			t.Errorf("item %s fulfilled = %v, want %v", it.SizeValue, it.Fulfilled, want)
		}
	}
	for _, tr := range s.transfers {
		if tr.Amount != 9000 {
			t.Errorf("transfer amount = %d, want 9000 for the fulfilled item only", tr.Amount)
		}
	}
	unfulfilled := s.messagesOf(f.brand.ID, MsgOrderUnfulfilled)
	if len(unfulfilled) != 1 || len(unfulfilled[0].OrderItemIDs) != 1 {
		t.Fatalf("order.unfulfilled messages = %+v", unfulfilled)
	}
	if s.orders[o.Ref].Status != OrderCompleted {
		t.Error("order with an unfulfilled item should still complete")
	}
}

func TestHandleWebhook_StockOutTransitions(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 3})

	if _, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total}); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	s := f.store
	if sz := s.sizes[f.sizeM.ID]; sz.Quantity != 0 || sz.IsAvailable {
		t.Errorf("size = %+v, want empty and unavailable", sz)
	}
	if !s.variants[f.variant.ID].IsAvailable {
		t.Error("variant with stock left must stay available")
	}
	if got := s.messagesOf(f.brand.ID, MsgSizeUnavailable); len(got) != 1 {
		t.Errorf("size unavailable messages = %d, want 1", len(got))
	}
	if got := s.messagesOf(f.brand.ID, MsgVariantUnavailable); len(got) != 0 {
		t.Errorf("variant unavailable messages = %d, want 0", len(got))
	}
}

func TestHandleWebhook_HiddenRowReachingZeroSendsNoStockOut(t *testing.T) {
	f := newFixture(t)
	hidden := f.store.sizes[f.sizeL.ID]
	hidden.IsAvailable = false
	f.store.sizes[hidden.ID] = hidden
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeL.ID: 1})

	if out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total}); err != nil || out != OutcomeProcessed {
		t.Fatalf("HandleWebhook = %q, %v", out, err)
	}
	if sz := f.store.sizes[f.sizeL.ID]; sz.Quantity != 0 || sz.IsAvailable {
		t.Errorf("size = %+v, want empty and unavailable", sz)
	}
	if got := f.store.messagesOf(f.brand.ID, MsgSizeUnavailable); len(got) != 0 {
		t.Errorf("size unavailable messages = %d, want 0 for a row already hidden", len(got))
	}
}

func TestHandleWebhook_ConcurrentChargesNeverOversell(t *testing.T) {
	f := newFixture(t)
	// size L holds a single unit and both orders want it
	orders := []Order{
		f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeL.ID: 1}),
		f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeL.ID: 1}),
	}

	bodies := make([][]byte, len(orders))
	for i, o := range orders {
		body, err := json.Marshal(WebhookEvent{Event: EventChargeSuccess, Data: WebhookData{Reference: o.Ref.String(), Amount: o.Total}})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		bodies[i] = body
	}

	var wg sync.WaitGroup
	errs := make([]error, len(orders))
	for i, body := range bodies {
		wg.Go(func() {
			_, errs[i] = f.app.HandleWebhook(context.Background(), body, f.verifier.Sign(body))
		})
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	s := f.store
	if got := s.sizes[f.sizeL.ID].Quantity; got != 0 {
		t.Errorf("size quantity = %d, want 0", got)
	}
	if got := s.variants[f.variant.ID].Quantity; got != f.variant.Quantity-1 {
		t.Errorf("variant quantity = %d, want %d", got, f.variant.Quantity-1)
	}
	if got := s.products[f.product.ID].Quantity; got != f.product.Quantity-1 {
		t.Errorf("product quantity = %d, want %d", got, f.product.Quantity-1)
	}

	fulfilled := 0
	for _, o := range orders {
		stored := s.orders[o.Ref]
		if stored.Status != OrderCompleted {
			t.Errorf("order %s status = %q", o.Ref, stored.Status)
		}
		if stored.Items[0].Fulfilled {
			fulfilled++
		}
	}
	if fulfilled != 1 {
		t.Fatalf("fulfilled items = %d, want exactly 1", fulfilled)
	}
	if len(s.transfers) != 1 {
		t.Errorf("transfers = %d, want 1", len(s.transfers))
	}
	if got := s.messagesOf(f.brand.ID, MsgOrderUnfulfilled); len(got) != 1 {
		t.Errorf("order.unfulfilled messages = %d, want 1", len(got))
	}
}

func TestHandleWebhook_FullCommissionRecordsNoTransfer(t *testing.T) {
	f := newFixture(t)
	b := f.store.brands[f.brand.ID]
	b.CommissionPercent = decimal.NewFromInt(100)
	f.store.brands[b.ID] = b
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})

	if out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total}); err != nil || out != OutcomeProcessed {
		t.Fatalf("HandleWebhook = %q, %v", out, err)
	}
	if len(f.store.transfers) != 0 {
		t.Errorf("transfers = %+v, want none when nothing is owed", f.store.transfers)
	}
	if got := f.store.messagesOf(f.brand.ID, MsgOrderSuccessful); len(got) != 1 {
		t.Errorf("order.successful messages = %d, want 1", len(got))
	}
}

func TestHandleWebhook_CartOrderClearsCart(t *testing.T) {
	f := newFixture(t)
	cart := f.store.cart(f.customer.UserID)
	cart.Items = []CartItem{{ID: uuid.Must(uuid.NewV7()), ProductID: f.product.ID, VariantID: f.variant.ID, SizeID: f.sizeM.ID, Quantity: 1}}
	o := f.pendingOrder(SourceCart, map[uuid.UUID]int{f.sizeM.ID: 1})

	if _, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total}); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if n := len(f.store.carts[f.customer.UserID].Items); n != 0 {
		t.Errorf("cart items = %d, want 0", n)
	}
}

func TestHandleWebhook_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})

	out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: o.Ref.String(), Amount: o.Total - 1})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeAmountMismatch {
		t.Fatalf("outcome = %q, want %q", out, OutcomeAmountMismatch)
	}
	if f.store.orders[o.Ref].Status != OrderPending {
		t.Error("mismatched charge must leave the order pending")
	}
	if f.store.sizes[f.sizeM.ID].Quantity != f.sizeM.Quantity {
		t.Error("mismatched charge must not touch stock")
	}
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newFixture(t)
	for _, ref := range []string{uuid.Must(uuid.NewV7()).String(), "not-a-uuid"} {
		out, err := f.webhook(t, EventChargeSuccess, WebhookData{Reference: ref, Amount: 100})
		if err != nil {
			t.Fatalf("HandleWebhook(%q): %v", ref, err)
		}
		if out != OutcomeUnknownReference {
			t.Errorf("HandleWebhook(%q) = %q, want %q", ref, out, OutcomeUnknownReference)
		}
	}
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})
	body := []byte(`{"event":"charge.success","data":{"reference":"` + o.Ref.String() + `","amount":5000}}`)

	_, err := f.app.HandleWebhook(context.Background(), body, "deadbeef")
	assertKind(t, err, ErrInvalidSignature)
	if f.store.txCalls != 0 {
		t.Error("unsigned webhook must not open a transaction")
	}
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	out, err := f.webhook(t, "subscription.create", WebhookData{Reference: "x"})
	if err != nil || out != OutcomeIgnored {
		t.Fatalf("HandleWebhook = %q, %v", out, err)
	}
}

func TestHandleWebhook_TransferLifecycle(t *testing.T) {
	f := newFixture(t)
	tr := Transfer{ID: uuid.Must(uuid.NewV7()), Ref: uuid.Must(uuid.NewV7()), BrandID: f.brand.ID, Amount: 9000, CreatedAt: f.now}
	f.store.transfers[tr.ID] = tr
	data := WebhookData{Reference: tr.Ref.String(), Amount: tr.Amount, TransferCode: "TRF_1"}

	out, err := f.webhook(t, EventTransferSuccess, data)
	if err != nil || out != OutcomeProcessed {
		t.Fatalf("transfer.success = %q, %v", out, err)
	}
	got := f.store.transfers[tr.ID]
	if !got.Paid || got.Code == nil || *got.Code != "TRF_1" {
		t.Fatalf("transfer after success = %+v", got)
	}
	if n := len(f.store.messagesOf(f.brand.ID, MsgTransferSuccessful)); n != 1 {
		t.Errorf("transfer.successful messages = %d, want 1", n)
	}

	out, err = f.webhook(t, EventTransferSuccess, data)
	if err != nil || out != OutcomeDuplicate {
		t.Fatalf("replayed transfer.success = %q, %v", out, err)
	}
	if n := len(f.store.messagesOf(f.brand.ID, MsgTransferSuccessful)); n != 1 {
		t.Errorf("replay created a message, have %d", n)
	}

	if _, err := f.webhook(t, EventTransferReversed, data); err != nil {
		t.Fatalf("transfer.reversed: %v", err)
	}
	got = f.store.transfers[tr.ID]
	if got.Paid || got.Code != nil {
		t.Errorf("transfer after reversal = %+v, want unpaid", got)
	}
	if got := f.events.types(); !slices.Equal(got, []string{EventTransferPaid}) {
		t.Errorf("events = %v", got)
	}
}

func TestPayoutShare(t *testing.T) {
	tests := []struct {
		name       string
		items      []OrderItem
		commission string
		want       int64
	}{
		{"no commission", []OrderItem{{UnitPrice: 2500, Quantity: 2}}, "0", 5000},
		{"whole percent", []OrderItem{{UnitPrice: 5000, Quantity: 2}}, "10", 9000},
		{"rounds down", []OrderItem{{UnitPrice: 333, Quantity: 1}}, "7.5", 308},
		{"several items", []OrderItem{{UnitPrice: 100, Quantity: 3}, {UnitPrice: 99, Quantity: 1}}, "15", 339},
		{"full commission", []OrderItem{{UnitPrice: 100, Quantity: 1}}, "100", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payout(tt.items, decimal.RequireFromString(tt.commission)); got != tt.want {
				t.Errorf("payout = %d, want %d", got, tt.want)
			}
		})
	}
}
