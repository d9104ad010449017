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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

const (
	EventChargeSuccess    = "charge.success"
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"

	EventOrderCompleted = "order.completed"
	EventTransferPaid   = "transfer.paid"
)

type WebhookOutcome string

const (
	OutcomeProcessed        WebhookOutcome = "processed"
	OutcomeDuplicate        WebhookOutcome = "duplicate"
	OutcomeIgnored          WebhookOutcome = "ignored"
	OutcomeUnknownReference WebhookOutcome = "unknown_reference"
	OutcomeAmountMismatch   WebhookOutcome = "amount_mismatch"
)

type (
	WebhookEvent struct {
		Event string      `json:"event"`
		Data  WebhookData `json:"data"`
	}

	WebhookData struct {
		Reference    string `json:"reference"`
		Amount       int64  `json:"amount"`
		Status       string `json:"status"`
		TransferCode string `json:"transfer_code"`
	}

	OrderCompletedEvent struct {
		Ref         uuid.UUID   `json:"ref"`
		UserID      uuid.UUID   `json:"userId"`
		Total       int64       `json:"total"`
		Fulfilled   []uuid.UUID `json:"fulfilled"`
		Unfulfilled []uuid.UUID `json:"unfulfilled"`
	}

	TransferPaidEvent struct {
		Ref     uuid.UUID `json:"ref"`
		BrandID uuid.UUID `json:"brandId"`
		Amount  int64     `json:"amount"`
		Code    string    `json:"code"`
	}
)

// effects are the side effects of a webhook that run only after its transaction commits.
type effects struct {
	notifications []Notification
	events        []Event
	products      []uuid.UUID
	unfulfilled   int
	stockOuts     map[string]int
}

// HandleWebhook authenticates and applies a gateway callback. Events the store
// does not act on are acknowledged without error.
func (app *Application) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookOutcome, error) {
	if app.signature == nil || app.signature.Verify(body, signature) != nil {
		return "", ErrInvalidSignature
	}
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fail(ErrInvalidData, "Malformed webhook payload.")
	}

	var (
		outcome WebhookOutcome
		err     error
	)
	switch ev.Event {
	case EventChargeSuccess:
		outcome, err = app.chargeSuccess(ctx, ev.Data)
	case EventTransferSuccess, EventTransferFailed, EventTransferReversed:
		outcome, err = app.transferUpdate(ctx, ev.Event, ev.Data)
	default:
		outcome = OutcomeIgnored
	}
	if err != nil {
		app.metrics.WebhookEvent(ctx, ev.Event, "error")
		return "", unhandled(ctx, "webhook "+ev.Event, err)
	}

	app.metrics.WebhookEvent(ctx, ev.Event, string(outcome))
	slog.InfoContext(ctx, "webhook handled",
		slog.String("event", ev.Event),
		slog.String("reference", ev.Data.Reference),
		slog.String("outcome", string(outcome)))
	return outcome, nil
}

func (app *Application) chargeSuccess(ctx context.Context, data WebhookData) (WebhookOutcome, error) {
	ref, err := uuid.FromString(data.Reference)
	if err != nil {
		slog.WarnContext(ctx, "charge for unknown reference", slog.String("reference", data.Reference))
		return OutcomeUnknownReference, nil
	}

	var (
		outcome WebhookOutcome
		fx      effects
	)
	err = app.store.WithWebhookTx(ctx, func(ctx context.Context, tx WebhookTx) error {
		fx = effects{}
		order, err := tx.LockOrder(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			outcome = OutcomeUnknownReference
			return nil
		}
		if err != nil {
			return err
		}
		if order.Status == OrderCompleted {
			outcome = OutcomeDuplicate
			return nil
		}
		if data.Amount != order.Total {
			slog.WarnContext(ctx, "charge amount does not match order total",
				slog.String("order.ref", ref.String()),
				slog.Int64("order.total", order.Total),
				slog.Int64("charge.amount", data.Amount))
			outcome = OutcomeAmountMismatch
			return nil
		}

		if err := app.fulfil(ctx, tx, order, &fx); err != nil {
			return err
		}
		outcome = OutcomeProcessed
		return nil
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomeProcessed {
		app.metrics.OrderCompleted(ctx, fx.unfulfilled)
		for level, n := range fx.stockOuts {
			app.metrics.StockOut(ctx, level, n)
		}
		app.apply(ctx, fx)
	}
	if outcome == OutcomeUnknownReference {
		slog.WarnContext(ctx, "charge for unknown order", slog.String("reference", data.Reference))
	}
	return outcome, nil
}

// fulfil decrements stock for every item it can, records payouts and messages
// per brand and completes the order. It runs inside the webhook transaction.
func (app *Application) fulfil(ctx context.Context, tx WebhookTx, order *Order, fx *effects) error {
	items := slices.Clone(order.Items)
	slices.SortFunc(items, func(a, b OrderItem) int { return bytes.Compare(a.SizeID[:], b.SizeID[:]) })

	stock, err := tx.LockStock(ctx, items)
	if err != nil {
		return err
	}

	type brandLedger struct {
		fulfilled   []OrderItem
		unfulfilled []OrderItem
		outOfStock  map[MessageKind]bool
	}
	ledgers := map[uuid.UUID]*brandLedger{}
	var brandIDs []uuid.UUID
	ledger := func(id uuid.UUID) *brandLedger {
		l, ok := ledgers[id]
		if !ok {
			l = &brandLedger{outOfStock: map[MessageKind]bool{}}
			ledgers[id] = l
			brandIDs = append(brandIDs, id)
		}
		return l
	}

	fx.stockOuts = map[string]int{}
	customers := map[uuid.UUID]bool{}
	completed := &OrderCompletedEvent{Ref: order.Ref, UserID: order.UserID, Total: order.Total}
	for _, it := range items {
		l := ledger(it.BrandID)
		transitions, ok := decrementStock(stock, it)
		if !ok {
			if err := tx.MarkItemUnfulfilled(ctx, it.ID); err != nil {
				return err
			}
			l.unfulfilled = append(l.unfulfilled, it)
			completed.Unfulfilled = append(completed.Unfulfilled, it.ID)
			continue
		}
		l.fulfilled = append(l.fulfilled, it)
		completed.Fulfilled = append(completed.Fulfilled, it.ID)
		for _, k := range transitions {
			l.outOfStock[k] = true
			fx.stockOuts[stockLevel(k)]++
		}
		customers[it.ProductID] = true
	}
	fx.unfulfilled = len(completed.Unfulfilled)

	if err := tx.SaveStock(ctx, stock); err != nil {
		return err
	}
	for productID := range customers {
		if err := tx.AddCustomer(ctx, productID, order.UserID); err != nil {
			return err
		}
		fx.products = append(fx.products, productID)
	}

	brands, err := tx.BrandsByIDs(ctx, brandIDs)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]Brand, len(brands))
	for _, b := range brands {
		byID[b.ID] = b
	}

	for _, id := range brandIDs {
		brand, ok := byID[id]
		if !ok {
			return errors.New("webhook: brand " + id.String() + " vanished during fulfilment")
		}
		l := ledgers[id]
		if len(l.fulfilled) > 0 {
			// A brand at full commission is owed nothing.
			if amount := payout(l.fulfilled, brand.CommissionPercent); amount > 0 {
				if err := tx.CreateTransfer(ctx, Transfer{
					ID:        app.newID(),
					Ref:       app.newID(),
					BrandID:   id,
					Amount:    amount,
					CreatedAt: app.now(),
				}); err != nil {
					return err
				}
			}
			if err := app.message(ctx, tx, fx, brand, MsgOrderSuccessful, itemIDs(l.fulfilled)); err != nil {
				return err
			}
		}
		if len(l.unfulfilled) > 0 {
			if err := app.message(ctx, tx, fx, brand, MsgOrderUnfulfilled, itemIDs(l.unfulfilled)); err != nil {
				return err
			}
		}
		for _, k := range []MessageKind{MsgProductUnavailable, MsgVariantUnavailable, MsgSizeUnavailable} {
			if l.outOfStock[k] {
				if err := app.message(ctx, tx, fx, brand, k, nil); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.CompleteOrder(ctx, order.Ref, app.now()); err != nil {
		return err
	}
	if order.Source == SourceCart {
		if err := tx.ClearUserCart(ctx, order.UserID); err != nil {
			return err
		}
	}

	fx.events = append(fx.events, Event{
		Type:       EventOrderCompleted,
		Key:        order.Ref.String(),
		OccurredAt: app.now(),
		Payload:    completed,
	})
	return nil
}

// decrementStock takes qty from the product, variant and size of it when all
// three can cover it, and reports the levels that ran out while still listed
// as available.
func decrementStock(s *Stock, it OrderItem) ([]MessageKind, bool) {
	p, v, sz := s.Products[it.ProductID], s.Variants[it.VariantID], s.Sizes[it.SizeID]
	if p == nil || v == nil || sz == nil {
		return nil, false
	}
	if p.Quantity < it.Quantity || v.Quantity < it.Quantity || sz.Quantity < it.Quantity {
		return nil, false
	}
	var out []MessageKind
	for _, lvl := range []struct {
		row  *StockRow
		kind MessageKind
	}{{p, MsgProductUnavailable}, {v, MsgVariantUnavailable}, {sz, MsgSizeUnavailable}} {
		lvl.row.Quantity -= it.Quantity
		if lvl.row.Quantity == 0 {
			if lvl.row.IsAvailable {
				out = append(out, lvl.kind)
			}
			lvl.row.IsAvailable = false
		}
	}
	return out, true
}

func stockLevel(k MessageKind) string {
	switch k {
	case MsgProductUnavailable:
		return "product"
	case MsgVariantUnavailable:
		return "variant"
	default:
		return "size"
	}
}

// payout is the brand's share of items: subtotal * (100 - commission) / 100, rounded down to kobo.
func payout(items []OrderItem, commission decimal.Decimal) int64 {
	var subtotal int64
	for _, it := range items {
		subtotal += it.Subtotal()
	}
	share := hundred.Sub(commission)
	return decimal.NewFromInt(subtotal).Mul(share).Div(hundred).Floor().IntPart()
}

func itemIDs(items []OrderItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// message stores an in-app message for the brand owner and queues the matching email.
func (app *Application) message(ctx context.Context, tx WebhookTx, fx *effects, brand Brand, kind MessageKind, items []uuid.UUID) error {
	if err := tx.CreateMessage(ctx, Message{
		ID:           app.newID(),
		BrandID:      brand.ID,
		UserID:       brand.OwnerID,
		Status:       kind,
		Body:         kind.Text(),
		OrderItemIDs: items,
		CreatedAt:    app.now(),
	}); err != nil {
		return err
	}
	if brand.OwnerEmail != "" {
		fx.notifications = append(fx.notifications, Notification{
			To:      brand.OwnerEmail,
			Subject: notificationSubject,
			Body:    kind.EmailBody(brand.Name),
		})
	}
	return nil
}

func (app *Application) transferUpdate(ctx context.Context, event string, data WebhookData) (WebhookOutcome, error) {
	ref, err := uuid.FromString(data.Reference)
	if err != nil {
		slog.WarnContext(ctx, "transfer event for unknown reference", slog.String("reference", data.Reference))
		return OutcomeUnknownReference, nil
	}

	var (
		outcome WebhookOutcome
		fx      effects
	)
	err = app.store.WithWebhookTx(ctx, func(ctx context.Context, tx WebhookTx) error {
		fx = effects{}
		t, err := tx.LockTransfer(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			outcome = OutcomeUnknownReference
			return nil
		}
		if err != nil {
			return err
		}

		var kind MessageKind
		switch event {
		case EventTransferSuccess:
			if t.Paid {
				outcome = OutcomeDuplicate
				return nil
			}
			code := data.TransferCode
			t.Paid, t.Code = true, &code
			kind = MsgTransferSuccessful
			fx.events = append(fx.events, Event{
				Type:       EventTransferPaid,
				Key:        t.Ref.String(),
				OccurredAt: app.now(),
				Payload:    TransferPaidEvent{Ref: t.Ref, BrandID: t.BrandID, Amount: t.Amount, Code: code},
			})
		case EventTransferFailed:
			kind = MsgTransferFailed
		case EventTransferReversed:
			t.Paid, t.Code = false, nil
			kind = MsgTransferReversed
		}
		if event != EventTransferFailed {
			if err := tx.SaveTransfer(ctx, *t); err != nil {
				return err
			}
		}

		brands, err := tx.BrandsByIDs(ctx, []uuid.UUID{t.BrandID})
		if err != nil {
			return err
		}
		if len(brands) == 1 {
			if err := app.message(ctx, tx, &fx, brands[0], kind, nil); err != nil {
				return err
			}
		}
		outcome = OutcomeProcessed
		return nil
	})
	if err != nil {
		return "", err
	}
	if outcome == OutcomeProcessed {
		app.apply(ctx, fx)
	}
	return outcome, nil
}

// apply runs post-commit side effects. Failures are logged, never returned.
func (app *Application) apply(ctx context.Context, fx effects) {
	for _, id := range fx.products {
		app.cache.Invalidate(ctx, keyProduct(id))
	}
	for _, n := range fx.notifications {
		if err := app.notifier.Notify(ctx, n); err != nil {
			slog.WarnContext(ctx, "notification dropped", slog.String("to", n.To), slog.Any("error", err))
		}
	}
	for _, e := range fx.events {
		if err := app.events.Publish(ctx, e); err != nil {
			slog.WarnContext(ctx, "event not published", slog.String("event", e.Type), slog.Any("error", err))
		}
	}
}
