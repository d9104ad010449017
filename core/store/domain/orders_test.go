package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestCheckout_Direct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.app.Checkout(ctx, f.customer, CheckoutRequest{
		VariantID:   &f.variant.ID,
		Size:        "M",
		Quantity:    2,
		RedirectURL: "https://shop.example/done",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	o := f.store.orders[res.Ref]
	if o.Status != OrderPending || o.Source != SourceDirect || o.Total != 2*f.product.Price {
		t.Fatalf("order = %+v", o)
	}
	if o.AuthorizationURL == nil || *o.AuthorizationURL != res.AuthorizationURL {
		t.Errorf("authorization url = %v, want %q", o.AuthorizationURL, res.AuthorizationURL)
	}
	if len(o.Items) != 1 || !o.Items[0].Fulfilled || o.Items[0].SizeID != f.sizeM.ID {
		t.Errorf("items = %+v", o.Items)
	}

	if len(f.gateway.inits) != 1 {
		t.Fatalf("gateway inits = %d", len(f.gateway.inits))
	}
	ti := f.gateway.inits[0]
	if ti.Amount != o.Total || ti.Currency != Currency || ti.Reference != res.Ref.String() {
		t.Errorf("transaction init = %+v", ti)
	}
	if ti.Subaccount != *f.brand.SubaccountCode {
		t.Errorf("subaccount = %q, want the single brand's", ti.Subaccount)
	}
	if f.store.sizes[f.sizeM.ID].Quantity != f.sizeM.Quantity {
		t.Error("checkout must not reserve stock")
	}
}

func TestCheckout_FromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.app.UpdateCart(ctx, f.customer, cartUpdate(f.variant.ID, "add", 2, &f.sizeM.ID)); err != nil {
		t.Fatalf("add: %v", err)
	}
	res, err := f.app.Checkout(ctx, f.customer, CheckoutRequest{RedirectURL: "https://shop.example/done"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	o := f.store.orders[res.Ref]
	if o.Source != SourceCart || o.Total != 2*f.product.Price || len(o.Items) != 1 {
		t.Fatalf("order = %+v", o)
	}
	if len(f.store.carts[f.customer.UserID].Items) != 1 {
		t.Error("cart must survive until the charge succeeds")
	}
}

func TestCheckout_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	redirect := "https://shop.example/done"

	tests := []struct {
		name   string
		in     CheckoutRequest
		kind   error
		detail string
	}{
		{"empty cart", CheckoutRequest{RedirectURL: redirect}, ErrEmptyCart, detailCartEmpty},
		{"too many", CheckoutRequest{VariantID: &f.variant.ID, Size: "M", Quantity: 6, RedirectURL: redirect}, ErrInsufficientStock, detailOrderTooMany},
		{"size not stocked", CheckoutRequest{VariantID: &f.variant.ID, Size: "XL", Quantity: 1, RedirectURL: redirect}, ErrOutOfStock, detailOrderSizeOut},
		{"size too small", CheckoutRequest{VariantID: &f.variant.ID, Size: "L", Quantity: 2, RedirectURL: redirect}, ErrOutOfStock, detailOrderSizeOut},
		{"default size missing", CheckoutRequest{VariantID: &f.variant.ID, RedirectURL: redirect}, ErrOutOfStock, detailOrderSizeOut},
		{"missing redirect", CheckoutRequest{VariantID: &f.variant.ID, Size: "M"}, ErrInvalidData, "This field is required."},
		{"bad redirect", CheckoutRequest{VariantID: &f.variant.ID, Size: "M", RedirectURL: "ftp://x"}, ErrInvalidData, "Enter a valid URL."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.app.Checkout(ctx, f.customer, tt.in)
			assertKind(t, err, tt.kind)
			assertDetail(t, err, tt.detail)
		})
	}
	if len(f.store.orders) != 0 {
		t.Errorf("rejected checkouts stored %d orders", len(f.store.orders))
	}
}

func TestCheckout_UnavailableProduct(t *testing.T) {
	f := newFixture(t)
	p := f.store.products[f.product.ID]
	p.IsAvailable = false
	f.store.products[p.ID] = p

	_, err := f.app.Checkout(context.Background(), f.customer, CheckoutRequest{
		VariantID: &f.variant.ID, Size: "M", RedirectURL: "https://shop.example/done",
	})
	assertKind(t, err, ErrOutOfStock)
	assertDetail(t, err, detailProductOutOfStock)
}

func TestCheckout_GatewayFailureKeepsPendingOrder(t *testing.T) {
	f := newFixture(t)
	f.gateway.initErr = errors.Join(ErrGateway, errors.New("paystack: 503"))

	_, err := f.app.Checkout(context.Background(), f.customer, CheckoutRequest{
		VariantID: &f.variant.ID, Size: "M", RedirectURL: "https://shop.example/done",
	})
	assertKind(t, err, ErrGateway)

	if len(f.store.orders) != 1 {
		t.Fatalf("orders = %d, want the pending order kept", len(f.store.orders))
	}
	for _, o := range f.store.orders {
		if o.Status != OrderPending || o.AuthorizationURL != nil {
			t.Errorf("order = %+v", o)
		}
	}
}

func TestGetOrder_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})

	if _, err := f.app.GetOrder(ctx, f.customer, o.Ref); err != nil {
		t.Errorf("orderer: %v", err)
	}
	if _, err := f.app.GetOrder(ctx, f.staff, o.Ref); err != nil {
		t.Errorf("staff: %v", err)
	}
	_, err := f.app.GetOrder(ctx, f.owner, o.Ref)
	assertKind(t, err, ErrForbidden)
	_, err = f.app.GetOrder(ctx, f.customer, uuid.Must(uuid.NewV7()))
	assertKind(t, err, ErrNotFound)
}

func TestListOrders_ScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})
	f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeL.ID: 1})

	_, total, err := f.app.ListOrders(ctx, f.owner, 0, 10)
	if err != nil || total != 0 {
		t.Errorf("owner sees %d orders, err %v", total, err)
	}
	_, total, err = f.app.ListOrders(ctx, f.staff, 0, 10)
	if err != nil || total != 2 {
		t.Errorf("staff sees %d orders, err %v", total, err)
	}
	_, _, err = f.app.ListOrders(ctx, f.customer, 0, 500)
	assertKind(t, err, ErrInvalidData)
}

func TestOrderReceipt_OnlyForCompletedOrders(t *testing.T) {
	f := newFixture(t)
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})

	_, err := f.app.OrderReceipt(context.Background(), f.customer, o.Ref)
	assertKind(t, err, ErrInvalidData)
}

func TestDeleteOrder_StaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(SourceDirect, map[uuid.UUID]int{f.sizeM.ID: 1})

	assertKind(t, f.app.DeleteOrder(ctx, f.customer, o.Ref), ErrForbidden)
	if err := f.app.DeleteOrder(ctx, f.staff, o.Ref); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, ok := f.store.orders[o.Ref]; ok {
		t.Error("order still stored")
	}
}
