package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/modules/clock"
	"storefront/modules/hmac"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

const webhookKey = "sk_test_webhook"

type fakeGateway struct {
	mu sync.Mutex

	resolveErr error
	initErr    error
	banks      []Bank
	inits      []TransactionInit
	bulk       [][]TransferInstruction
}

func (g *fakeGateway) ResolveAccount(_ context.Context, acctNo, _ string) (string, error) {
	if g.resolveErr != nil {
		return "", g.resolveErr
	}
	return "ADA LOVELACE " + acctNo[len(acctNo)-2:], nil
}

// Recipient and subaccount codes end with the last four account digits.
func (g *fakeGateway) CreateRecipient(_ context.Context, r Recipient) (string, error) {
	return "RCP_" + r.AcctNo[len(r.AcctNo)-4:], nil
}

func (g *fakeGateway) CreateSubaccount(_ context.Context, s Subaccount) (string, error) {
	return "ACCT_" + s.AcctNo[len(s.AcctNo)-4:], nil
}

func (g *fakeGateway) InitializeTransaction(_ context.Context, t TransactionInit) (*TransactionSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inits = append(g.inits, t)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &TransactionSession{
		AuthorizationURL: "https://checkout.example/" + t.Reference,
		AccessCode:       "access-" + t.Reference[:8],
		Reference:        t.Reference,
	}, nil
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, ref string) (*TransactionStatus, error) {
	return &TransactionStatus{Reference: ref, Status: "success", Currency: Currency}, nil
}

func (g *fakeGateway) ListBanks(context.Context) ([]Bank, error) {
	return g.banks, nil
}

func (g *fakeGateway) BulkTransfer(_ context.Context, currency, source string, ts []TransferInstruction) (*TransferBatch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bulk = append(g.bulk, ts)
	batch := &TransferBatch{Source: source, Currency: currency}
	for _, t := range ts {
		batch.Transfers = append(batch.Transfers, TransferResult{
			Reference: t.Reference, Recipient: t.Recipient, Amount: t.Amount, Status: "pending",
		})
	}
	return batch, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// mapCache stores JSON so cached reads go through the same encoding as Redis.
type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *mapCache) Set(_ context.Context, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, err := json.Marshal(v); err == nil {
		c.m[key] = b
	}
}

func (c *mapCache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
}

func (c *mapCache) InvalidatePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok
}

type busyRunner struct{}

func (busyRunner) Run(context.Context, string, func(context.Context) error) error {
	return ErrConflict
}

type fixture struct {
	app      *Application
	store    *memStore
	gateway  *fakeGateway
	notifier *recordingNotifier
	events   *recordingPublisher
	cache    *mapCache
	verifier *hmac.SHA512Verifier
	now      time.Time

	owner    Actor
	customer Actor
	staff    Actor

	category Category
	color    Color
	brand    Brand
	product  Product
	variant  Variant
	sizeM    Size
	sizeL    Size
}

func newActor(name string) Actor {
	return Actor{UserID: uuid.Must(uuid.NewV7()), Username: name, Email: name + "@example.com"}
}

// newFixture seeds one brand selling one product with a variant in sizes M and L.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	verifier, err := hmac.NewSHA512Verifier([]byte(webhookKey))
	if err != nil {
		t.Fatalf("NewSHA512Verifier: %v", err)
	}
	signer, err := hmac.NewHMACSigner([]byte("cursor-key"))
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	f := &fixture{
		store:    newMemStore(),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
		cache:    newMapCache(),
		verifier: verifier,
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		owner:    newActor("owner"),
		customer: newActor("customer"),
		staff:    newActor("staff"),
	}
	f.owner.IsBrandOwner = true
	f.staff.IsStaff = true

	f.app = NewApp(Deps{
		Store:     f.store,
		Gateway:   f.gateway,
		Signature: verifier,
		Notifier:  f.notifier,
		Events:    f.events,
		Cache:     f.cache,
		Signer:    signer,
		Clock:     clock.Func(func() time.Time { return f.now }),
	})

	id := func() uuid.UUID { return uuid.Must(uuid.NewV7()) }
	f.category = Category{ID: id(), Name: "Shirts", CreatedAt: f.now}
	f.color = Color{ID: id(), Name: "Black", Code: "000000"}
	f.brand = Brand{
		ID:                id(),
		OwnerID:           f.owner.UserID,
		OwnerEmail:        f.owner.Email,
		Name:              "Acme",
		Slug:              "acme",
		CommissionPercent: decimal.NewFromInt(10),
		SubaccountCode:    ptr("ACCT_acme"),
		RecipientCode:     ptr("RCP_acme"),
		CreatedAt:         f.now,
	}
	f.product = Product{
		ID:          id(),
		BrandID:     f.brand.ID,
		OwnerID:     f.owner.UserID,
		CategoryID:  f.category.ID,
		Name:        "Tee",
		Price:       5000,
		Quantity:    10,
		IsAvailable: true,
		CreatedAt:   f.now,
		Version:     1,
	}
	f.variant = Variant{ID: id(), ProductID: f.product.ID, ColorID: f.color.ID, Quantity: 5, IsAvailable: true}
	f.sizeM = Size{ID: id(), VariantID: f.variant.ID, Value: "M", Quantity: 3, IsAvailable: true}
	f.sizeL = Size{ID: id(), VariantID: f.variant.ID, Value: "L", Quantity: 1, IsAvailable: true}

	s := f.store
	s.categories[f.category.ID] = f.category
	s.colors[f.color.ID] = f.color
	s.brands[f.brand.ID] = f.brand
	s.products[f.product.ID] = f.product
	s.variants[f.variant.ID] = f.variant
	s.sizes[f.sizeM.ID] = f.sizeM
	s.sizes[f.sizeL.ID] = f.sizeL
	return f
}

// pendingOrder stores a pending order for the customer with one item per size.
func (f *fixture) pendingOrder(source OrderSource, qty map[uuid.UUID]int) Order {
	o := Order{
		Ref:         uuid.Must(uuid.NewV7()),
		UserID:      f.customer.UserID,
		Email:       f.customer.Email,
		Status:      OrderPending,
		Source:      source,
		RedirectURL: "https://shop.example/done",
		CreatedAt:   f.now,
	}
	for _, sz := range []Size{f.sizeM, f.sizeL} {
		n, ok := qty[sz.ID]
		if !ok {
			continue
		}
		it := OrderItem{
			ID:          uuid.Must(uuid.NewV7()),
			ProductID:   f.product.ID,
			VariantID:   f.variant.ID,
			SizeID:      sz.ID,
			BrandID:     f.brand.ID,
			ProductName: f.product.Name,
			SizeValue:   sz.Value,
			Quantity:    n,
			UnitPrice:   f.product.Price,
			Fulfilled:   true,
		}
		o.Items = append(o.Items, it)
		o.Total += it.Subtotal()
	}
	f.store.orders[o.Ref] = o
	return o
}

func (f *fixture) webhook(t *testing.T, event string, data WebhookData) (WebhookOutcome, error) {
	t.Helper()
	body, err := json.Marshal(WebhookEvent{Event: event, Data: data})
	if err != nil {
		t.Fatalf("marshal webhook: %v", err)
	}
	return f.app.HandleWebhook(context.Background(), body, f.verifier.Sign(body))
}

func assertKind(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func assertDetail(t *testing.T, err error, want string) {
	t.Helper()
	got, _, ok := Detail(err)
	if !ok || got != want {
		t.Fatalf("detail = %q (ok=%v), want %q", got, ok, want)
	}
}
