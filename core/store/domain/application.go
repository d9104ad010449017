package domain

import (
	"context"
	"io"
	"time"

	"storefront/modules/clock"
	"storefront/modules/telemetry"

	"github.com/gofrs/uuid/v5"
)

const (
	Currency = "NGN"

	defaultCursorTTL = 24 * time.Hour
	maxPageSize      = 100
)

type (
	Application struct {
		store     Store
		gateway   Gateway
		signature SignatureVerifier
		notifier  Notifier
		events    EventPublisher
		media     MediaStore
		receipts  ReceiptRenderer
		cache     Cache
		locks     TaskRunner
		signer    CursorSigner
		clock     clock.Clock
		metrics   *telemetry.StoreMetrics

		cursorTTL time.Duration
	}

	// Deps lists the adapters behind the store ports. Nil optional ports fall back to no-ops.
	Deps struct {
		Store     Store
		Gateway   Gateway
		Signature SignatureVerifier
		Notifier  Notifier
		Events    EventPublisher
		Media     MediaStore
		Receipts  ReceiptRenderer
		Cache     Cache
		Locks     TaskRunner
		Signer    CursorSigner
		Clock     clock.Clock
		Metrics   *telemetry.StoreMetrics
	}
)

func NewApp(d Deps) *Application {
	app := &Application{
		store:     d.Store,
		gateway:   d.Gateway,
		signature: d.Signature,
		notifier:  d.Notifier,
		events:    d.Events,
		media:     d.Media,
		receipts:  d.Receipts,
		cache:     d.Cache,
		locks:     d.Locks,
		signer:    d.Signer,
		clock:     d.Clock,
		metrics:   d.Metrics,
		cursorTTL: defaultCursorTTL,
	}
	if app.notifier == nil {
		app.notifier = NoopNotifier{}
	}
	if app.events == nil {
		app.events = NoopPublisher{}
	}
	if app.cache == nil {
		app.cache = NoopCache{}
	}
	if app.media == nil {
		app.media = NoopMedia{}
	}
	if app.locks == nil {
		app.locks = LocalRunner{}
	}
	if app.clock == nil {
		app.clock = clock.RealClockProvider()
	}
	return app
}

func (app *Application) newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func (app *Application) now() time.Time {
	return app.clock.Now().UTC()
}

func requireUser(a Actor) error {
	if a.Anonymous() {
		return ErrUnauthenticated
	}
	return nil
}

func requireStaff(a Actor) error {
	if a.Anonymous() {
		return ErrUnauthenticated
	}
	if !a.IsStaff {
		return ErrForbidden
	}
	return nil
}

// requireOwnerOrStaff passes the owner, and staff when allowStaff is set.
func requireOwnerOrStaff(a Actor, ownerID uuid.UUID, allowStaff bool) error {
	if a.Anonymous() {
		return ErrUnauthenticated
	}
	if a.UserID == ownerID || (allowStaff && a.IsStaff) {
		return nil
	}
	return ErrForbidden
}

func validatePage(page, pageSize int) (limit, offset int, err error) {
	if page < 0 || pageSize <= 0 || pageSize > maxPageSize {
		return 0, 0, ErrInvalidData
	}
	return pageSize, page * pageSize, nil
}

// --- no-op adapters ---

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notification) error { return nil }

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

type NoopCache struct{}

func (NoopCache) Get(context.Context, string, any) bool    { return false }
func (NoopCache) Set(context.Context, string, any)         {}
func (NoopCache) Invalidate(context.Context, ...string)    {}
func (NoopCache) InvalidatePrefix(context.Context, string) {}

type NoopMedia struct{}

func (NoopMedia) Upload(context.Context, string, io.Reader) (string, error) {
	return "", ErrUnhandled
}

// LocalRunner runs tasks without a distributed lock. Only suitable for single-node setups.
type LocalRunner struct{}

func (LocalRunner) Run(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
