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
	"io"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Store is the full persistence port. Implementations route reads to replicas
// and writes to the primary; every method runs in its own transaction unless
// documented otherwise.
type Store interface {
	CatalogStore
	BrandStore
	AccountStore
	ProductStore
	ReviewStore
	CartStore
	OrderStore
	TransferStore
	MessageStore
	WebhookStore
}

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, c Category) (*Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListColors(ctx context.Context) ([]Color, error)
	CreateColor(ctx context.Context, c Color) (*Color, error)
	DeleteColor(ctx context.Context, id uuid.UUID) error
}

type BrandStore interface {
	ListBrands(ctx context.Context, limit, offset int) ([]Brand, int, error)
	GetBrand(ctx context.Context, id uuid.UUID) (*Brand, error)
	// CreateBrand inserts the brand and flags its owner as a brand owner.
	CreateBrand(ctx context.Context, b Brand) (*Brand, error)
	// UpdateBrand writes name, slug, logo and commission.
	UpdateBrand(ctx context.Context, b Brand) (*Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

type AccountStore interface {
	ListBanks(ctx context.Context) ([]Bank, error)
	GetBank(ctx context.Context, id uuid.UUID) (*Bank, error)
	CreateBank(ctx context.Context, b Bank) (*Bank, error)
	DeleteBank(ctx context.Context, id uuid.UUID) error
	// UpsertBanks inserts banks by code and renames existing ones. Returns the number written.
	UpsertBanks(ctx context.Context, banks []Bank) (int, error)

	// ListAccounts lists every account, or only those of brands owned by ownerID.
	ListAccounts(ctx context.Context, ownerID *uuid.UUID) ([]Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	// SaveAccount inserts or updates a in one transaction. When a.InUse is set the
	// brand's other accounts stop being in use. SaveAccount and DeleteAccount
	// leave the brand's recipient and subaccount codes equal to those of its
	// account in use, or empty when there is none.
	SaveAccount(ctx context.Context, a Account) (*Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type ProductStore interface {
	// ListProducts returns a page ordered by (created_at DESC, id DESC) and the total count.
	ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]Product, int, error)
	ListProductsFirstPage(ctx context.Context, f ProductFilter, limit int) ([]Product, error)
	// ListProductsByCursor pages away from the pivot; results keep the (created_at DESC, id DESC) order.
	ListProductsByCursor(ctx context.Context, f ProductFilter, pivotCreatedAt time.Time, pivotID uuid.UUID, dir CursorDirection, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductDetail(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	CreateProduct(ctx context.Context, p Product) (*Product, error)
	// UpdateProduct writes p when the stored version equals p.Version and bumps it.
	// Returns ErrPrecondition on a version mismatch.
	UpdateProduct(ctx context.Context, p Product) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, version int64) error

	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	CreateVariant(ctx context.Context, v Variant) (*Variant, error)
	UpdateVariant(ctx context.Context, v Variant) (*Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error

	GetSize(ctx context.Context, id uuid.UUID) (*Size, error)
	GetSizeByValue(ctx context.Context, variantID uuid.UUID, value string) (*Size, error)
	CreateSize(ctx context.Context, s Size) (*Size, error)
	UpdateSize(ctx context.Context, s Size) (*Size, error)
	DeleteSize(ctx context.Context, id uuid.UUID) error

	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	CreateImage(ctx context.Context, img Image) (*Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error

	IsCustomer(ctx context.Context, productID, userID uuid.UUID) (bool, error)
}

type ReviewStore interface {
	ListReviews(ctx context.Context, productID uuid.UUID) ([]Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*Review, error)
	CreateReview(ctx context.Context, r Review) (*Review, error)
	UpdateReview(ctx context.Context, r Review) (*Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type CartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// AddCartItem inserts the item, or increments the quantity of the existing (variant, size) item.
	AddCartItem(ctx context.Context, cartID uuid.UUID, item CartItem) error
	SetCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	RemoveCartItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type OrderStore interface {
	// CreateOrder inserts the order and its items in one transaction.
	CreateOrder(ctx context.Context, o Order) (*Order, error)
	SetAuthorizationURL(ctx context.Context, ref uuid.UUID, url string) error
	GetOrder(ctx context.Context, ref uuid.UUID) (*Order, error)
	// ListOrders lists every order, or only those of userID.
	ListOrders(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]Order, int, error)
	DeleteOrder(ctx context.Context, ref uuid.UUID) error
}

type TransferStore interface {
	ListTransfers(ctx context.Context, limit, offset int) ([]Transfer, int, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*Transfer, error)
	DeleteTransfer(ctx context.Context, id uuid.UUID) error
	UnpaidTransfers(ctx context.Context) ([]Transfer, error)
}

type MessageStore interface {
	// ListMessages lists every message, or only those of brandID.
	ListMessages(ctx context.Context, brandID *uuid.UUID, limit, offset int) ([]Message, int, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

type WebhookStore interface {
	// WithWebhookTx runs fn in one transaction. Row locks taken through tx are held until it returns.
	WithWebhookTx(ctx context.Context, fn func(ctx context.Context, tx WebhookTx) error) error
}

// StockRow is a locked quantity row of the product, variant or size level.
type StockRow struct {
	ID          uuid.UUID
	Quantity    int
	IsAvailable bool
}

// Stock holds the locked rows touched by an order, keyed by id.
type Stock struct {
	Products map[uuid.UUID]*StockRow
	Variants map[uuid.UUID]*StockRow
	Sizes    map[uuid.UUID]*StockRow
}

// WebhookTx is scoped to one WithWebhookTx call and must not escape it.
type WebhookTx interface {
	// LockOrder locks the order row FOR UPDATE and loads its items.
	LockOrder(ctx context.Context, ref uuid.UUID) (*Order, error)
	// LockStock locks every product, variant and size row referenced by items,
	// parents first and each level in id order.
	LockStock(ctx context.Context, items []OrderItem) (*Stock, error)
	SaveStock(ctx context.Context, s *Stock) error
	MarkItemUnfulfilled(ctx context.Context, itemID uuid.UUID) error
	AddCustomer(ctx context.Context, productID, userID uuid.UUID) error
	BrandsByIDs(ctx context.Context, ids []uuid.UUID) ([]Brand, error)
	CreateTransfer(ctx context.Context, t Transfer) error
	CreateMessage(ctx context.Context, m Message) error
	CompleteOrder(ctx context.Context, ref uuid.UUID, at time.Time) error
	ClearUserCart(ctx context.Context, userID uuid.UUID) error

	LockTransfer(ctx context.Context, ref uuid.UUID) (*Transfer, error)
	SaveTransfer(ctx context.Context, t Transfer) error
}

// --- outbound integrations ---

type (
	Recipient struct {
		Name     string
		AcctNo   string
		BankCode string
		Currency string
	}

	Subaccount struct {
		BusinessName     string
		BankCode         string
		AcctNo           string
		PercentageCharge decimal.Decimal
	}

	TransactionInit struct {
		Email       string
		Amount      int64
		Currency    string
		Reference   string
		CallbackURL string
		Channels    []string
		Subaccount  string
	}

	TransactionSession struct {
		AuthorizationURL string
		AccessCode       string
		Reference        string
	}

	TransactionStatus struct {
		Reference       string
		Status          string
		Amount          int64
		Currency        string
		GatewayResponse string
		PaidAt          *time.Time
	}

	TransferInstruction struct {
		Amount    int64
		Recipient string
		Reference string
		Reason    string
	}

	TransferResult struct {
		Reference    string
		Recipient    string
		Amount       int64
		TransferCode string
		Status       string
	}

	TransferBatch struct {
		Source    string
		Currency  string
		Transfers []TransferResult
	}
)

// Gateway is the payment provider.
type Gateway interface {
	// ResolveAccount returns the account holder's name.
	ResolveAccount(ctx context.Context, acctNo, bankCode string) (string, error)
	CreateRecipient(ctx context.Context, r Recipient) (string, error)
	CreateSubaccount(ctx context.Context, s Subaccount) (string, error)
	InitializeTransaction(ctx context.Context, t TransactionInit) (*TransactionSession, error)
	VerifyTransaction(ctx context.Context, reference string) (*TransactionStatus, error)
	ListBanks(ctx context.Context) ([]Bank, error)
	BulkTransfer(ctx context.Context, currency, source string, transfers []TransferInstruction) (*TransferBatch, error)
}

// SignatureVerifier authenticates raw webhook bodies.
type SignatureVerifier interface {
	Verify(body []byte, signature string) error
}

type Notification struct {
	To      string
	Subject string
	Body    string
}

// Notifier queues a notification. Delivery is asynchronous.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Event struct {
	Type       string
	Key        string
	OccurredAt time.Time
	Payload    any
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

type MediaStore interface {
	// Upload stores the file and returns its public URL.
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ReceiptRenderer interface {
	Render(ctx context.Context, o *Order) ([]byte, error)
}

// Cache is a best-effort read cache. Errors are swallowed by implementations.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
	Invalidate(ctx context.Context, keys ...string)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// TaskRunner runs fn while holding a cluster-wide lock named name.
// Returns ErrConflict when the lock is held elsewhere.
type TaskRunner interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type CursorSigner interface {
	// Sign returns signed cursor token = base64url(payload) + "." + base64url(algo(payloadB64))
	Sign(payload []byte) (string, error)
	// Verify returns the original payload after validating signature
	Verify(token string) ([]byte, error)
}
