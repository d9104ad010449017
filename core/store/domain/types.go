package domain

import (
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of a use case. The zero value is anonymous.
type Actor struct {
	UserID       uuid.UUID
	Username     string
	Email        string
	IsStaff      bool
	IsBrandOwner bool
}

func (a Actor) Anonymous() bool { return a.UserID.IsNil() }

type (
	Category struct {
		ID        uuid.UUID
		Name      string
		CreatedAt time.Time
	}

	Color struct {
		ID   uuid.UUID
		Name string
		Code string
	}

	Brand struct {
		ID                uuid.UUID
		OwnerID           uuid.UUID
		OwnerEmail        string
		Name              string
		Slug              string
		Logo              *string
		CommissionPercent decimal.Decimal
		SubaccountCode    *string
		RecipientCode     *string
		CreatedAt         time.Time
	}

	Bank struct {
		ID   uuid.UUID
		Code string
		Name string
	}

	Account struct {
		ID            uuid.UUID
		BrandID       uuid.UUID
		BankID        uuid.UUID
		BankCode      string
		AcctNo        string
		AcctName       string
		RecipientCode  string
		SubaccountCode string
		InUse          bool
		CreatedAt      time.Time
	}
)

type (
	Product struct {
		ID          uuid.UUID
		BrandID     uuid.UUID
		OwnerID     uuid.UUID
		CategoryID  uuid.UUID
		Name        string
		Description *string
		Price       int64
		Quantity    int
		IsAvailable bool
		CreatedAt   time.Time

		Version int64
	}

	Variant struct {
		ID          uuid.UUID
		ProductID   uuid.UUID
		ColorID     uuid.UUID
		Quantity    int
		IsAvailable bool
	}

	Size struct {
		ID          uuid.UUID
		VariantID   uuid.UUID
		Value       string
		Quantity    int
		IsAvailable bool
	}

	Image struct {
		ID        uuid.UUID
		ProductID uuid.UUID
		VariantID *uuid.UUID
		URL       string
		CreatedAt time.Time
	}

	VariantDetail struct {
		Variant
		Color Color
		Sizes []Size
	}

	// ProductDetail is the single-product read model.
	ProductDetail struct {
		Product
		Brand       Brand
		Category    Category
		Images      []Image
		Variants    []VariantDetail
		Rating      float64
		ReviewCount int
	}

	Review struct {
		ID        uuid.UUID
		ProductID uuid.UUID
		UserID    uuid.UUID
		Stars     int
		Body      string
		CreatedAt time.Time
	}
)

func (p *Product) V() string {
	return strconv.FormatInt(p.Version, 10)
}

type (
	Cart struct {
		ID     uuid.UUID
		UserID uuid.UUID
		Items  []CartItem
	}

	CartItem struct {
		ID          uuid.UUID
		ProductID   uuid.UUID
		VariantID   uuid.UUID
		SizeID      uuid.UUID
		BrandID     uuid.UUID
		ProductName string
		SizeValue   string
		Quantity    int
		UnitPrice   int64
	}
)

func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

type (
	OrderStatus string
	OrderSource string
)

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"

	SourceDirect OrderSource = "direct"
	SourceCart   OrderSource = "cart"
)

type (
	Order struct {
		Ref              uuid.UUID
		UserID           uuid.UUID
		Email            string
		Status           OrderStatus
		Source           OrderSource
		Total            int64
		RedirectURL      string
		AuthorizationURL *string
		CreatedAt        time.Time
		CompletedAt      *time.Time
		Items            []OrderItem
	}

	OrderItem struct {
		ID          uuid.UUID
		ProductID   uuid.UUID
		VariantID   uuid.UUID
		SizeID      uuid.UUID
		BrandID     uuid.UUID
		ProductName string
		SizeValue   string
		Quantity    int
		UnitPrice   int64
		Fulfilled   bool
	}

	Transfer struct {
		ID        uuid.UUID
		Ref       uuid.UUID
		BrandID   uuid.UUID
		Amount    int64
		Paid      bool
		Code      *string
		CreatedAt time.Time
	}

	Message struct {
		ID           uuid.UUID
		BrandID      uuid.UUID
		UserID       uuid.UUID
		Status       MessageKind
		Body         string
		OrderItemIDs []uuid.UUID
		CreatedAt    time.Time
	}
)

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

const (
	ASC  CursorDirection = "asc"
	DESC CursorDirection = "desc"
)

type (
	CursorDirection string

	CursorPaginationToken struct {
		TTL       time.Time       `json:"ttl"`
		Direction CursorDirection `json:"direction"`
		Filter    ProductFilter   `json:"filter"`

		Pivot struct {
			CreatedAt time.Time `json:"created_at"`
			ID        uuid.UUID `json:"id"`
		} `json:"pivot"`
	}

	// ProductFilter narrows product listings. Nil fields do not filter.
	ProductFilter struct {
		CategoryID *uuid.UUID `json:"category,omitempty"`
		BrandID    *uuid.UUID `json:"brand,omitempty"`
		Available  *bool      `json:"available,omitempty"`
	}

	ProductPage struct {
		Products []Product
		Next     string
		Prev     string
	}
)
