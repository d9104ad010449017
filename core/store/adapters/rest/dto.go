package http

import (
	"math"
	"time"

	"storefront/core/store/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

type (
	categoryDTO struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	colorDTO struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
		Code string    `json:"code"`
	}

	brandDTO struct {
		ID                uuid.UUID       `json:"id"`
		Owner             uuid.UUID       `json:"owner"`
		Name              string          `json:"name"`
		Slug              string          `json:"slug"`
		Logo              *string         `json:"logo"`
		CommissionPercent decimal.Decimal `json:"commission_percent"`
		SubaccountCode    *string         `json:"subaccount_code"`
		RecipientCode     *string         `json:"recipient_code"`
		CreatedAt         time.Time       `json:"created_at"`
	}

	bankDTO struct {
		ID   uuid.UUID `json:"id"`
		Code string    `json:"code"`
		Name string    `json:"name"`
	}

	accountDTO struct {
		ID            uuid.UUID `json:"id"`
		Brand         uuid.UUID `json:"brand"`
		Bank          uuid.UUID `json:"bank"`
		BankCode      string    `json:"bank_code"`
		AcctNo        string    `json:"acct_no"`
		AcctName      string    `json:"acct_name"`
		RecipientCode string    `json:"recipient_code"`
		InUse         bool      `json:"in_use"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// productListDTO is the list view; description and quantity are detail-only.
	productListDTO struct {
		ID          uuid.UUID `json:"id"`
		Brand       uuid.UUID `json:"brand"`
		Category    uuid.UUID `json:"category"`
		Name        string    `json:"name"`
		Price       int64     `json:"price"`
		IsAvailable bool      `json:"is_available"`
		CreatedAt   time.Time `json:"created_at"`
	}

	productDTO struct {
		ID          uuid.UUID `json:"id"`
		Brand       uuid.UUID `json:"brand"`
		Category    uuid.UUID `json:"category"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		Price       int64     `json:"price"`
		Quantity    int       `json:"quantity"`
		IsAvailable bool      `json:"is_available"`
		CreatedAt   time.Time `json:"created_at"`
	}

	productDetailDTO struct {
		productDTO
		BrandDetail    brandDTO           `json:"brand_detail"`
		CategoryDetail categoryDTO        `json:"category_detail"`
		Images         []imageDTO         `json:"images"`
		Variants       []variantDetailDTO `json:"variants"`
		Rating         float64            `json:"rating"`
		ReviewCount    int                `json:"review_count"`
	}

	variantDTO struct {
		ID          uuid.UUID `json:"id"`
		Product     uuid.UUID `json:"product"`
		Color       uuid.UUID `json:"color"`
		Quantity    int       `json:"quantity"`
		IsAvailable bool      `json:"is_available"`
	}

	variantDetailDTO struct {
		variantDTO
		ColorDetail colorDTO  `json:"color_detail"`
		Sizes       []sizeDTO `json:"sizes"`
	}

	sizeDTO struct {
		ID          uuid.UUID `json:"id"`
		Variant     uuid.UUID `json:"variant"`
		Value       string    `json:"value"`
		Quantity    int       `json:"quantity"`
		IsAvailable bool      `json:"is_available"`
	}

	imageDTO struct {
		ID        uuid.UUID  `json:"id"`
		Product   uuid.UUID  `json:"product"`
		Variant   *uuid.UUID `json:"variant"`
		URL       string     `json:"url"`
		CreatedAt time.Time  `json:"created_at"`
	}

	reviewDTO struct {
		ID        uuid.UUID `json:"id"`
		Product   uuid.UUID `json:"product"`
		User      uuid.UUID `json:"user"`
		Stars     int       `json:"stars"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"created_at"`
	}

	cartItemDTO struct {
		ID          uuid.UUID `json:"id"`
		Product     uuid.UUID `json:"product"`
		Variant     uuid.UUID `json:"product_variant"`
		Size        uuid.UUID `json:"size"`
		SizeValue   string    `json:"size_value"`
		ProductName string    `json:"product_name"`
		Quantity    int       `json:"quantity"`
		UnitPrice   int64     `json:"unit_price"`
	}

	cartDTO struct {
		ID    uuid.UUID     `json:"id"`
		User  uuid.UUID     `json:"user"`
		Items []cartItemDTO `json:"items"`
		Total int64         `json:"total"`
	}

	orderItemDTO struct {
		ID          uuid.UUID `json:"id"`
		Product     uuid.UUID `json:"product"`
		Variant     uuid.UUID `json:"product_variant"`
		Size        uuid.UUID `json:"size"`
		Brand       uuid.UUID `json:"brand"`
		ProductName string    `json:"product_name"`
		SizeValue   string    `json:"size_value"`
		Quantity    int       `json:"quantity"`
		UnitPrice   int64     `json:"unit_price"`
		Fulfilled   bool      `json:"fulfilled"`
	}

	orderDTO struct {
		Ref              uuid.UUID      `json:"ref"`
		User             uuid.UUID      `json:"user"`
		Status           string         `json:"status"`
		Source           string         `json:"source"`
		Total            int64          `json:"total"`
		RedirectURL      string         `json:"redirect_url"`
		AuthorizationURL *string        `json:"authorization_url"`
		CreatedAt        time.Time      `json:"created_at"`
		CompletedAt      *time.Time     `json:"completed_at"`
		Items            []orderItemDTO `json:"items"`
	}

	checkoutDTO struct {
		Reference        uuid.UUID `json:"reference"`
		AuthorizationURL string    `json:"authorization_url"`
		AccessCode       string    `json:"access_code"`
	}

	verificationDTO struct {
		Reference       string     `json:"reference"`
		Status          string     `json:"status"`
		Amount          int64      `json:"amount"`
		Currency        string     `json:"currency"`
		GatewayResponse string     `json:"gateway_response"`
		PaidAt          *time.Time `json:"paid_at"`
	}

	transferDTO struct {
		ID        uuid.UUID `json:"id"`
		Ref       uuid.UUID `json:"ref"`
		Brand     uuid.UUID `json:"brand"`
		Amount    int64     `json:"amount"`
		Paid      bool      `json:"paid"`
		Code      *string   `json:"code"`
		CreatedAt time.Time `json:"created_at"`
	}

	payoutDTO struct {
		Detail    string           `json:"detail"`
		Transfers int              `json:"transfers"`
		Amount    int64            `json:"amount"`
		Currency  string           `json:"currency"`
		Source    string           `json:"source"`
		Results   []transferResult `json:"results"`
	}

	transferResult struct {
		Reference    string `json:"reference"`
		Recipient    string `json:"recipient"`
		Amount       int64  `json:"amount"`
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}

	messageDTO struct {
		ID         uuid.UUID   `json:"id"`
		Brand      uuid.UUID   `json:"brand"`
		User       uuid.UUID   `json:"user"`
		Status     string      `json:"status"`
		Body       string      `json:"body"`
		OrderItems []uuid.UUID `json:"order_items"`
		CreatedAt  time.Time   `json:"created_at"`
	}
)

// mapSlice converts each element with fn, never returning nil so empty lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func mapCategory(c domain.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func mapColor(c domain.Color) colorDTO {
	return colorDTO{ID: c.ID, Name: c.Name, Code: c.Code}
}

func mapBrand(b domain.Brand) brandDTO {
	return brandDTO{
		ID:                b.ID,
		Owner:             b.OwnerID,
		Name:              b.Name,
		Slug:              b.Slug,
		Logo:              b.Logo,
		CommissionPercent: b.CommissionPercent,
		SubaccountCode:    b.SubaccountCode,
		RecipientCode:     b.RecipientCode,
		CreatedAt:         b.CreatedAt,
	}
}

func mapBank(b domain.Bank) bankDTO {
	return bankDTO{ID: b.ID, Code: b.Code, Name: b.Name}
}

func mapAccount(a domain.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		Brand:         a.BrandID,
		Bank:          a.BankID,
		BankCode:      a.BankCode,
		AcctNo:        a.AcctNo,
		AcctName:      a.AcctName,
		RecipientCode: a.RecipientCode,
		InUse:         a.InUse,
		CreatedAt:     a.CreatedAt,
	}
}

func mapProductListItem(p domain.Product) productListDTO {
	return productListDTO{
		ID:          p.ID,
		Brand:       p.BrandID,
		Category:    p.CategoryID,
		Name:        p.Name,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		CreatedAt:   p.CreatedAt,
	}
}

func mapProduct(p domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Brand:       p.BrandID,
		Category:    p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		IsAvailable: p.IsAvailable,
		CreatedAt:   p.CreatedAt,
	}
}

func mapProductDetail(d domain.ProductDetail) productDetailDTO {
	return productDetailDTO{
		productDTO:     mapProduct(d.Product),
		BrandDetail:    mapBrand(d.Brand),
		CategoryDetail: mapCategory(d.Category),
		Images:         mapSlice(d.Images, mapImage),
		Variants:       mapSlice(d.Variants, mapVariantDetail),
		Rating:         math.Round(d.Rating*10) / 10,
		ReviewCount:    d.ReviewCount,
	}
}

func mapVariant(v domain.Variant) variantDTO {
	return variantDTO{
		ID:          v.ID,
		Product:     v.ProductID,
		Color:       v.ColorID,
		Quantity:    v.Quantity,
		IsAvailable: v.IsAvailable,
	}
}

func mapVariantDetail(v domain.VariantDetail) variantDetailDTO {
	return variantDetailDTO{
		variantDTO:  mapVariant(v.Variant),
		ColorDetail: mapColor(v.Color),
		Sizes:       mapSlice(v.Sizes, mapSize),
	}
}

func mapSize(s domain.Size) sizeDTO {
	return sizeDTO{
		ID:          s.ID,
		Variant:     s.VariantID,
		Value:       s.Value,
		Quantity:    s.Quantity,
		IsAvailable: s.IsAvailable,
	}
}

func mapImage(i domain.Image) imageDTO {
	return imageDTO{ID: i.ID, Product: i.ProductID, Variant: i.VariantID, URL: i.URL, CreatedAt: i.CreatedAt}
}

func mapReview(r domain.Review) reviewDTO {
	return reviewDTO{
		ID:        r.ID,
		Product:   r.ProductID,
		User:      r.UserID,
		Stars:     r.Stars,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

func mapCart(c *domain.Cart) cartDTO {
	return cartDTO{
		ID:   c.ID,
		User: c.UserID,
		Items: mapSlice(c.Items, func(it domain.CartItem) cartItemDTO {
			return cartItemDTO{
				ID:          it.ID,
				Product:     it.ProductID,
				Variant:     it.VariantID,
				Size:        it.SizeID,
				SizeValue:   it.SizeValue,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			}
		}),
		Total: c.Total(),
	}
}

func mapOrder(o domain.Order) orderDTO {
	return orderDTO{
		Ref:              o.Ref,
		User:             o.UserID,
		Status:           string(o.Status),
		Source:           string(o.Source),
		Total:            o.Total,
		RedirectURL:      o.RedirectURL,
		AuthorizationURL: o.AuthorizationURL,
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
		Items: mapSlice(o.Items, func(it domain.OrderItem) orderItemDTO {
			return orderItemDTO{
				ID:          it.ID,
				Product:     it.ProductID,
				Variant:     it.VariantID,
				Size:        it.SizeID,
				Brand:       it.BrandID,
				ProductName: it.ProductName,
				SizeValue:   it.SizeValue,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Fulfilled:   it.Fulfilled,
			}
		}),
	}
}

func mapTransfer(t domain.Transfer) transferDTO {
	return transferDTO{
		ID:        t.ID,
		Ref:       t.Ref,
		Brand:     t.BrandID,
		Amount:    t.Amount,
		Paid:      t.Paid,
		Code:      t.Code,
		CreatedAt: t.CreatedAt,
	}
}

func mapPayout(res *domain.PayoutResult) payoutDTO {
	out := payoutDTO{
		Detail:    "Transfers queued",
		Transfers: res.Transfers,
		Amount:    res.Amount,
		Results:   []transferResult{},
	}
	if res.Batch != nil {
		out.Currency = res.Batch.Currency
		out.Source = res.Batch.Source
		out.Results = mapSlice(res.Batch.Transfers, func(t domain.TransferResult) transferResult {
			return transferResult(t)
		})
	}
	return out
}

func mapMessage(m domain.Message) messageDTO {
	items := m.OrderItemIDs
	if items == nil {
		items = []uuid.UUID{}
	}
	return messageDTO{
		ID:         m.ID,
		Brand:      m.BrandID,
		User:       m.UserID,
		Status:     string(m.Status),
		Body:       m.Body,
		OrderItems: items,
		CreatedAt:  m.CreatedAt,
	}
}
