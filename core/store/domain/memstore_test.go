package domain

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// memStore is an in-memory Store for use case tests.
type memStore struct {
	mu sync.Mutex

	categories map[uuid.UUID]Category
	colors     map[uuid.UUID]Color
	brands     map[uuid.UUID]Brand
	banks      map[uuid.UUID]Bank
	accounts   map[uuid.UUID]Account
	products   map[uuid.UUID]Product
	deleted    map[uuid.UUID]bool
	variants   map[uuid.UUID]Variant
	sizes      map[uuid.UUID]Size
	images     map[uuid.UUID]Image
	reviews    map[uuid.UUID]Review
	customers  map[[2]uuid.UUID]bool
	carts      map[uuid.UUID]*Cart // by user id
	orders     map[uuid.UUID]Order
	transfers  map[uuid.UUID]Transfer
	messages   map[uuid.UUID]Message
	flagged    map[uuid.UUID]bool // brand owners

	txCalls int
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[uuid.UUID]Category{},
		colors:     map[uuid.UUID]Color{},
		brands:     map[uuid.UUID]Brand{},
		banks:      map[uuid.UUID]Bank{},
		accounts:   map[uuid.UUID]Account{},
		products:   map[uuid.UUID]Product{},
		deleted:    map[uuid.UUID]bool{},
		variants:   map[uuid.UUID]Variant{},
		sizes:      map[uuid.UUID]Size{},
		images:     map[uuid.UUID]Image{},
		reviews:    map[uuid.UUID]Review{},
		customers:  map[[2]uuid.UUID]bool{},
		carts:      map[uuid.UUID]*Cart{},
		orders:     map[uuid.UUID]Order{},
		transfers:  map[uuid.UUID]Transfer{},
		messages:   map[uuid.UUID]Message{},
		flagged:    map[uuid.UUID]bool{},
	}
}

var _ Store = (*memStore)(nil)

func ptr[T any](v T) *T { return &v }

func get[T any](m map[uuid.UUID]T, id uuid.UUID) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func del[T any](m map[uuid.UUID]T, id uuid.UUID) error {
	if _, ok := m[id]; !ok {
		return ErrNotFound
	}
	delete(m, id)
	return nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

// --- catalog ---

func (s *memStore) ListCategories(context.Context) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetCategory(_ context.Context, id uuid.UUID) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.categories, id)
}

func (s *memStore) CreateCategory(_ context.Context, c Category) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.categories {
		if e.Name == c.Name {
			return nil, ErrDuplicate
		}
	}
	s.categories[c.ID] = c
	return &c, nil
}

func (s *memStore) RenameCategory(_ context.Context, id uuid.UUID, name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Name = name
	s.categories[id] = c
	return &c, nil
}

func (s *memStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.categories, id)
}

func (s *memStore) ListColors(context.Context) ([]Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Color, 0, len(s.colors))
	for _, c := range s.colors {
		out = append(out, c)
	}
	return out, nil
}

func (s *memStore) CreateColor(_ context.Context, c Color) (*Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors[c.ID] = c
	return &c, nil
}

func (s *memStore) DeleteColor(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.colors, id)
}

// --- brands ---

func (s *memStore) ListBrands(_ context.Context, limit, offset int) ([]Brand, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]Brand, 0, len(s.brands))
	for _, b := range s.brands {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}

func (s *memStore) GetBrand(_ context.Context, id uuid.UUID) (*Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.brands, id)
}

func (s *memStore) CreateBrand(_ context.Context, b Brand) (*Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.brands {
		if e.Name == b.Name || e.Slug == b.Slug {
			return nil, ErrDuplicate
		}
	}
	s.brands[b.ID] = b
	s.flagged[b.OwnerID] = true
	return &b, nil
}

func (s *memStore) UpdateBrand(_ context.Context, b Brand) (*Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[b.ID]; !ok {
		return nil, ErrNotFound
	}
	s.brands[b.ID] = b
	return &b, nil
}

func (s *memStore) DeleteBrand(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.brands, id)
}

// --- banks and accounts ---

func (s *memStore) ListBanks(context.Context) ([]Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bank, 0, len(s.banks))
	for _, b := range s.banks {
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) GetBank(_ context.Context, id uuid.UUID) (*Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.banks, id)
}

func (s *memStore) CreateBank(_ context.Context, b Bank) (*Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[b.ID] = b
	return &b, nil
}

func (s *memStore) DeleteBank(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.banks, id)
}

func (s *memStore) UpsertBanks(_ context.Context, banks []Bank) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range banks {
		replaced := false
		for id, e := range s.banks {
			if e.Code == b.Code {
				e.Name = b.Name
				s.banks[id] = e
				replaced = true
			}
		}
		if !replaced {
			s.banks[b.ID] = b
		}
	}
	return len(banks), nil
}

func (s *memStore) ListAccounts(_ context.Context, ownerID *uuid.UUID) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Account
	for _, a := range s.accounts {
		if ownerID != nil && s.brands[a.BrandID].OwnerID != *ownerID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) GetAccount(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.accounts, id)
}

func (s *memStore) SaveAccount(_ context.Context, a Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.InUse {
		for id, other := range s.accounts {
			if other.BrandID == a.BrandID && id != a.ID {
				other.InUse = false
				s.accounts[id] = other
			}
		}
	}
	s.accounts[a.ID] = a
	s.syncBrandCodes(a.BrandID)
	return &a, nil
}

func (s *memStore) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	s.syncBrandCodes(a.BrandID)
	return nil
}

func (s *memStore) syncBrandCodes(brandID uuid.UUID) {
	b := s.brands[brandID]
	b.RecipientCode, b.SubaccountCode = nil, nil
	for _, a := range s.accounts {
		if a.BrandID == brandID && a.InUse {
			b.RecipientCode = ptr(a.RecipientCode)
			if a.SubaccountCode != "" {
				b.SubaccountCode = ptr(a.SubaccountCode)
			}
		}
	}
	s.brands[brandID] = b
}

// --- products ---

func (s *memStore) sortedProducts(f ProductFilter) []Product {
	var all []Product
	for _, p := range s.products {
		if s.deleted[p.ID] {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.BrandID != nil && p.BrandID != *f.BrandID {
			continue
		}
		if f.Available != nil && p.IsAvailable != *f.Available {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

func (s *memStore) ListProducts(_ context.Context, f ProductFilter, limit, offset int) ([]Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedProducts(f)
	return page(all, limit, offset), len(all), nil
}

func (s *memStore) ListProductsFirstPage(_ context.Context, f ProductFilter, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.sortedProducts(f), limit, 0), nil
}

func (s *memStore) ListProductsByCursor(_ context.Context, f ProductFilter, pivotCreatedAt time.Time, pivotID uuid.UUID, dir CursorDirection, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedProducts(f)
	idx := slices.IndexFunc(all, func(p Product) bool { return p.ID == pivotID })
	if idx < 0 {
		return []Product{}, nil
	}
	if dir == DESC {
		return page(all, limit, idx+1), nil
	}
	start := max(0, idx-limit)
	return all[start:idx], nil
}

func (s *memStore) GetProduct(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted[id] {
		return nil, ErrNotFound
	}
	return get(s.products, id)
}

func (s *memStore) GetProductDetail(_ context.Context, id uuid.UUID) (*ProductDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || s.deleted[id] {
		return nil, ErrNotFound
	}
	d := &ProductDetail{Product: p, Brand: s.brands[p.BrandID], Category: s.categories[p.CategoryID]}
	var stars int
	for _, r := range s.reviews {
		if r.ProductID == id {
			d.ReviewCount++
			stars += r.Stars
		}
	}
	if d.ReviewCount > 0 {
		d.Rating = float64(stars) / float64(d.ReviewCount)
	}
	for _, v := range s.variants {
		if v.ProductID != id {
			continue
		}
		vd := VariantDetail{Variant: v, Color: s.colors[v.ColorID]}
		for _, sz := range s.sizes {
			if sz.VariantID == v.ID {
				vd.Sizes = append(vd.Sizes, sz)
			}
		}
		d.Variants = append(d.Variants, vd)
	}
	return d, nil
}

func (s *memStore) CreateProduct(_ context.Context, p Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return &p, nil
}

func (s *memStore) UpdateProduct(_ context.Context, p Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok || s.deleted[p.ID] {
		return nil, ErrNotFound
	}
	if cur.Version != p.Version {
		return nil, ErrPrecondition
	}
	p.Version++
	s.products[p.ID] = p
	return &p, nil
}

func (s *memStore) DeleteProduct(_ context.Context, id uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[id]
	if !ok || s.deleted[id] {
		return ErrNotFound
	}
	if cur.Version != version {
		return ErrPrecondition
	}
	s.deleted[id] = true
	return nil
}

func (s *memStore) GetVariant(_ context.Context, id uuid.UUID) (*Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.variants, id)
}

func (s *memStore) CreateVariant(_ context.Context, v Variant) (*Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.variants {
		if e.ProductID == v.ProductID && e.ColorID == v.ColorID {
			return nil, ErrDuplicate
		}
	}
	s.variants[v.ID] = v
	return &v, nil
}

func (s *memStore) UpdateVariant(_ context.Context, v Variant) (*Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = v
	return &v, nil
}

func (s *memStore) DeleteVariant(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.variants, id)
}

func (s *memStore) GetSize(_ context.Context, id uuid.UUID) (*Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.sizes, id)
}

func (s *memStore) GetSizeByValue(_ context.Context, variantID uuid.UUID, value string) (*Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sz := range s.sizes {
		if sz.VariantID == variantID && sz.Value == value {
			return &sz, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) CreateSize(_ context.Context, sz Size) (*Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.sizes {
		if e.VariantID == sz.VariantID && e.Value == sz.Value {
			return nil, ErrDuplicate
		}
	}
	s.sizes[sz.ID] = sz
	return &sz, nil
}

func (s *memStore) UpdateSize(_ context.Context, sz Size) (*Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes[sz.ID] = sz
	return &sz, nil
}

func (s *memStore) DeleteSize(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.sizes, id)
}

func (s *memStore) GetImage(_ context.Context, id uuid.UUID) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.images, id)
}

func (s *memStore) CreateImage(_ context.Context, img Image) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[img.ID] = img
	return &img, nil
}

func (s *memStore) DeleteImage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.images, id)
}

func (s *memStore) IsCustomer(_ context.Context, productID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers[[2]uuid.UUID{productID, userID}], nil
}

// --- reviews ---

func (s *memStore) ListReviews(_ context.Context, productID uuid.UUID) ([]Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) GetReview(_ context.Context, id uuid.UUID) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.reviews, id)
}

func (s *memStore) CreateReview(_ context.Context, r Review) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.reviews {
		if e.ProductID == r.ProductID && e.UserID == r.UserID {
			return nil, ErrDuplicate
		}
	}
	s.reviews[r.ID] = r
	return &r, nil
}

func (s *memStore) UpdateReview(_ context.Context, r Review) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = r
	return &r, nil
}

func (s *memStore) DeleteReview(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.reviews, id)
}

// --- cart ---

func (s *memStore) cart(userID uuid.UUID) *Cart {
	c, ok := s.carts[userID]
	if !ok {
		c = &Cart{ID: uuid.Must(uuid.NewV7()), UserID: userID}
		s.carts[userID] = c
	}
	return c
}

func (s *memStore) cartByID(cartID uuid.UUID) *Cart {
	for _, c := range s.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (s *memStore) GetCart(_ context.Context, userID uuid.UUID) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(userID)
	out := &Cart{ID: c.ID, UserID: c.UserID}
	for _, it := range c.Items {
		p := s.products[it.ProductID]
		it.ProductName, it.UnitPrice, it.BrandID = p.Name, p.Price, p.BrandID
		it.SizeValue = s.sizes[it.SizeID].Value
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (s *memStore) AddCartItem(_ context.Context, cartID uuid.UUID, item CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartByID(cartID)
	for i := range c.Items {
		if c.Items[i].VariantID == item.VariantID && c.Items[i].SizeID == item.SizeID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (s *memStore) SetCartItemQuantity(_ context.Context, itemID uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = qty
				return nil
			}
		}
	}
	return ErrNotFound
}

func (s *memStore) RemoveCartItem(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = slices.Delete(c.Items, i, i+1)
				return nil
			}
		}
	}
	return ErrNotFound
}

func (s *memStore) ClearCart(_ context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.cartByID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

// --- orders ---

func (s *memStore) CreateOrder(_ context.Context, o Order) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Items = slices.Clone(o.Items)
	s.orders[o.Ref] = o
	return &o, nil
}

func (s *memStore) SetAuthorizationURL(_ context.Context, ref uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[ref]
	if !ok {
		return ErrNotFound
	}
	o.AuthorizationURL = &url
	s.orders[ref] = o
	return nil
}

func (s *memStore) GetOrder(_ context.Context, ref uuid.UUID) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[ref]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (s *memStore) ListOrders(_ context.Context, userID *uuid.UUID, limit, offset int) ([]Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Order
	for _, o := range s.orders {
		if userID == nil || o.UserID == *userID {
			all = append(all, o)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (s *memStore) DeleteOrder(_ context.Context, ref uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.orders, ref)
}

// --- transfers and messages ---

func (s *memStore) ListTransfers(_ context.Context, limit, offset int) ([]Transfer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Transfer
	for _, t := range s.transfers {
		all = append(all, t)
	}
	return page(all, limit, offset), len(all), nil
}

func (s *memStore) GetTransfer(_ context.Context, id uuid.UUID) (*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.transfers, id)
}

func (s *memStore) DeleteTransfer(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.transfers, id)
}

func (s *memStore) UnpaidTransfers(context.Context) ([]Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Transfer
	for _, t := range s.transfers {
		if !t.Paid {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) ListMessages(_ context.Context, brandID *uuid.UUID, limit, offset int) ([]Message, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Message
	for _, m := range s.messages {
		if brandID == nil || m.BrandID == *brandID {
			all = append(all, m)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (s *memStore) GetMessage(_ context.Context, id uuid.UUID) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.messages, id)
}

func (s *memStore) DeleteMessage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return del(s.messages, id)
}

func (s *memStore) messagesOf(brandID uuid.UUID, kind MessageKind) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.messages {
		if m.BrandID == brandID && m.Status == kind {
			out = append(out, m)
		}
	}
	return out
}

// --- webhook transaction ---

// WithWebhookTx holds the store lock for the whole callback, so a tx is
// serialised the way row locks serialise it in Postgres. Writes made by a
// failing callback are rolled back from a snapshot.
func (s *memStore) WithWebhookTx(ctx context.Context, fn func(ctx context.Context, tx WebhookTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCalls++
	snap := s.snapshot()
	if err := fn(ctx, memTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	products  map[uuid.UUID]Product
	variants  map[uuid.UUID]Variant
	sizes     map[uuid.UUID]Size
	orders    map[uuid.UUID]Order
	transfers map[uuid.UUID]Transfer
	messages  map[uuid.UUID]Message
	customers map[[2]uuid.UUID]bool
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		products:  cloneMap(s.products),
		variants:  cloneMap(s.variants),
		sizes:     cloneMap(s.sizes),
		orders:    cloneMap(s.orders),
		transfers: cloneMap(s.transfers),
		messages:  cloneMap(s.messages),
		customers: cloneMap(s.customers),
	}
}

func (s *memStore) restore(m memSnapshot) {
	s.products, s.variants, s.sizes = m.products, m.variants, m.sizes
	s.orders, s.transfers, s.messages, s.customers = m.orders, m.transfers, m.messages, m.customers
}

type memTx struct{ s *memStore }

func (t memTx) LockOrder(_ context.Context, ref uuid.UUID) (*Order, error) {
	o, ok := t.s.orders[ref]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (t memTx) LockStock(_ context.Context, items []OrderItem) (*Stock, error) {
	st := &Stock{
		Products: map[uuid.UUID]*StockRow{},
		Variants: map[uuid.UUID]*StockRow{},
		Sizes:    map[uuid.UUID]*StockRow{},
	}
	for _, it := range items {
		if p, ok := t.s.products[it.ProductID]; ok {
			st.Products[p.ID] = &StockRow{ID: p.ID, Quantity: p.Quantity, IsAvailable: p.IsAvailable}
		}
		if v, ok := t.s.variants[it.VariantID]; ok {
			st.Variants[v.ID] = &StockRow{ID: v.ID, Quantity: v.Quantity, IsAvailable: v.IsAvailable}
		}
		if sz, ok := t.s.sizes[it.SizeID]; ok {
			st.Sizes[sz.ID] = &StockRow{ID: sz.ID, Quantity: sz.Quantity, IsAvailable: sz.IsAvailable}
		}
	}
	return st, nil
}

func (t memTx) SaveStock(_ context.Context, st *Stock) error {
	for id, r := range st.Products {
		p := t.s.products[id]
		p.Quantity, p.IsAvailable = r.Quantity, r.IsAvailable
		t.s.products[id] = p
	}
	for id, r := range st.Variants {
		v := t.s.variants[id]
		v.Quantity, v.IsAvailable = r.Quantity, r.IsAvailable
		t.s.variants[id] = v
	}
	for id, r := range st.Sizes {
		sz := t.s.sizes[id]
		sz.Quantity, sz.IsAvailable = r.Quantity, r.IsAvailable
		t.s.sizes[id] = sz
	}
	return nil
}

func (t memTx) MarkItemUnfulfilled(_ context.Context, itemID uuid.UUID) error {
	for ref, o := range t.s.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				items := slices.Clone(o.Items)
				items[i].Fulfilled = false
				o.Items = items
				t.s.orders[ref] = o
				return nil
			}
		}
	}
	return ErrNotFound
}

func (t memTx) AddCustomer(_ context.Context, productID, userID uuid.UUID) error {
	t.s.customers[[2]uuid.UUID{productID, userID}] = true
	return nil
}

func (t memTx) BrandsByIDs(_ context.Context, ids []uuid.UUID) ([]Brand, error) {
	var out []Brand
	for _, id := range ids {
		if b, ok := t.s.brands[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t memTx) CreateTransfer(_ context.Context, tr Transfer) error {
	t.s.transfers[tr.ID] = tr
	return nil
}

func (t memTx) CreateMessage(_ context.Context, m Message) error {
	t.s.messages[m.ID] = m
	return nil
}

func (t memTx) CompleteOrder(_ context.Context, ref uuid.UUID, at time.Time) error {
	o := t.s.orders[ref]
	o.Status, o.CompletedAt = OrderCompleted, &at
	t.s.orders[ref] = o
	return nil
}

func (t memTx) ClearUserCart(_ context.Context, userID uuid.UUID) error {
	if c, ok := t.s.carts[userID]; ok {
		c.Items = nil
	}
	return nil
}

func (t memTx) LockTransfer(_ context.Context, ref uuid.UUID) (*Transfer, error) {
	for _, tr := range t.s.transfers {
		if tr.Ref == ref {
			return &tr, nil
		}
	}
	return nil, ErrNotFound
}

func (t memTx) SaveTransfer(_ context.Context, tr Transfer) error {
	t.s.transfers[tr.ID] = tr
	return nil
}
