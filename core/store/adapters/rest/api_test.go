package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/core/store/domain"
	"storefront/modules/auth"

	"github.com/gofrs/uuid/v5"
)

// fakeStore implements the store methods these handlers reach. Anything else
// panics through the nil embedded interface.
type fakeStore struct {
	domain.Store

	mu         sync.Mutex
	categories []domain.Category
	products   map[uuid.UUID]domain.Product
	unpaid     []domain.Transfer
}

func (f *fakeStore) ListCategories(context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Category(nil), f.categories...), nil
}

func (f *fakeStore) GetCategory(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) CreateCategory(_ context.Context, c domain.Category) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeStore) ListProducts(_ context.Context, _ domain.ProductFilter, limit, offset int) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetProduct(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) GetProductDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	p, err := f.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProductDetail{Product: *p, Rating: 4.26, ReviewCount: 3}, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.products[p.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cur.Version != p.Version {
		return nil, domain.ErrPrecondition
	}
	p.Version++
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeStore) UnpaidTransfers(context.Context) ([]domain.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unpaid, nil
}

type stubSignature struct{}

func (stubSignature) Verify(_ []byte, signature string) error {
	if signature != "good" {
		return errors.New("mismatch")
	}
	return nil
}

var (
	ownerID   = uuid.Must(uuid.FromString("0195a000-0000-7000-8000-000000000001"))
	productID = uuid.Must(uuid.FromString("0195a000-0000-7000-8000-0000000000aa"))
)

func newTestMux(t *testing.T) (*http.ServeMux, *fakeStore) {
	t.Helper()
	store := &fakeStore{
		products: map[uuid.UUID]domain.Product{
			productID: {
				ID:          productID,
				OwnerID:     ownerID,
				BrandID:     uuid.Must(uuid.NewV7()),
				CategoryID:  uuid.Must(uuid.NewV7()),
				Name:        "Agbada",
				Price:       150000,
				Quantity:    4,
				IsAvailable: true,
				CreatedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Version:     3,
			},
		},
	}
	app := domain.NewApp(domain.Deps{Store: store, Signature: stubSignature{}})
	mux := http.NewServeMux()
	NewStoreAPI(app).Routes(mux)
	return mux, store
}

func do(mux http.Handler, method, path, body string, p *auth.Principal, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

var (
	owner = &auth.Principal{UserID: ownerID, IsActive: true, IsBrandOwner: true}
	user  = &auth.Principal{UserID: uuid.Must(uuid.NewV7()), IsActive: true}
	staff = &auth.Principal{UserID: uuid.Must(uuid.NewV7()), IsActive: true, IsStaff: true}
)

func TestSizeChart(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := do(mux, http.MethodGet, "/v1/size-chart", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 50 || body.Data[0] != domain.SizeNotApplicable || body.Data[49] != "60" {
		t.Fatalf("chart = %v", body.Data)
	}
}

func TestCategories(t *testing.T) {
	mux, store := newTestMux(t)

	if rec := do(mux, http.MethodPost, "/v1/categories", `{"name":"Shoes"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
	if rec := do(mux, http.MethodPost, "/v1/categories", `{"name":"Shoes"}`, user); rec.Code != http.StatusForbidden {
		t.Fatalf("user status = %d", rec.Code)
	}
	rec := do(mux, http.MethodPost, "/v1/categories", `{"name":"  "}`, staff)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"name":"name"`) {
		t.Fatalf("blank status = %d body = %s", rec.Code, rec.Body)
	}
	rec = do(mux, http.MethodPost, "/v1/categories", `{"name":"Shoes"}`, staff)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "/v1/categories/") {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}

	rec = do(mux, http.MethodGet, "/v1/categories/"+store.categories[0].ID.String(), "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Shoes"`) {
		t.Fatalf("get status = %d body = %s", rec.Code, rec.Body)
	}
	if rec := do(mux, http.MethodGet, "/v1/categories/nope", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, "/v1/categories/"+uuid.Must(uuid.NewV7()).String(), "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
}

func TestGetProductETag(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := do(mux, http.MethodGet, "/v1/products/"+productID.String(), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("ETag"); got != `"v:3"` {
		t.Errorf("ETag = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"rating":4.3`) {
		t.Errorf("rating not rounded: %s", rec.Body)
	}
}

func TestModifyProductConcurrency(t *testing.T) {
	mux, store := newTestMux(t)
	path := "/v1/products/" + productID.String()

	tests := []struct {
		name      string
		principal *auth.Principal
		ifMatch   string
		status    int
		etag      string
	}{
		{"missing if-match", owner, "", http.StatusPreconditionRequired, ""},
		{"malformed if-match", owner, `"3"`, http.StatusBadRequest, ""},
		{"stale version", owner, `"v:2"`, http.StatusPreconditionFailed, `"v:3"`},
		{"not owner", user, `"v:3"`, http.StatusForbidden, ""},
		{"current version", owner, `W/"v:3"`, http.StatusOK, `"v:4"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.ifMatch != "" {
				headers = []string{"If-Match", tt.ifMatch}
			}
			rec := do(mux, http.MethodPatch, path, `{"price":175000,"description":null}`, tt.principal, headers...)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body)
			}
			if tt.etag != "" && rec.Header().Get("ETag") != tt.etag {
				t.Errorf("ETag = %q, want %q", rec.Header().Get("ETag"), tt.etag)
			}
		})
	}

	if p := store.products[productID]; p.Price != 175000 || p.Version != 4 {
		t.Fatalf("product = %+v", p)
	}
}

func TestListProducts(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := do(mux, http.MethodGet, "/v1/products?page=0&pageSize=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(rec.Header().Get("ETag"), `"collection:offset:0:10:1:`) {
		t.Errorf("ETag = %q", rec.Header().Get("ETag"))
	}
	var body struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Total int               `json:"total"`
			ETags map[string]string `json:"etags"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Meta.Total != 1 || body.Meta.ETags[productID.String()] != "v:3" {
		t.Fatalf("meta = %+v", body.Meta)
	}
	if _, ok := body.Data[0]["description"]; ok {
		t.Error("list view leaks description")
	}

	for _, q := range []string{"?page=0&limit=10", "?after=a&before=b&limit=5", "?category=nope", "?available=maybe"} {
		if rec := do(mux, http.MethodGet, "/v1/products"+q, "", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d", q, rec.Code)
		}
	}
}

func TestUpdateCartMissingFields(t *testing.T) {
	mux, _ := newTestMux(t)
	if rec := do(mux, http.MethodPost, "/v1/cart", `{}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
	rec := do(mux, http.MethodPost, "/v1/cart", `{}`, user)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	for _, field := range []string{"product_variant_id", "action"} {
		if !strings.Contains(rec.Body.String(), `"name":"`+field+`"`) {
			t.Errorf("missing %s in %s", field, rec.Body)
		}
	}
}

func TestPaystackWebhook(t *testing.T) {
	mux, _ := newTestMux(t)
	body := `{"event":"subscription.create","data":{"reference":"x"}}`

	rec := do(mux, http.MethodPost, WebhookPath, body, nil, signatureHeader, "bad")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature status = %d", rec.Code)
	}

	rec = do(mux, http.MethodPost, WebhookPath, body, nil, signatureHeader, "good")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ignored"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestPayoutNothingDue(t *testing.T) {
	mux, _ := newTestMux(t)
	if rec := do(mux, http.MethodPost, "/v1/payouts", "", user); rec.Code != http.StatusForbidden {
		t.Fatalf("user status = %d", rec.Code)
	}
	rec := do(mux, http.MethodPost, "/v1/payouts", "", staff)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Detail") != domain.DetailAllPaid {
		t.Errorf("X-Detail = %q", rec.Header().Get("X-Detail"))
	}
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidData, http.StatusBadRequest},
		{domain.ErrInsufficientStock, http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrInvalidSignature, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrOutOfStock, http.StatusNotFound},
		{domain.ErrEmptyCart, http.StatusNotFound},
		{domain.ErrDuplicate, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrPrecondition, http.StatusPreconditionFailed},
		{errors.Join(domain.ErrGateway, errors.New("timeout")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			writeDomainError(rec, req, tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestOrderReceiptRequiresUser(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := do(mux, http.MethodGet, "/v1/orders/"+uuid.Must(uuid.NewV7()).String()+"/receipt", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAddImageMultipartRequiresFile(t *testing.T) {
	mux, _ := newTestMux(t)
	var buf bytes.Buffer
	buf.WriteString("--b\r\nContent-Disposition: form-data; name=\"variant\"\r\n\r\n\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/products/"+productID.String()+"/images", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req = req.WithContext(auth.WithPrincipal(req.Context(), *owner))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"name":"image"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}
