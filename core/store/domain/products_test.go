package domain

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

func TestAvailability(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name       string
		qty        int
		requested  *bool
		current    bool
		qtyChanged bool
		want       bool
	}{
		{"no stock wins over flag", 0, &yes, true, false, false},
		{"explicit off", 4, &no, true, false, false},
		{"explicit on", 4, &yes, false, false, true},
		{"restock", 4, nil, false, true, true},
		{"unchanged keeps state", 4, nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := availability(tt.qty, tt.requested, tt.current, tt.qtyChanged); got != tt.want {
				t.Errorf("availability = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := NewProduct{BrandID: f.brand.ID, CategoryID: f.category.ID, Name: "  Hoodie ", Price: 12000, Quantity: 0}

	_, err := f.app.CreateProduct(ctx, f.customer, in)
	assertKind(t, err, ErrForbidden)

	p, err := f.app.CreateProduct(ctx, f.owner, in)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Name != "Hoodie" || p.IsAvailable || p.Version != 1 || p.OwnerID != f.owner.UserID {
		t.Errorf("product = %+v", p)
	}

	in.Price = 0
	_, err = f.app.CreateProduct(ctx, f.owner, in)
	assertKind(t, err, ErrInvalidData)
	if _, field, _ := Detail(err); field != "price" {
		t.Errorf("field = %q, want price", field)
	}
}

func TestModifyProduct_Versioning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	qty := 0

	_, err := f.app.ModifyProduct(ctx, f.owner, f.product.ID, 7, ProductChanges{Quantity: &qty})
	assertKind(t, err, ErrPrecondition)

	p, err := f.app.ModifyProduct(ctx, f.owner, f.product.ID, 1, ProductChanges{Quantity: &qty})
	if err != nil {
		t.Fatalf("ModifyProduct: %v", err)
	}
	if p.Version != 2 || p.IsAvailable {
		t.Errorf("product = %+v, want version 2 and unavailable", p)
	}

	restock := 4
	p, err = f.app.ModifyProduct(ctx, f.owner, f.product.ID, 2, ProductChanges{
		Quantity:    &restock,
		Description: nullable.NewNullableWithValue("soft cotton"),
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if !p.IsAvailable || p.Description == nil || *p.Description != "soft cotton" {
		t.Errorf("product = %+v", p)
	}

	p, err = f.app.ModifyProduct(ctx, f.owner, f.product.ID, 3, ProductChanges{Description: nullable.NewNullNullable[string]()})
	if err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if p.Description != nil {
		t.Errorf("description = %q, want cleared", *p.Description)
	}

	_, err = f.app.ModifyProduct(ctx, f.customer, f.product.ID, 4, ProductChanges{})
	assertKind(t, err, ErrForbidden)
}

func TestGetProduct_CachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.app.GetProduct(ctx, f.product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if len(d.Variants) != 1 || len(d.Variants[0].Sizes) != 2 || d.Brand.Name != f.brand.Name {
		t.Errorf("detail = %+v", d)
	}
	if !f.cache.has(keyProduct(f.product.ID)) {
		t.Fatal("detail was not cached")
	}

	name := "Tee v2"
	if _, err := f.app.ModifyProduct(ctx, f.owner, f.product.ID, 1, ProductChanges{Name: &name}); err != nil {
		t.Fatalf("ModifyProduct: %v", err)
	}
	if f.cache.has(keyProduct(f.product.ID)) {
		t.Error("modify must drop the cached detail")
	}
	d, err = f.app.GetProduct(ctx, f.product.ID)
	if err != nil || d.Name != name {
		t.Errorf("GetProduct after modify = %+v, %v", d, err)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assertKind(t, f.app.DeleteProduct(ctx, f.owner, f.product.ID, 2), ErrPrecondition)
	if err := f.app.DeleteProduct(ctx, f.owner, f.product.ID, 1); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	_, err := f.app.GetProduct(ctx, f.product.ID)
	assertKind(t, err, ErrNotFound)
}

func TestVariantAndSizeLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := Color{ID: uuid.Must(uuid.NewV7()), Name: "Red", Code: "FF0000"}
	f.store.colors[red.ID] = red

	_, err := f.app.CreateVariant(ctx, f.owner, f.product.ID, NewVariant{ColorID: red.ID, Quantity: 11})
	assertKind(t, err, ErrInvalidData)

	v, err := f.app.CreateVariant(ctx, f.owner, f.product.ID, NewVariant{ColorID: red.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	_, err = f.app.CreateVariant(ctx, f.owner, f.product.ID, NewVariant{ColorID: red.ID, Quantity: 1})
	assertKind(t, err, ErrDuplicate)

	_, err = f.app.CreateSize(ctx, f.owner, v.ID, NewSize{Value: "M", Quantity: 3})
	assertKind(t, err, ErrInvalidData)
	_, err = f.app.CreateSize(ctx, f.owner, v.ID, NewSize{Value: "Huge", Quantity: 1})
	assertKind(t, err, ErrInvalidData)

	s, err := f.app.CreateSize(ctx, f.owner, v.ID, NewSize{Value: "42", Quantity: 2})
	if err != nil {
		t.Fatalf("CreateSize: %v", err)
	}
	zero := 0
	s, err = f.app.ModifySize(ctx, f.owner, s.ID, SizeChanges{Quantity: &zero})
	if err != nil {
		t.Fatalf("ModifySize: %v", err)
	}
	if s.IsAvailable {
		t.Error("empty size must be unavailable")
	}

	_, err = f.app.CreateSize(ctx, f.customer, v.ID, NewSize{Value: "L", Quantity: 1})
	assertKind(t, err, ErrForbidden)
}

func TestAddImage_VariantMustBelongToProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := Product{ID: uuid.Must(uuid.NewV7()), BrandID: f.brand.ID, OwnerID: f.owner.UserID, CategoryID: f.category.ID, Name: "Cap", Price: 100, Quantity: 1, Version: 1}
	f.store.products[other.ID] = other

	_, err := f.app.AddImage(ctx, f.owner, other.ID, NewImage{VariantID: &f.variant.ID, URL: "https://img.example/a.png"})
	assertKind(t, err, ErrInvalidData)

	img, err := f.app.AddImage(ctx, f.owner, f.product.ID, NewImage{VariantID: &f.variant.ID, URL: "https://img.example/a.png"})
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if err := f.app.DeleteImage(ctx, f.owner, img.ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
}

func TestUploadImage_WithoutMediaStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.UploadImage(context.Background(), f.owner, f.product.ID, nil, "a.png", nil)
	assertKind(t, err, ErrUnhandled)
}

func TestProductCursorPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.now.Add(-time.Hour)
	for i := range 4 {
		p := f.product
		p.ID = uuid.Must(uuid.NewV7())
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		f.store.products[p.ID] = p
	}

	first, err := f.app.ListProductsFirstPage(ctx, ProductFilter{}, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Products) != 2 || first.Next == "" || first.Prev != "" {
		t.Fatalf("first page = %d products, next %q, prev %q", len(first.Products), first.Next, first.Prev)
	}

	second, err := f.app.ListProductsByCursor(ctx, first.Next, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Products) != 2 || second.Prev == "" {
		t.Fatalf("second page = %+v", second)
	}
	if !second.Products[0].CreatedAt.Before(first.Products[1].CreatedAt) {
		t.Error("second page must continue after the first")
	}

	third, err := f.app.ListProductsByCursor(ctx, second.Next, 2)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Products) != 1 || third.Next != "" {
		t.Errorf("third page = %d products, next %q", len(third.Products), third.Next)
	}

	back, err := f.app.ListProductsByCursor(ctx, second.Prev, 2)
	if err != nil {
		t.Fatalf("previous page: %v", err)
	}
	if len(back.Products) != 2 || back.Products[0].ID != first.Products[0].ID {
		t.Errorf("previous page does not match the first page")
	}

	f.now = f.now.Add(25 * time.Hour)
	_, err = f.app.ListProductsByCursor(ctx, first.Next, 2)
	assertKind(t, err, ErrInvalidData)

	_, err = f.app.ListProductsByCursor(ctx, "garbage", 2)
	assertKind(t, err, ErrInvalidData)
}

func TestCursorCarriesFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := uuid.Must(uuid.NewV7())
	for i := range 3 {
		p := f.product
		p.ID = uuid.Must(uuid.NewV7())
		p.CreatedAt = f.now.Add(time.Duration(i+1) * time.Minute)
		if i == 1 {
			p.CategoryID = other
		}
		f.store.products[p.ID] = p
	}

	filter := ProductFilter{CategoryID: &f.category.ID}
	first, err := f.app.ListProductsFirstPage(ctx, filter, 1)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	next, err := f.app.ListProductsByCursor(ctx, first.Next, 5)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	for _, p := range next.Products {
		if p.CategoryID != f.category.ID {
			t.Errorf("product %s from another category leaked through the cursor", p.ID)
		}
	}
	if len(next.Products) != 2 {
		t.Errorf("next page = %d products, want 2", len(next.Products))
	}
}

func TestSizeChart(t *testing.T) {
	chart := SizeChart()
	if chart[0] != SizeNotApplicable {
		t.Errorf("first entry = %q", chart[0])
	}
	chart[0] = "mutated"
	if SizeChart()[0] != SizeNotApplicable {
		t.Error("SizeChart must return a copy")
	}
	for _, v := range []string{"N/A", "XS", "XXXL", "20", "60", "One size fits all"} {
		if !ValidSize(v) {
			t.Errorf("ValidSize(%q) = false", v)
		}
	}
	for _, v := range []string{"", "19", "61", "m", "XXXXL"} {
		if ValidSize(v) {
			t.Errorf("ValidSize(%q) = true", v)
		}
	}
}
