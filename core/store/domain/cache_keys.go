package domain

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

const (
	keyCategories  = "categories"
	keyBrandPrefix = "brands:"
)

func keyBrandPage(limit, offset int) string {
	return fmt.Sprintf("%spage:%d:%d", keyBrandPrefix, limit, offset)
}

func keyBrand(id uuid.UUID) string {
	return keyBrandPrefix + "id:" + id.String()
}

func keyProduct(id uuid.UUID) string {
	return "product:" + id.String()
}

type brandPage struct {
	Brands []Brand
	Total  int
}
