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

package http

import (
	"net/http"

	"storefront/core/store/domain"
	"storefront/modules/auth"
)

// WebhookPath is excluded from request validation and authentication.
const WebhookPath = "/webhooks/paystack"

// StoreAPI translates catalog, checkout and payout requests into store use cases.
type StoreAPI struct {
	app *domain.Application
}

func NewStoreAPI(app *domain.Application) *StoreAPI {
	return &StoreAPI{app: app}
}

// Routes mounts the store endpoints on mux.
func (a *StoreAPI) Routes(mux *http.ServeMux) {
	// catalog
	mux.HandleFunc("GET /v1/size-chart", a.SizeChart)
	mux.HandleFunc("GET /v1/categories", a.ListCategories)
	mux.HandleFunc("POST /v1/categories", a.CreateCategory)
	mux.HandleFunc("GET /v1/categories/{id}", a.GetCategory)
	mux.HandleFunc("PUT /v1/categories/{id}", a.RenameCategory)
	mux.HandleFunc("DELETE /v1/categories/{id}", a.DeleteCategory)
	mux.HandleFunc("GET /v1/colors", a.ListColors)
	mux.HandleFunc("POST /v1/colors", a.CreateColor)
	mux.HandleFunc("DELETE /v1/colors/{id}", a.DeleteColor)

	// brands
	mux.HandleFunc("GET /v1/brands", a.ListBrands)
	mux.HandleFunc("POST /v1/brands", a.CreateBrand)
	mux.HandleFunc("GET /v1/brands/{id}", a.GetBrand)
	mux.HandleFunc("PATCH /v1/brands/{id}", a.ModifyBrand)
	mux.HandleFunc("DELETE /v1/brands/{id}", a.DeleteBrand)
	mux.HandleFunc("GET /v1/brands/{id}/messages", a.ListBrandMessages)

	// banks and accounts
	mux.HandleFunc("GET /v1/banks", a.ListBanks)
	mux.HandleFunc("POST /v1/banks", a.CreateBank)
	mux.HandleFunc("POST /v1/banks/sync", a.SyncBanks)
	mux.HandleFunc("DELETE /v1/banks/{id}", a.DeleteBank)
	mux.HandleFunc("GET /v1/accounts", a.ListAccounts)
	mux.HandleFunc("POST /v1/accounts", a.CreateAccount)
	mux.HandleFunc("GET /v1/accounts/{id}", a.GetAccount)
	mux.HandleFunc("PATCH /v1/accounts/{id}", a.UpdateAccount)
	mux.HandleFunc("DELETE /v1/accounts/{id}", a.DeleteAccount)

	// products
	mux.HandleFunc("GET /v1/products", a.ListProducts)
	mux.HandleFunc("POST /v1/products", a.CreateProduct)
	mux.HandleFunc("GET /v1/products/{id}", a.GetProduct)
	mux.HandleFunc("PUT /v1/products/{id}", a.UpdateProduct)
	mux.HandleFunc("PATCH /v1/products/{id}", a.ModifyProduct)
	mux.HandleFunc("DELETE /v1/products/{id}", a.DeleteProduct)
	mux.HandleFunc("POST /v1/products/{id}/variants", a.CreateVariant)
	mux.HandleFunc("PATCH /v1/variants/{id}", a.ModifyVariant)
	mux.HandleFunc("DELETE /v1/variants/{id}", a.DeleteVariant)
	mux.HandleFunc("POST /v1/variants/{id}/sizes", a.CreateSize)
	mux.HandleFunc("PATCH /v1/sizes/{id}", a.ModifySize)
	mux.HandleFunc("DELETE /v1/sizes/{id}", a.DeleteSize)
	mux.HandleFunc("POST /v1/products/{id}/images", a.AddImage)
	mux.HandleFunc("DELETE /v1/images/{id}", a.DeleteImage)

	// reviews
	mux.HandleFunc("GET /v1/products/{id}/reviews", a.ListReviews)
	mux.HandleFunc("POST /v1/products/{id}/reviews", a.CreateReview)
	mux.HandleFunc("PATCH /v1/reviews/{id}", a.ModifyReview)
	mux.HandleFunc("DELETE /v1/reviews/{id}", a.DeleteReview)

	// cart and orders
	mux.HandleFunc("GET /v1/cart", a.GetCart)
	mux.HandleFunc("POST /v1/cart", a.UpdateCart)
	mux.HandleFunc("DELETE /v1/cart", a.ClearCart)
	mux.HandleFunc("POST /v1/checkout", a.Checkout)
	mux.HandleFunc("GET /v1/orders", a.ListOrders)
	mux.HandleFunc("GET /v1/orders/{ref}", a.GetOrder)
	mux.HandleFunc("DELETE /v1/orders/{ref}", a.DeleteOrder)
	mux.HandleFunc("GET /v1/orders/{ref}/verify", a.VerifyOrder)
	mux.HandleFunc("GET /v1/orders/{ref}/receipt", a.OrderReceipt)

	// payments
	mux.HandleFunc("POST "+WebhookPath, a.PaystackWebhook)
	mux.HandleFunc("GET /v1/transfers", a.ListTransfers)
	mux.HandleFunc("GET /v1/transfers/{id}", a.GetTransfer)
	mux.HandleFunc("DELETE /v1/transfers/{id}", a.DeleteTransfer)
	mux.HandleFunc("POST /v1/payouts", a.Payout)

	// messages
	mux.HandleFunc("GET /v1/messages", a.ListMessages)
	mux.HandleFunc("GET /v1/messages/{id}", a.GetMessage)
	mux.HandleFunc("DELETE /v1/messages/{id}", a.DeleteMessage)
}

func actor(r *http.Request) domain.Actor {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{
		UserID:       p.UserID,
		Username:     p.Username,
		Email:        p.Email,
		IsStaff:      p.IsStaff,
		IsBrandOwner: p.IsBrandOwner,
	}
}
