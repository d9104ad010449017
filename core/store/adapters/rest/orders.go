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
	"fmt"
	"net/http"
	"strconv"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"

	"github.com/gofrs/uuid/v5"
)

type (
	// cartRequest carries pointers so missing fields can be reported together.
	cartRequest struct {
		ProductVariantID *uuid.UUID `json:"product_variant_id"`
		Action           *string    `json:"action"`
		Quantity         *int       `json:"quantity"`
		Size             *uuid.UUID `json:"size"`
	}

	checkoutRequest struct {
		ProductVariantID *uuid.UUID `json:"product_variant_id"`
		Size             *string    `json:"size"`
		Quantity         *int       `json:"quantity"`
		RedirectURL      string     `json:"redirect_url"`
	}
)

func (a *StoreAPI) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := a.app.GetCart(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapCart(c))
}

// UpdateCart adds, subtracts or removes one (variant, size) line.
func (a *StoreAPI) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var body cartRequest
	if !decodeBody(w, r, &body) {
		return
	}
	c, err := a.app.UpdateCart(r.Context(), actor(r), domain.CartUpdate{
		VariantID: body.ProductVariantID,
		Action:    body.Action,
		Quantity:  body.Quantity,
		SizeID:    body.Size,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapCart(c))
}

func (a *StoreAPI) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := a.app.ClearCart(r.Context(), actor(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout orders one variant, or the whole cart when no variant is given.
func (a *StoreAPI) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := a.app.Checkout(r.Context(), actor(r), domain.CheckoutRequest{
		VariantID:   body.ProductVariantID,
		Size:        serde.Deref(body.Size, domain.SizeNotApplicable),
		Quantity:    serde.Deref(body.Quantity, 1),
		RedirectURL: body.RedirectURL,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/orders/%s", res.Ref))
	serde.WriteData(w, http.StatusCreated, checkoutDTO{
		Reference:        res.Ref,
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
	})
}

func (a *StoreAPI) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := bindPage(w, r)
	if !ok {
		return
	}
	orders, total, err := a.app.ListOrders(r.Context(), actor(r), page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WritePage(w, mapSlice(orders, mapOrder), serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

func (a *StoreAPI) GetOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathID(w, r, "ref")
	if !ok {
		return
	}
	o, err := a.app.GetOrder(r.Context(), actor(r), ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapOrder(*o))
}

func (a *StoreAPI) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathID(w, r, "ref")
	if !ok {
		return
	}
	if err := a.app.DeleteOrder(r.Context(), actor(r), ref); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyOrder asks the gateway for the transaction status of the order.
func (a *StoreAPI) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathID(w, r, "ref")
	if !ok {
		return
	}
	st, err := a.app.VerifyOrder(r.Context(), actor(r), ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, verificationDTO{
		Reference:       st.Reference,
		Status:          st.Status,
		Amount:          st.Amount,
		Currency:        st.Currency,
		GatewayResponse: st.GatewayResponse,
		PaidAt:          st.PaidAt,
	})
}

func (a *StoreAPI) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathID(w, r, "ref")
	if !ok {
		return
	}
	pdf, err := a.app.OrderReceipt(r.Context(), actor(r), ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, ref))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
