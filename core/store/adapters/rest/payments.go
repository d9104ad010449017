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
	"io"
	"net/http"

	"storefront/core/store/domain"
	"storefront/modules/api/serde"
	"storefront/modules/middleware/problem"
)

const (
	signatureHeader = "x-paystack-signature"
	maxWebhookBytes = 1 << 20
)

// PaystackWebhook authenticates the raw body before decoding it. Every
// authenticated event is acknowledged with 200 unless processing failed, so the
// gateway only retries real failures.
func (a *StoreAPI) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		problem.Write(w, problem.BadRequest("unreadable request body"))
		return
	}

	outcome, err := a.app.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, map[string]string{"status": string(outcome)})
}

func (a *StoreAPI) ListTransfers(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := bindPage(w, r)
	if !ok {
		return
	}
	transfers, total, err := a.app.ListTransfers(r.Context(), actor(r), page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WritePage(w, mapSlice(transfers, mapTransfer), serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

func (a *StoreAPI) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := a.app.GetTransfer(r.Context(), actor(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapTransfer(*t))
}

func (a *StoreAPI) DeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteTransfer(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payout answers 204 when every transfer is already paid.
func (a *StoreAPI) Payout(w http.ResponseWriter, r *http.Request) {
	res, err := a.app.Payout(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if res == nil {
		w.Header().Set("X-Detail", domain.DetailAllPaid)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	serde.WriteData(w, http.StatusOK, mapPayout(res))
}

func (a *StoreAPI) ListMessages(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := bindPage(w, r)
	if !ok {
		return
	}
	msgs, total, err := a.app.ListMessages(r.Context(), actor(r), page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WritePage(w, mapSlice(msgs, mapMessage), serde.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

func (a *StoreAPI) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := a.app.GetMessage(r.Context(), actor(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapMessage(*m))
}

func (a *StoreAPI) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteMessage(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
