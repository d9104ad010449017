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

	"storefront/core/store/domain"
	"storefront/modules/api/serde"

	"github.com/gofrs/uuid/v5"
)

type (
	bankRequest struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}

	createAccountRequest struct {
		Brand  uuid.UUID `json:"brand"`
		Bank   uuid.UUID `json:"bank"`
		AcctNo string    `json:"acct_no"`
	}

	updateAccountRequest struct {
		Bank   *uuid.UUID `json:"bank"`
		AcctNo *string    `json:"acct_no"`
		InUse  *bool      `json:"in_use"`
	}
)

func (a *StoreAPI) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := a.app.ListBanks(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSlice(banks, mapBank))
}

func (a *StoreAPI) CreateBank(w http.ResponseWriter, r *http.Request) {
	var body bankRequest
	if !decodeBody(w, r, &body) {
		return
	}
	b, err := a.app.CreateBank(r.Context(), actor(r), body.Code, body.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusCreated, mapBank(*b))
}

func (a *StoreAPI) DeleteBank(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteBank(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncBanks pulls the gateway's bank list and reports how many rows were written.
func (a *StoreAPI) SyncBanks(w http.ResponseWriter, r *http.Request) {
	n, err := a.app.SyncBanks(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, map[string]int{"synced": n})
}

func (a *StoreAPI) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := a.app.ListAccounts(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapSlice(accts, mapAccount))
}

func (a *StoreAPI) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	acct, err := a.app.GetAccount(r.Context(), actor(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapAccount(*acct))
}

func (a *StoreAPI) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var body createAccountRequest
	if !decodeBody(w, r, &body) {
		return
	}
	acct, err := a.app.CreateAccount(r.Context(), actor(r), domain.NewAccount{
		BrandID: body.Brand,
		BankID:  body.Bank,
		AcctNo:  body.AcctNo,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/accounts/%s", acct.ID))
	serde.WriteData(w, http.StatusCreated, mapAccount(*acct))
}

func (a *StoreAPI) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body updateAccountRequest
	if !decodeBody(w, r, &body) {
		return
	}
	acct, err := a.app.UpdateAccount(r.Context(), actor(r), id, domain.AccountChanges{
		BankID: body.Bank,
		AcctNo: body.AcctNo,
		InUse:  body.InUse,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteData(w, http.StatusOK, mapAccount(*acct))
}

func (a *StoreAPI) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.app.DeleteAccount(r.Context(), actor(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
