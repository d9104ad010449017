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

package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"
)

var acctNoPattern = regexp.MustCompile(`^[0-9]{10}$`)

const detailCheckAccount = "Check the account number provided for errors."

type (
	NewAccount struct {
		BrandID uuid.UUID
		BankID  uuid.UUID
		AcctNo  string
	}

	AccountChanges struct {
		BankID *uuid.UUID
		AcctNo *string
		InUse  *bool
	}
)

func (app *Application) ListBanks(ctx context.Context, actor Actor) ([]Bank, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	banks, err := app.store.ListBanks(ctx)
	return banks, unhandled(ctx, "list banks", err)
}

func (app *Application) CreateBank(ctx context.Context, actor Actor, code, name string) (*Bank, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	code, name = strings.TrimSpace(code), strings.TrimSpace(name)
	if len(code) != 3 {
		return nil, failField(ErrInvalidData, "code", "Ensure this field has exactly 3 characters.")
	}
	if name == "" {
		return nil, failField(ErrInvalidData, "name", "This field may not be blank.")
	}
	b, err := app.store.CreateBank(ctx, Bank{ID: app.newID(), Code: code, Name: name})
	return b, unhandled(ctx, "create bank", err)
}

func (app *Application) DeleteBank(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return unhandled(ctx, "delete bank", app.store.DeleteBank(ctx, id))
}

// SyncBanks upserts the gateway's bank list by code. Banks with codes the
// local schema cannot hold are skipped.
func (app *Application) SyncBanks(ctx context.Context, actor Actor) (int, error) {
	if err := requireStaff(actor); err != nil {
		return 0, err
	}
	remote, err := app.gateway.ListBanks(ctx)
	if err != nil {
		return 0, unhandled(ctx, "list gateway banks", err)
	}
	banks := make([]Bank, 0, len(remote))
	seen := make(map[string]struct{}, len(remote))
	for _, b := range remote {
		if len(b.Code) != 3 || strings.TrimSpace(b.Name) == "" {
			continue
		}
		if _, dup := seen[b.Code]; dup {
			continue
		}
		seen[b.Code] = struct{}{}
		banks = append(banks, Bank{ID: app.newID(), Code: b.Code, Name: strings.TrimSpace(b.Name)})
	}
	n, err := app.store.UpsertBanks(ctx, banks)
	return n, unhandled(ctx, "upsert banks", err)
}

func (app *Application) ListAccounts(ctx context.Context, actor Actor) ([]Account, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	var owner *uuid.UUID
	if !actor.IsStaff {
		owner = &actor.UserID
	}
	accts, err := app.store.ListAccounts(ctx, owner)
	return accts, unhandled(ctx, "list accounts", err)
}

func (app *Application) GetAccount(ctx context.Context, actor Actor, id uuid.UUID) (*Account, error) {
	a, b, err := app.accountWithBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, b.OwnerID, true); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAccount verifies the account with the gateway, registers the brand as a
// transfer recipient and subaccount, and makes the new account the one in use.
func (app *Application) CreateAccount(ctx context.Context, actor Actor, in NewAccount) (*Account, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !acctNoPattern.MatchString(in.AcctNo) {
		return nil, failField(ErrInvalidData, "acctNo", "Ensure this field has exactly 10 digits.")
	}
	brand, err := app.store.GetBrand(ctx, in.BrandID)
	if err != nil {
		return nil, unhandled(ctx, "get brand", err)
	}
	if err := requireOwnerOrStaff(actor, brand.OwnerID, false); err != nil {
		return nil, err
	}
	bank, err := app.store.GetBank(ctx, in.BankID)
	if err != nil {
		return nil, unhandled(ctx, "get bank", err)
	}

	acct := Account{
		ID:        app.newID(),
		BrandID:   brand.ID,
		BankID:    bank.ID,
		BankCode:  bank.Code,
		AcctNo:    in.AcctNo,
		InUse:     true,
		CreatedAt: app.now(),
	}
	if err := app.verifyAccount(ctx, brand, &acct); err != nil {
		return nil, err
	}

	saved, err := app.store.SaveAccount(ctx, acct)
	if err != nil {
		return nil, unhandled(ctx, "save account", err)
	}
	app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	return saved, nil
}

// UpdateAccount re-verifies the account when its number or bank changes.
func (app *Application) UpdateAccount(ctx context.Context, actor Actor, id uuid.UUID, ch AccountChanges) (*Account, error) {
	acct, brand, err := app.accountWithBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, brand.OwnerID, false); err != nil {
		return nil, err
	}

	reverify := false
	if ch.AcctNo != nil && *ch.AcctNo != acct.AcctNo {
		if !acctNoPattern.MatchString(*ch.AcctNo) {
			return nil, failField(ErrInvalidData, "acctNo", "Ensure this field has exactly 10 digits.")
		}
		acct.AcctNo = *ch.AcctNo
		reverify = true
	}
	if ch.BankID != nil && *ch.BankID != acct.BankID {
		bank, err := app.store.GetBank(ctx, *ch.BankID)
		if err != nil {
			return nil, unhandled(ctx, "get bank", err)
		}
		acct.BankID, acct.BankCode = bank.ID, bank.Code
		reverify = true
	}
	if ch.InUse != nil {
		acct.InUse = *ch.InUse
	}

	if reverify {
		if err := app.verifyAccount(ctx, brand, acct); err != nil {
			return nil, err
		}
	}

	saved, err := app.store.SaveAccount(ctx, *acct)
	if err != nil {
		return nil, unhandled(ctx, "save account", err)
	}
	if reverify || ch.InUse != nil {
		app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	}
	return saved, nil
}

func (app *Application) DeleteAccount(ctx context.Context, actor Actor, id uuid.UUID) error {
	_, brand, err := app.accountWithBrand(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwnerOrStaff(actor, brand.OwnerID, false); err != nil {
		return err
	}
	if err := app.store.DeleteAccount(ctx, id); err != nil {
		return unhandled(ctx, "delete account", err)
	}
	app.cache.InvalidatePrefix(ctx, keyBrandPrefix)
	return nil
}

func (app *Application) accountWithBrand(ctx context.Context, id uuid.UUID) (*Account, *Brand, error) {
	if id.IsNil() {
		return nil, nil, ErrInvalidData
	}
	a, err := app.store.GetAccount(ctx, id)
	if err != nil {
		return nil, nil, unhandled(ctx, "get account", err)
	}
	b, err := app.store.GetBrand(ctx, a.BrandID)
	if err != nil {
		return nil, nil, unhandled(ctx, "get brand", err)
	}
	return a, b, nil
}

// verifyAccount resolves the holder's name and registers the account with the
// gateway as a transfer recipient and a subaccount.
func (app *Application) verifyAccount(ctx context.Context, brand *Brand, acct *Account) error {
	name, err := app.gateway.ResolveAccount(ctx, acct.AcctNo, acct.BankCode)
	if err != nil {
		if errors.Is(err, ErrGateway) {
			return failField(ErrInvalidData, "acctNo", detailCheckAccount)
		}
		return unhandled(ctx, "resolve account", err)
	}
	recipient, err := app.gateway.CreateRecipient(ctx, Recipient{
		Name:     brand.Name,
		AcctNo:   acct.AcctNo,
		BankCode: acct.BankCode,
		Currency: Currency,
	})
	if err != nil {
		return unhandled(ctx, "create recipient", err)
	}
	subaccount, err := app.gateway.CreateSubaccount(ctx, Subaccount{
		BusinessName:     brand.Name,
		BankCode:         acct.BankCode,
		AcctNo:           acct.AcctNo,
		PercentageCharge: brand.CommissionPercent,
	})
	if err != nil {
		return unhandled(ctx, "create subaccount", err)
	}
	acct.AcctName = name
	acct.RecipientCode = recipient
	acct.SubaccountCode = subaccount
	return nil
}
