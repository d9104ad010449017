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

	"github.com/gofrs/uuid/v5"
)

type MessageKind string

const (
	MsgOrderSuccessful    MessageKind = "order.successful"
	MsgOrderUnfulfilled   MessageKind = "order.unfulfilled"
	MsgTransferSuccessful MessageKind = "transfer.successful"
	MsgTransferFailed     MessageKind = "transfer.failed"
	MsgTransferReversed   MessageKind = "transfer.reversed"
	MsgProductUnavailable MessageKind = "product.unavailable"
	MsgVariantUnavailable MessageKind = "product_variant.unavailable"
	MsgSizeUnavailable    MessageKind = "variant_size.unavailable"
)

const notificationSubject = "You've got notifications"

var messageTexts = map[MessageKind]string{
	MsgOrderSuccessful:    "You've got an order!!",
	MsgTransferSuccessful: "You've just been paid!!, your money is on the way",
	MsgTransferFailed:     "Transfer to the account you provided failed, check the account details in your account.\nIf after 24 hours you still haven't been paid, reply this email stating your username and your brand name",
	MsgTransferReversed:   "Transfer to you was reversed, please wait you'll still be paid with the next batch within the next 24 hours",
	MsgProductUnavailable: "You've got some products that are out of stock",
	MsgVariantUnavailable: "Some variations of your products are out of stock, remember to update them when they arrive",
	MsgSizeUnavailable:    "Sizes of some of your products are unavailable",
	MsgOrderUnfulfilled:   "Some items of an order could not be fulfilled because they ran out of stock",
}

func (k MessageKind) Text() string { return messageTexts[k] }

// EmailBody is the text sent to a brand owner for a message of kind k.
func (k MessageKind) EmailBody(brandName string) string {
	return k.Text() + ", check your dashboard for further details.\nYours faithfully\n" + brandName + "."
}

func (app *Application) ListMessages(ctx context.Context, actor Actor, page, pageSize int) ([]Message, int, error) {
	if err := requireStaff(actor); err != nil {
		return nil, 0, err
	}
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	msgs, total, err := app.store.ListMessages(ctx, nil, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list messages", err)
	}
	return msgs, total, nil
}

func (app *Application) ListBrandMessages(ctx context.Context, actor Actor, brandID uuid.UUID, page, pageSize int) ([]Message, int, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	limit, offset, err := validatePage(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	b, err := app.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, 0, unhandled(ctx, "get brand", err)
	}
	if err := requireOwnerOrStaff(actor, b.OwnerID, true); err != nil {
		return nil, 0, err
	}
	msgs, total, err := app.store.ListMessages(ctx, &b.ID, limit, offset)
	if err != nil {
		return nil, 0, unhandled(ctx, "list brand messages", err)
	}
	return msgs, total, nil
}

func (app *Application) GetMessage(ctx context.Context, actor Actor, id uuid.UUID) (*Message, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if id.IsNil() {
		return nil, ErrInvalidData
	}
	m, err := app.store.GetMessage(ctx, id)
	if err != nil {
		return nil, unhandled(ctx, "get message", err)
	}
	if err := requireOwnerOrStaff(actor, m.UserID, true); err != nil {
		return nil, err
	}
	return m, nil
}

func (app *Application) DeleteMessage(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := app.GetMessage(ctx, actor, id); err != nil {
		return err
	}
	return unhandled(ctx, "delete message", app.store.DeleteMessage(ctx, id))
}
