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

// Package receipt renders order receipts as PDF.
package receipt

import (
	"context"
	"fmt"
	"strconv"

	"storefront/core/store/domain"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/shopspring/decimal"
)

var _ domain.ReceiptRenderer = (*Renderer)(nil)

var (
	ink   = color.Color{Red: 38, Green: 38, Blue: 34}
	muted = color.Color{Red: 121, Green: 119, Blue: 109}
)

type Renderer struct {
	StoreName string
}

func NewRenderer(storeName string) *Renderer {
	return &Renderer{StoreName: storeName}
}

func (r *Renderer) Render(_ context.Context, o *domain.Order) ([]byte, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 20, 20)

	m.Row(15, func() {
		m.Col(12, func() {
			m.Text("RECEIPT", props.Text{Size: 24, Style: consts.Bold, Color: ink})
		})
	})
	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(r.StoreName, props.Text{Size: 14, Style: consts.Bold, Color: ink})
		})
	})

	m.Row(6, func() {
		m.Col(6, func() {
			m.Text(o.Email, props.Text{Size: 9, Color: muted})
		})
		m.Col(6, func() {
			m.Text("Order "+o.Ref.String(), props.Text{Size: 9, Color: muted, Align: consts.Right})
		})
	})
	m.Row(6, func() {
		m.Col(12, func() {
			m.Text("Date: "+paidOn(o), props.Text{Size: 9, Color: muted, Align: consts.Right})
		})
	})

	m.Row(8, func() {})

	header := func(text string, size uint, align consts.Align) {
		m.Col(size, func() {
			m.Text(text, props.Text{Size: 8, Style: consts.Bold, Color: ink, Align: align})
		})
	}
	m.Row(6, func() {
		header("Item", 5, consts.Left)
		header("Size", 2, consts.Left)
		header("Qty", 1, consts.Right)
		header("Price", 2, consts.Right)
		header("Total", 2, consts.Right)
	})

	for _, it := range o.Items {
		cell := func(text string, size uint, align consts.Align) {
			c := ink
			if !it.Fulfilled {
				c = muted
			}
			m.Col(size, func() {
				m.Text(text, props.Text{Size: 9, Color: c, Align: align})
			})
		}
		name := it.ProductName
		if !it.Fulfilled {
			name += " (unfulfilled)"
		}
		m.Row(6, func() {
			cell(name, 5, consts.Left)
			cell(it.SizeValue, 2, consts.Left)
			cell(strconv.Itoa(it.Quantity), 1, consts.Right)
			cell(Naira(it.UnitPrice), 2, consts.Right)
			cell(Naira(it.Subtotal()), 2, consts.Right)
		})
	}

	m.Row(8, func() {})
	m.Row(6, func() {
		m.Col(8, func() {})
		m.Col(2, func() {
			m.Text("Total", props.Text{Size: 10, Style: consts.Bold, Color: ink, Align: consts.Right})
		})
		m.Col(2, func() {
			m.Text(Naira(o.Total), props.Text{Size: 10, Style: consts.Bold, Color: ink, Align: consts.Right})
		})
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("receipt: render %s: %w", o.Ref, err)
	}
	return buf.Bytes(), nil
}

// Naira formats an amount in kobo, e.g. 150050 -> "NGN 1500.50".
func Naira(kobo int64) string {
	return domain.Currency + " " + decimal.New(kobo, -2).StringFixed(2)
}

func paidOn(o *domain.Order) string {
	if o.CompletedAt != nil {
		return o.CompletedAt.Format("Jan 02, 2006")
	}
	return o.CreatedAt.Format("Jan 02, 2006")
}
