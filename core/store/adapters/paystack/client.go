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

// Package paystack implements the store's payment gateway port over the
// Paystack REST API.
package paystack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"storefront/core/store/domain"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var _ domain.Gateway = (*Client)(nil)

// Client talks to Paystack. Every failure is reported as domain.ErrGateway.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// envelope is the response shape shared by every Paystack endpoint.
type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack: secret key is empty")
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	c := &Client{
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
	}

	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		})
	return c, nil
}

// do sends one request and unwraps the envelope into out.
func do[T any](ctx context.Context, c *Client, method, path string, body any, query url.Values) (T, error) {
	var (
		zero   T
		result envelope[T]
		failed envelope[any]
	)

	req := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&failed)
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		slog.ErrorContext(ctx, "paystack request failed",
			slog.String("path", path), slog.Any("error", err))
		return zero, fmt.Errorf("%w: %s %s: %w", domain.ErrGateway, method, path, err)
	}

	slog.DebugContext(ctx, "paystack request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.IsError() {
		return zero, fmt.Errorf("%w: %s %s: %d %s", domain.ErrGateway, method, path, resp.StatusCode(), failed.Message)
	}
	if !result.Status {
		return zero, fmt.Errorf("%w: %s %s: %s", domain.ErrGateway, method, path, result.Message)
	}
	return result.Data, nil
}

func (c *Client) ResolveAccount(ctx context.Context, acctNo, bankCode string) (string, error) {
	type resolved struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}
	data, err := do[resolved](ctx, c, resty.MethodGet, "/bank/resolve", nil, url.Values{
		"account_number": {acctNo},
		"bank_code":      {bankCode},
	})
	if err != nil {
		return "", err
	}
	return data.AccountName, nil
}

func (c *Client) CreateRecipient(ctx context.Context, r domain.Recipient) (string, error) {
	type recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	data, err := do[recipient](ctx, c, resty.MethodPost, "/transferrecipient", map[string]any{
		"type":           "nuban",
		"name":           r.Name,
		"account_number": r.AcctNo,
		"bank_code":      r.BankCode,
		"currency":       r.Currency,
	}, nil)
	if err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

func (c *Client) CreateSubaccount(ctx context.Context, s domain.Subaccount) (string, error) {
	type subaccount struct {
		SubaccountCode string `json:"subaccount_code"`
	}
	pct, _ := s.PercentageCharge.Float64()
	data, err := do[subaccount](ctx, c, resty.MethodPost, "/subaccount", map[string]any{
		"business_name":     s.BusinessName,
		"settlement_bank":   s.BankCode,
		"account_number":    s.AcctNo,
		"percentage_charge": pct,
	}, nil)
	if err != nil {
		return "", err
	}
	return data.SubaccountCode, nil
}

func (c *Client) InitializeTransaction(ctx context.Context, t domain.TransactionInit) (*domain.TransactionSession, error) {
	type session struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	body := map[string]any{
		"email":        t.Email,
		"amount":       t.Amount,
		"currency":     t.Currency,
		"reference":    t.Reference,
		"callback_url": t.CallbackURL,
	}
	if len(t.Channels) > 0 {
		body["channels"] = t.Channels
	}
	if t.Subaccount != "" {
		body["subaccount"] = t.Subaccount
	}

	data, err := do[session](ctx, c, resty.MethodPost, "/transaction/initialize", body, nil)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*domain.TransactionStatus, error) {
	type status struct {
		Reference       string     `json:"reference"`
		Status          string     `json:"status"`
		Amount          int64      `json:"amount"`
		Currency        string     `json:"currency"`
		GatewayResponse string     `json:"gateway_response"`
		PaidAt          *time.Time `json:"paid_at"`
	}
	data, err := do[status](ctx, c, resty.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, nil)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionStatus{
		Reference:       data.Reference,
		Status:          data.Status,
		Amount:          data.Amount,
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
		PaidAt:          data.PaidAt,
	}, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	type bank struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	data, err := do[[]bank](ctx, c, resty.MethodGet, "/bank", nil, url.Values{
		"currency": {domain.Currency},
		"perPage":  {"100"},
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Bank, len(data))
	for i, b := range data {
		out[i] = domain.Bank{Code: b.Code, Name: b.Name}
	}
	return out, nil
}

func (c *Client) BulkTransfer(ctx context.Context, currency, source string, transfers []domain.TransferInstruction) (*domain.TransferBatch, error) {
	type item struct {
		Amount    int64  `json:"amount"`
		Recipient string `json:"recipient"`
		Reference string `json:"reference"`
		Reason    string `json:"reason,omitempty"`
	}
	type result struct {
		Reference    string `json:"reference"`
		Recipient    string `json:"recipient"`
		Amount       int64  `json:"amount"`
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}

	items := make([]item, len(transfers))
	for i, t := range transfers {
		items[i] = item{Amount: t.Amount, Recipient: t.Recipient, Reference: t.Reference, Reason: t.Reason}
	}

	data, err := do[[]result](ctx, c, resty.MethodPost, "/transfer/bulk", map[string]any{
		"currency":  currency,
		"source":    source,
		"transfers": items,
	}, nil)
	if err != nil {
		return nil, err
	}

	batch := &domain.TransferBatch{Source: source, Currency: currency}
	for _, r := range data {
		batch.Transfers = append(batch.Transfers, domain.TransferResult(r))
	}
	return batch, nil
}
