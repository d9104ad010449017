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

// Package notify delivers brand-owner emails through the Resend HTTP API on a
// bounded worker pool.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/core/store/domain"
	"storefront/worker"

	"github.com/go-resty/resty/v2"
)

var _ domain.Notifier = (*Mailer)(nil)

// Sender delivers one notification synchronously.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Mailer queues notifications and sends them in the background.
type Mailer struct {
	dispatcher *worker.Dispatcher[domain.Notification]
}

// NewMailer starts the worker pool. Jobs inherit the values of ctx but not its
// cancellation: the pool stops only through Close, which drains the queue.
func NewMailer(ctx context.Context, cfg Config, sender Sender) *Mailer {
	ctx = context.WithoutCancel(ctx)
	job := func(ctx context.Context, n domain.Notification) {
		if cfg.JobTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
			defer cancel()
		}
		if err := sender.Send(ctx, n); err != nil {
			slog.ErrorContext(ctx, "notify: send failed",
				slog.String("to", n.To),
				slog.String("subject", n.Subject),
				slog.Any("error", err),
			)
		}
	}
	return &Mailer{
		dispatcher: worker.NewDispatcher(ctx, cfg.Workers, cfg.QueueSize, job),
	}
}

func (m *Mailer) Notify(_ context.Context, n domain.Notification) error {
	if err := m.dispatcher.Submit(n); err != nil {
		return fmt.Errorf("notify: queue %q: %w", n.To, err)
	}
	return nil
}

// Close stops accepting mail and waits until the queue drains or ctx is done.
func (m *Mailer) Close(ctx context.Context) error {
	return m.dispatcher.Close(ctx)
}

// NewSender returns a Resend sender, or a logging one when no API key is set.
func NewSender(cfg Config) Sender {
	if cfg.APIKey == "" {
		return LogSender{}
	}
	return &ResendSender{
		from: cfg.From,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetAuthToken(cfg.APIKey).
			SetTimeout(cfg.JobTimeout),
	}
}

type ResendSender struct {
	from string
	http *resty.Client
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *ResendSender) Send(ctx context.Context, n domain.Notification) error {
	var failed resendError
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(resendEmail{From: s.from, To: []string{n.To}, Subject: n.Subject, Text: n.Body}).
		SetError(&failed).
		Post("/emails")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("resend: %d %s: %s", resp.StatusCode(), failed.Name, failed.Message)
	}
	slog.DebugContext(ctx, "notify: mail sent", slog.String("to", n.To))
	return nil
}

type LogSender struct{}

func (LogSender) Send(ctx context.Context, n domain.Notification) error {
	slog.InfoContext(ctx, "notify: mail not sent, no provider configured",
		slog.String("to", n.To),
		slog.String("subject", n.Subject),
	)
	return nil
}
