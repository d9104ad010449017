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

package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics instruments every request passing the Telemetry middleware.
type HTTPMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	size     metric.Int64Histogram
}

func NewHTTPMetrics(serviceName string) (*HTTPMetrics, error) {
	meter := otel.Meter(serviceName)
	requests, errReq := meter.Int64Counter("http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"), metric.WithUnit("{request}"))
	latency, errLat := meter.Float64Histogram("http_server_duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	size, errSize := meter.Int64Histogram("http_server_response_size",
		metric.WithDescription("HTTP response size in bytes"), metric.WithUnit("By"))
	if err := errors.Join(errReq, errLat, errSize); err != nil {
		return nil, err
	}
	return &HTTPMetrics{requests: requests, latency: latency, size: size}, nil
}

// RecordRequest records one response. route must be a pattern, not a raw path.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route, status string, durationMs float64, bytes int64) {
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_endpoint", route),
		attribute.String("http_status_code", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, durationMs, attrs)
	if bytes > 0 {
		m.size.Record(ctx, bytes, attrs)
	}
}

// StoreMetrics counts checkout and payment outcomes.
type StoreMetrics struct {
	webhookEvents   metric.Int64Counter
	ordersCompleted metric.Int64Counter
	itemsUnfulfill  metric.Int64Counter
	stockOuts       metric.Int64Counter
	payouts         metric.Int64Counter
}

func NewStoreMetrics(serviceName string) (*StoreMetrics, error) {
	meter := otel.Meter(serviceName)
	m := &StoreMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.webhookEvents, "store_webhook_events_total", "Payment gateway webhook events by event and outcome"},
		{&m.ordersCompleted, "store_orders_completed_total", "Orders moved to completed by a charge webhook"},
		{&m.itemsUnfulfill, "store_order_items_unfulfilled_total", "Order items that could not be fulfilled after payment"},
		{&m.stockOuts, "store_stock_outs_total", "Products, variants and sizes whose quantity reached zero"},
		{&m.payouts, "store_payouts_total", "Bulk payout runs by outcome"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}
	return m, nil
}

// The methods below tolerate a nil receiver so callers can run without metrics.

func (m *StoreMetrics) WebhookEvent(ctx context.Context, event, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

func (m *StoreMetrics) OrderCompleted(ctx context.Context, unfulfilled int) {
	if m == nil {
		return
	}
	m.ordersCompleted.Add(ctx, 1)
	if unfulfilled > 0 {
		m.itemsUnfulfill.Add(ctx, int64(unfulfilled))
	}
}

func (m *StoreMetrics) StockOut(ctx context.Context, level string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.stockOuts.Add(ctx, int64(n), metric.WithAttributes(attribute.String("level", level)))
}

func (m *StoreMetrics) Payout(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.payouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
