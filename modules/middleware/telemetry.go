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

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"storefront/modules/telemetry"
)

// RouteFunc names the route of a request, e.g. "/v1/products/{id}", so labels
// stay low-cardinality.
type RouteFunc func(*http.Request) string

func rawPath(r *http.Request) string { return r.URL.Path }

// Telemetry records count, latency and size of every response. It goes first
// in the chain so rejected requests (validation, rate limit) are counted too.
func Telemetry(metrics *telemetry.HTTPMetrics, route RouteFunc) func(http.Handler) http.Handler {
	if route == nil {
		route = rawPath
	}
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			metrics.RecordRequest(r.Context(), r.Method, route(r), strconv.Itoa(rec.code()),
				float64(time.Since(began).Milliseconds()), rec.bytes)
		})
	}
}
