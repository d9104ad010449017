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

package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/modules/middleware/problem"
	rl "storefront/modules/ratelimit"
)

func tooMany(w http.ResponseWriter) {
	problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := p.RouteInfoFn(r)
			log := slog.With(
				slog.String("middleware", "rate_limiter"),
				slog.String("url", r.URL.Path),
				slog.Any("route_info", info),
			)

			if info.Method == "" {
				log.Error("no method found")
				problem.Write(w, problem.MethodNotAllowed("method not allowed"))
				return
			}

			pol, explicit, ok := p.lookup(info)
			switch {
			case !ok && p.AllowIfNoMatch:
				next.ServeHTTP(w, r)
				return
			case !ok && info.ID == "":
				problem.Write(w, problem.MethodNotAllowed("not allowed"))
				return
			case !ok:
				log.Warn("no rate limit policy found")
				tooMany(w)
				return
			case !explicit:
				log.Debug("using default rate limit policy")
			}

			var key rl.Key
			if pol.KeyFn != nil {
				key = pol.KeyFn(r)
			}
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				log.Warn("no rate limit key for request")
				tooMany(w)
				return
			}

			res, err := pol.Limiter.Allow(r.Context(), key)
			if err != nil {
				// counter store unreachable
				log.Error("rate limit error", slog.Any("error", err))
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			// handlers may reset headers, so they are applied when the response is committed
			w = &headerWriter{ResponseWriter: w, res: res}

			if !res.Allowed {
				log.Debug("rate limited", slog.String("key", string(key)))
				w.Header().Set("Retry-After", strconv.FormatInt(int64(res.RetryAfter.Seconds()), 10))
				tooMany(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type headerWriter struct {
	http.ResponseWriter
	res     rl.Result
	written bool
}

func (w *headerWriter) commit() {
	if w.written {
		return
	}
	w.written = true
	h := w.ResponseWriter.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(w.res.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(w.res.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(w.res.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(int64(w.res.WindowResetIn.Seconds()), 10))
}

func (w *headerWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *headerWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
