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

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthService serves liveness on /healthz and dependency readiness on /readyz.
type HealthService struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

var _ RegistrableService = (*HealthService)(nil)

func NewHealthService(checks map[string]HealthChecker) *HealthService {
	return &HealthService{checks: checks, timeout: 3 * time.Second}
}

func (h *HealthService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /readyz", h.ready)
}

func (h *HealthService) Middlewares() []func(http.Handler) http.Handler { return nil }

func (h *HealthService) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "readiness check failed", slog.String("dependency", name), slog.Any("error", err))
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "up"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
