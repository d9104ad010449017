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
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultIOTimeout       = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type (
	// RegistrableService mounts routes on the shared mux and may ask for
	// middlewares around the whole server, e.g. request validation.
	RegistrableService interface {
		Register(mux *http.ServeMux)
		Middlewares() []func(http.Handler) http.Handler
	}

	Server struct {
		http     *http.Server
		mux      *http.ServeMux
		addr     string
		services []RegistrableService
		// outermost first
		middlewares     []func(http.Handler) http.Handler
		shutdownTimeout time.Duration
	}

	ServerOptions func(*Server)
)

// WithWriteTimeout sets the response deadline; zero means 10s.
func WithWriteTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.http.WriteTimeout = orDefault(t, defaultIOTimeout) }
}

// WithReadTimeout sets the request deadline; zero means 10s.
func WithReadTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.http.ReadTimeout = orDefault(t, defaultIOTimeout) }
}

func WithIdleTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.http.IdleTimeout = t }
}

func WithShutdownTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.shutdownTimeout = orDefault(t, defaultShutdownTimeout) }
}

// WithMux mounts routes on mux, so callers can resolve patterns against it
// (rate limiting, metrics) before the server exists.
func WithMux(mux *http.ServeMux) ServerOptions {
	return func(s *Server) {
		if mux != nil {
			s.mux = mux
		}
	}
}

func WithServices(svcs ...RegistrableService) ServerOptions {
	return func(s *Server) { s.services = append(s.services, svcs...) }
}

// WithGlobalMiddlewares wraps the mux, first middleware outermost. Service
// middlewares are appended after these.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) ServerOptions {
	return func(s *Server) { s.middlewares = append(s.middlewares, mw...) }
}

func orDefault(t, def time.Duration) time.Duration {
	if t == 0 {
		return def
	}
	return t
}

// New mounts every service and composes the handler chain. An empty host
// binds all interfaces.
func New(host string, port int, opts ...ServerOptions) (*Server, error) {
	if port <= 0 || port > math.MaxUint16 {
		return nil, fmt.Errorf("server: bad port %d", port)
	}
	if host == "" {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	s := &Server{
		http: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux:             http.NewServeMux(),
		addr:            addr,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, svc := range s.services {
		svc.Register(s.mux)
		s.middlewares = append(s.middlewares, svc.Middlewares()...)
		slog.Info("registered service", slog.String("type", fmt.Sprintf("%T", svc)))
	}
	s.http.Handler = Chain(s.mux, s.middlewares...)
	return s, nil
}

// Chain wraps h so that mw[0] is the outermost middleware.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Handler is the composed chain, for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is done or the listener fails, then drains in-flight
// requests for at most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	failed := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "started server", slog.String("addr", s.addr))
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		failed <- err
	}()

	var serveErr error
	select {
	case serveErr = <-failed:
		if serveErr == nil {
			return nil
		}
		slog.ErrorContext(ctx, "server error", slog.Any("error", serveErr))
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down...")
	// ctx may already be cancelled
	drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, s.http.Shutdown(drain))
}
