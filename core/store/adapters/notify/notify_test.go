package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/core/store/domain"
	"storefront/worker"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestMailer_DrainsOnClose(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(context.Background(), Config{Workers: 2, QueueSize: 10, JobTimeout: time.Second}, sender)

	for range 5 {
		if err := m.Notify(context.Background(), domain.Notification{To: "owner@shop.ng", Subject: "hi"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sender.count(); got != 5 {
		t.Fatalf("sent = %d, want 5", got)
	}

	err := m.Notify(context.Background(), domain.Notification{To: "late@shop.ng"})
	if !errors.Is(err, worker.ErrClosed) {
		t.Fatalf("Notify after Close = %v, want ErrClosed", err)
	}
}

// gatedSender blocks every send until gate is closed and records whether the
// job context was still live when the send went out.
type gatedSender struct {
	gate chan struct{}

	mu        sync.Mutex
	delivered int
	cancelled int
}

func (s *gatedSender) Send(ctx context.Context, _ domain.Notification) error {
	select {
	case <-s.gate:
	case <-ctx.Done():
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		s.cancelled++
		return ctx.Err()
	}
	s.delivered++
	return nil
}

func TestMailer_DrainsAfterParentCancelled(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	sender := &gatedSender{gate: make(chan struct{})}
	m := NewMailer(parent, Config{Workers: 2, QueueSize: 10, JobTimeout: time.Minute}, sender)

	for range 10 {
		if err := m.Notify(context.Background(), domain.Notification{To: "owner@shop.ng"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	// shutdown signal arrives while mail is still queued
	cancelParent()
	close(sender.gate)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 2*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.delivered != 10 || sender.cancelled != 0 {
		t.Fatalf("delivered = %d, cancelled = %d, want 10 and 0", sender.delivered, sender.cancelled)
	}
}

func TestMailer_CloseIsBoundedByContext(t *testing.T) {
	sender := &gatedSender{gate: make(chan struct{})}
	defer close(sender.gate)
	m := NewMailer(context.Background(), Config{Workers: 1, QueueSize: 2, JobTimeout: time.Minute}, sender)
	if err := m.Notify(context.Background(), domain.Notification{To: "owner@shop.ng"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close = %v, want DeadlineExceeded", err)
	}
}

func TestMailer_SendFailureIsLogged(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	m := NewMailer(context.Background(), Config{Workers: 1, QueueSize: 1}, sender)

	if err := m.Notify(context.Background(), domain.Notification{To: "a@b.c"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("sent = %d", sender.count())
	}
}

func TestResendSender(t *testing.T) {
	var got resendEmail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Header.Get("Authorization") != "Bearer re_test" {
			t.Errorf("%s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	s := NewSender(Config{APIKey: "re_test", From: "shop@x.ng", BaseURL: srv.URL, JobTimeout: time.Second})
	err := s.Send(context.Background(), domain.Notification{To: "owner@x.ng", Subject: "You've got notifications", Body: "body"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.From != "shop@x.ng" || len(got.To) != 1 || got.To[0] != "owner@x.ng" || got.Text != "body" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestResendSender_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"bad from"}`))
	}))
	defer srv.Close()

	s := NewSender(Config{APIKey: "re_test", BaseURL: srv.URL})
	if err := s.Send(context.Background(), domain.Notification{To: "a@b.c"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSender_NoKeyLogs(t *testing.T) {
	if _, ok := NewSender(Config{}).(LogSender); !ok {
		t.Fatal("expected LogSender without an API key")
	}
}
