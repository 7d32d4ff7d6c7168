package nlu

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bot-listas/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		BaseURL: server.URL,
		APIKey:  apiKey,
		Model:   "deepseek-chat",
		Timeout: 2 * time.Second,
	}, testLogger(), metrics.New("test", prometheus.NewRegistry()))
}

func TestCompleteSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  compras \n"}}]}`))
	}, "secret")

	text, err := client.Complete(context.Background(), "sistema", "mensagem")
	if err != nil {
		t.Fatal(err)
	}
	if text != "compras" {
		t.Errorf("text = %q, want %q", text, "compras")
	}
}

func TestCompleteMissingCredentialFailsClosed(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	_, err := client.Complete(context.Background(), "s", "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if called {
		t.Error("request must not be sent without a credential")
	}
}

func TestCompleteNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}, "secret")

	if _, err := client.Complete(context.Background(), "s", "p"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteEmptyCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`))
	}, "secret")

	if _, err := client.Complete(context.Background(), "s", "p"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection
		// read; without it the client disconnect never cancels r.Context()
		// and server.Close hangs.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}, "secret")
	client.timeout = 50 * time.Millisecond

	if _, err := client.Complete(context.Background(), "s", "p"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
