// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kaalition/kaalition-go/lib/credstore"
)

// newTestClient starts an httptest server with the given handler and returns
// a client pointed at it, backed by a credential store in a temp directory.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *credstore.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := credstore.New(filepath.Join(t.TempDir(), "accounts.json"))
	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   store,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, store
}

// newTestAccount returns an active account bound to the client, bypassing
// the bootstrap flows.
func newTestAccount(c *Client) *Account {
	account := newAccount(c)
	account.Token = "test-token"
	account.ID = 7
	account.Username = "tester"
	return account
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func assertAuth(t *testing.T, r *http.Request, token string) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer "+token {
		t.Errorf("Authorization = %q, want %q", got, "Bearer "+token)
	}
}

func TestNewClient(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty BaseURL")
		}
	})

	t.Run("strips trailing slash", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "https://example.test/"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if client.BaseURL() != "https://example.test" {
			t.Errorf("BaseURL = %q", client.BaseURL())
		}
	})
}

func TestRequestHeaders(t *testing.T) {
	var captured http.Header
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))

	if _, err := client.doRequest(context.Background(), http.MethodPost, "/api/test", "tok", map[string]any{"a": 1}, nil); err != nil {
		t.Fatalf("doRequest: %v", err)
	}

	checks := map[string]string{
		"Accept":           "application/json",
		"Accept-Language":  "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
		"X-Requested-With": "XMLHttpRequest",
		"Content-Type":     "application/json",
		"Origin":           client.BaseURL(),
		"Referer":          client.BaseURL() + "/",
		"Authorization":    "Bearer tok",
	}
	for header, want := range checks {
		if got := captured.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if !strings.HasPrefix(captured.Get("User-Agent"), "kaalition-go/") {
		t.Errorf("User-Agent = %q", captured.Get("User-Agent"))
	}
}

func TestErrorMapping(t *testing.T) {
	t.Run("extracts json message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"message": "username taken"})
		}))
		_, err := client.doRequest(context.Background(), http.MethodPost, "/api/test", "", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("want *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "username taken" {
			t.Errorf("got %+v", apiErr)
		}
	})

	t.Run("truncates raw body", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(strings.Repeat("x", 500)))
		}))
		_, err := client.doRequest(context.Background(), http.MethodGet, "/api/test", "", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("want *APIError, got %v", err)
		}
		if len(apiErr.Message) != errorMessageLimit {
			t.Errorf("message length = %d, want %d", len(apiErr.Message), errorMessageLimit)
		}
	})

	t.Run("extracts wait hint", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusTooManyRequests, map[string]any{"message": "Подождите 30 секунд"})
		}))
		_, err := client.doRequest(context.Background(), http.MethodPost, "/api/test", "", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("want *APIError, got %v", err)
		}
		if apiErr.RetryAfter != 30 {
			t.Errorf("RetryAfter = %d, want 30", apiErr.RetryAfter)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client, err := NewClient(ClientConfig{
			BaseURL: "http://127.0.0.1:1",
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		_, err = client.doRequest(context.Background(), http.MethodGet, "/api/test", "", nil, nil)
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("want *TransportError, got %v", err)
		}
	})
}

func TestPublicReadsSwallowFailures(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	ctx := context.Background()
	if got := client.Projects(ctx); got != nil {
		t.Errorf("Projects = %v, want nil", got)
	}
	if got := client.Members(ctx); got != nil {
		t.Errorf("Members = %v, want nil", got)
	}
	if got := client.News(ctx); got != nil {
		t.Errorf("News = %v, want nil", got)
	}
}

func TestPublicReads(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects":
			writeJSON(t, w, http.StatusOK, []map[string]any{{"id": 1, "title": "Launcher"}})
		case "/api/members":
			writeJSON(t, w, http.StatusOK, []map[string]any{{"id": 2, "nickname": "Админ"}})
		case "/api/news":
			writeJSON(t, w, http.StatusOK, []map[string]any{{"id": 3, "title": "Release"}})
		default:
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()
	projects := client.Projects(ctx)
	if len(projects) != 1 || projects[0].Title != "Launcher" || !projects[0].IsActive {
		t.Errorf("Projects = %+v", projects)
	}
	members := client.Members(ctx)
	if len(members) != 1 || members[0].Nickname != "Админ" {
		t.Errorf("Members = %+v", members)
	}
	news := client.News(ctx)
	if len(news) != 1 || !news[0].IsPublished {
		t.Errorf("News = %+v", news)
	}
}
