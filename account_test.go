// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	t.Run("token key", func(t *testing.T) {
		client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/register" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"token": "reg-token",
				"user":  map[string]any{"id": 41, "username": "generated", "nickname": "Ник"},
			})
		}))

		account, err := client.Register(context.Background(), RegisterOptions{Username: "generated"})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if account.Token != "reg-token" || account.ID != 41 || !account.Active {
			t.Errorf("account = %+v", account)
		}
		if account.Password == "" || account.Email == "" {
			t.Error("expected generated password and email")
		}

		records := store.Load()
		if len(records) != 1 || records[0].Token != "reg-token" {
			t.Errorf("store = %+v", records)
		}
	})

	t.Run("access_token key", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"access_token": "alt-token",
				"user":         map[string]any{"id": 42},
			})
		}))
		account, err := client.Register(context.Background(), RegisterOptions{})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if account.Token != "alt-token" {
			t.Errorf("Token = %q", account.Token)
		}
	})

	t.Run("no token in response", func(t *testing.T) {
		client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusCreated, map[string]any{"status": "ok"})
		}))
		_, err := client.Register(context.Background(), RegisterOptions{})
		if !IsBootstrapError(err, ModeRegister) {
			t.Fatalf("want register BootstrapError, got %v", err)
		}
		if records := store.Load(); len(records) != 0 {
			t.Errorf("failed bootstrap persisted records: %+v", records)
		}
	})

	t.Run("server rejection carries message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"message": "email taken"})
		}))
		_, err := client.Register(context.Background(), RegisterOptions{})
		var bootstrapErr *BootstrapError
		if !errors.As(err, &bootstrapErr) {
			t.Fatalf("want *BootstrapError, got %v", err)
		}
		if bootstrapErr.StatusCode != http.StatusUnprocessableEntity || bootstrapErr.Message != "email taken" {
			t.Errorf("got %+v", bootstrapErr)
		}
	})

	t.Run("reconciles via whoami when user payload absent", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/auth/register":
				writeJSON(t, w, http.StatusCreated, map[string]any{"token": "t"})
			case "/api/auth/me":
				assertAuth(t, r, "t")
				writeJSON(t, w, http.StatusOK, map[string]any{"id": 99, "username": "filled"})
			default:
				http.NotFound(w, r)
			}
		}))
		account, err := client.Register(context.Background(), RegisterOptions{})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if account.ID != 99 || account.Username != "filled" {
			t.Errorf("account = %+v", account)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"token": "login-token",
				"user":  map[string]any{"id": 5, "username": "dima"},
			})
		}))
		account, err := client.Login(context.Background(), "dima@example.com", "secret")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if account.Username != "dima" || account.Email != "dima@example.com" || account.Password != "secret" {
			t.Errorf("account = %+v", account)
		}
	})

	t.Run("empty credentials rejected locally", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected network call")
		}))
		if _, err := client.Login(context.Background(), "", ""); !IsBootstrapError(err, ModeLogin) {
			t.Fatalf("want login BootstrapError, got %v", err)
		}
	})
}

func TestAccountFromToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assertAuth(t, r, "imported")
			writeJSON(t, w, http.StatusOK, map[string]any{"id": 12, "username": "имп", "is_verified": true})
		}))
		account, err := client.AccountFromToken(context.Background(), "imported")
		if err != nil {
			t.Fatalf("AccountFromToken: %v", err)
		}
		if account.ID != 12 || !account.IsVerified || account.Password != "" {
			t.Errorf("account = %+v", account)
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"username": "no-id"})
		}))
		if _, err := client.AccountFromToken(context.Background(), "x"); !IsBootstrapError(err, ModeToken) {
			t.Fatalf("want token BootstrapError, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("idempotent against unchanged server", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"id": 7, "username": "tester", "nickname": "Тест", "bio": "hi",
			})
		}))
		account := newTestAccount(client)
		if err := account.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		first := *account
		if err := account.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if account.Identity != first.Identity || account.Active != first.Active {
			t.Errorf("second refresh changed account: %+v vs %+v", first, *account)
		}
	})

	t.Run("partial payload keeps current values", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"id":       7,
				"nickname": nil,
				"bio":      123,
			})
		}))
		account := newTestAccount(client)
		account.Nickname = "kept"
		account.Bio = "also kept"
		if err := account.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if account.Nickname != "kept" || account.Bio != "also kept" {
			t.Errorf("account = %+v", account)
		}
	})
}

func TestUnauthorizedMarksInactive(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
	}))
	account := newTestAccount(client)

	err := account.Refresh(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if account.Active {
		t.Error("account still active after 401")
	}

	// The transition must be persisted, not just in-memory.
	records := store.Load()
	if len(records) != 1 || records[0].Active {
		t.Errorf("store = %+v", records)
	}
}

func TestInactiveAccountRejectedLocally(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))
	account := newTestAccount(client)
	account.Active = false

	ctx := context.Background()
	if err := account.Refresh(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if _, err := account.SendMessage(ctx, Identity{ID: 1}, "hi"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if got := account.SearchUsers(ctx, "x"); got != nil {
		t.Errorf("SearchUsers = %v, want nil", got)
	}
	if calls != 0 {
		t.Errorf("inactive account made %d network calls", calls)
	}
}

func TestCheckActive(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"id": 7})
		}))
		account := newTestAccount(client)
		if !account.CheckActive(context.Background()) {
			t.Error("CheckActive = false for valid token")
		}
	})

	t.Run("rejected token flips state", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		account := newTestAccount(client)
		if account.CheckActive(context.Background()) {
			t.Error("CheckActive = true for rejected token")
		}
		if account.Active {
			t.Error("account still active")
		}
	})

	t.Run("transport failure is inconclusive", func(t *testing.T) {
		client, _ := newTestClient(t, nil)
		client.baseURL = "http://127.0.0.1:1"
		account := newTestAccount(client)
		if !account.CheckActive(context.Background()) {
			t.Error("transport failure flipped state")
		}
		if !account.Active {
			t.Error("account marked inactive on transport failure")
		}
	})
}

func TestAccountsFromStore(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))
	active := newTestAccount(client)
	active.Username = "alive"
	if err := active.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dead := newTestAccount(client)
	dead.Username = "dead"
	dead.Active = false
	if err := dead.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(store.Load()) != 2 {
		t.Fatalf("store = %+v", store.Load())
	}

	all := client.Accounts(false)
	if len(all) != 2 {
		t.Fatalf("Accounts(false) = %d accounts", len(all))
	}
	activeOnly := client.Accounts(true)
	if len(activeOnly) != 1 || activeOnly[0].Username != "alive" {
		t.Errorf("Accounts(true) = %+v", activeOnly)
	}
	if activeOnly[0].Token != "test-token" {
		t.Errorf("restored token = %q", activeOnly[0].Token)
	}
}

func TestBootstrapErrorFormat(t *testing.T) {
	err := &BootstrapError{Mode: ModeLogin, StatusCode: 401, Message: "bad credentials"}
	if !strings.Contains(err.Error(), "login") || !strings.Contains(err.Error(), "401") {
		t.Errorf("Error() = %q", err.Error())
	}
	local := &BootstrapError{Mode: ModeToken, Message: "token is required"}
	if strings.Contains(local.Error(), "(0)") {
		t.Errorf("Error() = %q", local.Error())
	}
}
