// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kaalition/kaalition-go/lib/credstore"
	"github.com/kaalition/kaalition-go/lib/identgen"
)

// Account is an authenticated session: exactly one bearer token bound to one
// identity. It embeds the Identity value and holds credential and preference
// state on top.
//
// Lifecycle: an Account is created by one of the three bootstrap flows
// (Register, Login, AccountFromToken) or reloaded from the credential store
// via Client.Accounts. Once any authenticated call receives an HTTP 401 the
// Active flag is cleared and persisted, and every further authenticated
// operation is rejected locally with ErrNotAuthenticated until a fresh
// bootstrap produces a new Account. An Account never re-authenticates
// itself.
//
// Accounts are not safe for concurrent use: each call that receives a fresh
// server view mutates the identity fields and Active flag in place. Callers
// needing concurrency must serialize access or use one Account per worker.
type Account struct {
	client *Client

	Identity

	Token    string
	Email    string
	Password string
	Active   bool

	ProfilePublic bool
	ShowOnline    bool
	AllowMessages bool
	ShowInSearch  bool
	Theme         string

	// CreatedAt is set locally at bootstrap; UpdatedAt tracks the last
	// known server-side modification time.
	CreatedAt string
	UpdatedAt string
}

// newAccount creates an Account with the platform's preference defaults.
func newAccount(c *Client) *Account {
	return &Account{
		client:        c,
		Active:        true,
		ProfilePublic: true,
		ShowOnline:    true,
		AllowMessages: true,
		ShowInSearch:  true,
		Theme:         "dark",
		CreatedAt:     time.Now().Format(time.RFC3339),
	}
}

// Register creates a new platform account. Missing identity fields are
// generated: a random username, password, Cyrillic nickname, and an email
// whose domain is drawn from options.EmailDomains, the client's configured
// list, or the standard four, in that order of preference.
//
// On success the returned Account is fully reconciled (from the inline
// "user" payload when the server sends one, otherwise via a follow-up "who
// am I" fetch) and persisted when the client has a store.
func (c *Client) Register(ctx context.Context, options RegisterOptions) (*Account, error) {
	username := options.Username
	if username == "" {
		username = identgen.Username()
	}
	email := options.Email
	if email == "" {
		domains := options.EmailDomains
		if len(domains) == 0 {
			domains = c.emailDomains
		}
		email = identgen.Email(domains)
	}
	password := options.Password
	if password == "" {
		password = identgen.Password()
	}
	nickname := options.Nickname
	if nickname == "" {
		nickname = identgen.Nickname()
	}

	payload := map[string]any{
		"username":              username,
		"nickname":              nickname,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", "", payload, nil)
	if err != nil {
		return nil, bootstrapFailure(ModeRegister, err)
	}

	response := decodeObject(body)
	token := extractToken(response)
	if token == "" {
		return nil, &BootstrapError{Mode: ModeRegister, Message: "no token in response"}
	}

	account := newAccount(c)
	account.Token = token
	account.Username = username
	account.Nickname = nickname
	account.Email = email
	account.Password = password
	c.finishBootstrap(ctx, account, asMap(response["user"]))

	c.logger.Info("registered account", "username", account.Username, "user_id", account.ID)
	return account, nil
}

// Login authenticates with email and password. On success the returned
// Account is reconciled from the inline "user" payload (or a follow-up "who
// am I" fetch) and persisted when the client has a store.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	if email == "" || password == "" {
		return nil, &BootstrapError{Mode: ModeLogin, Message: "email and password are required"}
	}

	payload := map[string]any{"email": email, "password": password}
	body, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", "", payload, nil)
	if err != nil {
		return nil, bootstrapFailure(ModeLogin, err)
	}

	response := decodeObject(body)
	token := extractToken(response)
	if token == "" {
		return nil, &BootstrapError{Mode: ModeLogin, Message: "no token in response"}
	}

	account := newAccount(c)
	account.Token = token
	account.Email = email
	account.Password = password
	c.finishBootstrap(ctx, account, asMap(response["user"]))

	c.logger.Info("logged in", "username", account.Username, "user_id", account.ID)
	return account, nil
}

// AccountFromToken imports a pre-existing bearer token by validating it with
// a "who am I" fetch. The resulting Account has no password, so it cannot be
// re-authenticated after expiry without a fresh login. Fails with a
// token-mode BootstrapError when the response lacks a user id.
func (c *Client) AccountFromToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, &BootstrapError{Mode: ModeToken, Message: "token is required"}
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", token, nil, nil)
	if err != nil {
		return nil, bootstrapFailure(ModeToken, err)
	}

	user := decodeObject(body)
	if _, ok := user["id"]; !ok {
		return nil, &BootstrapError{Mode: ModeToken, Message: "response has no user id"}
	}

	account := newAccount(c)
	account.Token = token
	account.applyUser(user)
	if err := account.Save(); err != nil {
		c.logger.Warn("account not persisted", "username", account.Username, "error", err)
	}

	c.logger.Info("imported token", "username", account.Username, "user_id", account.ID)
	return account, nil
}

// finishBootstrap reconciles a freshly bootstrapped account (inline payload
// when available, explicit Refresh otherwise) and persists it. Neither step
// can fail the bootstrap: the server-side account exists by now, so problems
// here are logged rather than discarding a live credential.
func (c *Client) finishBootstrap(ctx context.Context, account *Account, user map[string]any) {
	if user != nil {
		account.applyUser(user)
	} else if err := account.Refresh(ctx); err != nil {
		c.logger.Warn("bootstrap reconciliation failed", "username", account.Username, "error", err)
	}
	if err := account.Save(); err != nil {
		c.logger.Warn("account not persisted", "username", account.Username, "error", err)
	}
}

// bootstrapFailure wraps a request failure in a BootstrapError for the given
// mode, carrying the HTTP status and server message when there was one.
func bootstrapFailure(mode BootstrapMode, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &BootstrapError{Mode: mode, StatusCode: apiErr.StatusCode, Message: apiErr.Message, Err: err}
	}
	return &BootstrapError{Mode: mode, Message: err.Error(), Err: err}
}

// extractToken reads the bearer token from a bootstrap response, accepting
// either of the two keys the platform has used.
func extractToken(response map[string]any) string {
	if token := asString(response["token"]); token != "" {
		return token
	}
	return asString(response["access_token"])
}

// Accounts reloads accounts from the client's credential store. Returns nil
// when no store is configured.
func (c *Client) Accounts(activeOnly bool) []*Account {
	if c.store == nil {
		return nil
	}
	var accounts []*Account
	for _, record := range c.store.Load() {
		if activeOnly && !record.Active {
			continue
		}
		accounts = append(accounts, accountFromRecord(c, record))
	}
	return accounts
}

// request is the single gate for authenticated calls. An account with no
// token or a cleared Active flag is rejected locally, before any network
// traffic. An HTTP 401 clears the Active flag and persists it before the
// failure is surfaced — no code path ignores an authorization rejection.
func (a *Account) request(ctx context.Context, method, path string, body any, query url.Values) ([]byte, error) {
	if a.Token == "" || !a.Active {
		return nil, ErrNotAuthenticated
	}

	responseBody, err := a.client.doRequest(ctx, method, path, a.Token, body, query)
	if err != nil {
		if IsUnauthorized(err) {
			a.MarkInactive()
		}
		return nil, err
	}
	return responseBody, nil
}

// upload is the multipart counterpart of request, with the same local
// rejection and 401-triggered inactive transition.
func (a *Account) upload(ctx context.Context, path string, fields map[string]string, fileField, filename string, file io.Reader) ([]byte, error) {
	if a.Token == "" || !a.Active {
		return nil, ErrNotAuthenticated
	}

	responseBody, err := a.client.doUpload(ctx, path, a.Token, fields, fileField, filename, file)
	if err != nil {
		if IsUnauthorized(err) {
			a.MarkInactive()
		}
		return nil, err
	}
	return responseBody, nil
}

// tryRequest is the passive-read variant of request: transport and server
// failures are logged at debug level and swallowed into a nil body, so
// read-heavy callers keep going on partial data. The 401-triggered inactive
// transition still fires inside request before the swallow.
func (a *Account) tryRequest(ctx context.Context, method, path string, query url.Values) []byte {
	body, err := a.request(ctx, method, path, nil, query)
	if err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			a.client.logger.Debug("read dropped", "path", path, "error", err)
		}
		return nil
	}
	return body
}

// Refresh reconciles the account with the server's current view via the
// "who am I" endpoint. This is the only reconciliation path — no accessor
// fetches behind the caller's back. Refresh is idempotent: two calls against
// an unchanged server leave the account identical.
func (a *Account) Refresh(ctx context.Context) error {
	body, err := a.request(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return err
	}
	user := decodeObject(body)
	if user == nil {
		return &APIError{StatusCode: http.StatusOK, Message: "whoami response is not an object"}
	}
	a.applyUser(user)
	return nil
}

// CheckActive probes the token against the "who am I" endpoint. A 401 flips
// and persists the inactive state (inside the request gate) and yields
// false; a transport failure is inconclusive and reports the last known
// state.
func (a *Account) CheckActive(ctx context.Context) bool {
	_, err := a.request(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err == nil {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return a.Active
	}
	return a.Active && !IsUnauthorized(err)
}

// applyUser merges a server identity payload into the account. Only fields
// present with the right type are taken; absent, null, and wrong-typed
// fields keep their current value, so a partial acknowledgement payload
// never wipes known state.
func (a *Account) applyUser(user map[string]any) {
	setString := func(key string, target *string) {
		if value, ok := user[key].(string); ok {
			*target = value
		}
	}
	setBool := func(key string, target *bool) {
		if value, ok := user[key].(bool); ok {
			*target = value
		}
	}

	if id := asInt64(user["id"]); id != 0 {
		a.ID = id
	}
	setString("username", &a.Username)
	setString("email", &a.Email)
	setString("nickname", &a.Nickname)
	setString("photo", &a.Avatar)
	setString("bio", &a.Bio)
	setString("avatar_emoji", &a.AvatarEmoji)
	setString("theme", &a.Theme)
	setString("updated_at", &a.UpdatedAt)
	setBool("profile_public", &a.ProfilePublic)
	setBool("show_online", &a.ShowOnline)
	setBool("allow_messages", &a.AllowMessages)
	setBool("show_in_search", &a.ShowInSearch)
	setBool("is_admin", &a.IsAdmin)
	setBool("is_verified", &a.IsVerified)
}

// MarkInactive clears the Active flag and persists the change. Called
// automatically when the server rejects the token; also usable directly
// when a caller learns out-of-band that a token is dead.
func (a *Account) MarkInactive() {
	a.Active = false
	if err := a.Save(); err != nil {
		a.client.logger.Error("inactive state not persisted", "username", a.Username, "error", err)
	}
}

// Save upserts the account into the client's credential store. A client
// without a store makes Save a no-op.
func (a *Account) Save() error {
	if a.client.store == nil {
		return nil
	}
	return a.client.store.Upsert(a.Record())
}

// Record converts the account to its persisted form.
func (a *Account) Record() credstore.Record {
	return credstore.Record{
		Token:         a.Token,
		Username:      a.Username,
		Email:         a.Email,
		Password:      a.Password,
		Active:        a.Active,
		Nickname:      a.Nickname,
		UserID:        a.ID,
		Avatar:        a.Avatar,
		Bio:           a.Bio,
		AvatarEmoji:   a.AvatarEmoji,
		ProfilePublic: a.ProfilePublic,
		ShowOnline:    a.ShowOnline,
		AllowMessages: a.AllowMessages,
		ShowInSearch:  a.ShowInSearch,
		IsAdmin:       a.IsAdmin,
		IsVerified:    a.IsVerified,
		Theme:         a.Theme,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// accountFromRecord rebuilds an Account from its persisted form.
func accountFromRecord(c *Client, record credstore.Record) *Account {
	return &Account{
		client: c,
		Identity: Identity{
			ID:          record.UserID,
			Username:    record.Username,
			Nickname:    record.Nickname,
			Avatar:      record.Avatar,
			AvatarEmoji: record.AvatarEmoji,
			Bio:         record.Bio,
			IsVerified:  record.IsVerified,
			IsAdmin:     record.IsAdmin,
		},
		Token:         record.Token,
		Email:         record.Email,
		Password:      record.Password,
		Active:        record.Active,
		ProfilePublic: record.ProfilePublic,
		ShowOnline:    record.ShowOnline,
		AllowMessages: record.AllowMessages,
		ShowInSearch:  record.ShowInSearch,
		Theme:         record.Theme,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
