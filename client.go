// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaalition/kaalition-go/lib/credstore"
	"github.com/kaalition/kaalition-go/lib/waithint"
)

// maxResponseSize bounds response body reads: 32 MB. This exists solely to
// keep a pathological response from exhausting memory; legitimate API
// responses are orders of magnitude smaller.
const maxResponseSize int64 = 32 << 20

// defaultTimeout is the per-call timeout applied when no HTTPClient is
// supplied. Exceeding it surfaces as a *TransportError like any other
// transport failure.
const defaultTimeout = 10 * time.Second

// defaultUserAgent identifies this library on every request.
const defaultUserAgent = "kaalition-go/1.0 (+https://github.com/kaalition/kaalition-go)"

// errorMessageLimit caps how much of a non-JSON error body is carried into
// an APIError message.
const errorMessageLimit = 200

// ClientConfig holds configuration for creating a Client. There are no
// package-level defaults to mutate: everything the client needs is threaded
// through here.
type ClientConfig struct {
	// BaseURL is the platform base URL (e.g., "https://kaalition.ru").
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with
	// defaultTimeout is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// UserAgent overrides the client identity header.
	UserAgent string
	// EmailDomains is the domain pool for generated registration emails.
	// If empty, the four standard domains are used.
	EmailDomains []string
	// Store persists account records. If nil, accounts are not persisted
	// and the 401-triggered inactive transition is in-memory only.
	Store *credstore.Store
	// SkipOwnershipCheck disables the local sender-identity check on
	// message edits and deletes, deferring entirely to server policy.
	SkipOwnershipCheck bool
}

// Client is an unauthenticated platform client. It holds the base URL, HTTP
// transport, and shared configuration, and is the factory for authenticated
// Accounts via Register, Login, and AccountFromToken.
type Client struct {
	baseURL            string
	httpClient         *http.Client
	logger             *slog.Logger
	userAgent          string
	emailDomains       []string
	store              *credstore.Store
	skipOwnershipCheck bool
}

// NewClient creates a new unauthenticated client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("kaalition: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("kaalition: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		httpClient:         httpClient,
		logger:             logger,
		userAgent:          userAgent,
		emailDomains:       config.EmailDomains,
		store:              config.Store,
		skipOwnershipCheck: config.SkipOwnershipCheck,
	}, nil
}

// BaseURL returns the configured base URL with the trailing slash stripped.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the configured credential store, or nil.
func (c *Client) Store() *credstore.Store {
	return c.store
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// doRequest performs one HTTP round trip and returns the response body.
// token may be empty for unauthenticated endpoints; query may be nil.
// On 2xx, returns the body. On any other status, returns an *APIError with
// the extracted message and opportunistic wait hint. On a transport failure,
// returns a *TransportError.
func (c *Client) doRequest(ctx context.Context, method, path, token string, requestBody any, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("kaalition: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("kaalition: failed to create request: %w", err)
	}
	c.setCommonHeaders(request, token)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return c.roundTrip(request, method+" "+path)
}

// doUpload performs one multipart/form-data POST carrying an attachment plus
// text fields. Error mapping matches doRequest.
func (c *Client) doUpload(ctx context.Context, path, token string, fields map[string]string, fileField, filename string, file io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("kaalition: failed to encode form field %q: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("kaalition: failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("kaalition: failed to read attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("kaalition: failed to finish form: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buffer)
	if err != nil {
		return nil, fmt.Errorf("kaalition: failed to create request: %w", err)
	}
	c.setCommonHeaders(request, token)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return c.roundTrip(request, http.MethodPost+" "+path)
}

// setCommonHeaders applies the fixed client-identity and origin headers; only
// the Authorization header is conditional.
func (c *Client) setCommonHeaders(request *http.Request, token string) {
	request.Header.Set("User-Agent", c.userAgent)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	request.Header.Set("X-Requested-With", "XMLHttpRequest")
	request.Header.Set("Origin", c.baseURL)
	request.Header.Set("Referer", c.baseURL+"/")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

// roundTrip executes the request and maps the outcome: 2xx yields the body,
// any other status an *APIError, and a transport failure a *TransportError.
func (c *Client) roundTrip(request *http.Request, op string) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	apiErr := &APIError{
		StatusCode: response.StatusCode,
		Message:    errorMessage(responseBody),
	}
	if seconds, ok := waithint.Parse(string(responseBody)); ok {
		apiErr.RetryAfter = seconds
	}
	return responseBody, apiErr
}

// errorMessage extracts a human-readable message from an error response
// body: the JSON "message" field when present, otherwise the raw body
// truncated to errorMessageLimit characters.
func errorMessage(body []byte) string {
	var shaped struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil && shaped.Message != "" {
		return shaped.Message
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "unknown error"
	}
	runes := []rune(text)
	if len(runes) > errorMessageLimit {
		return string(runes[:errorMessageLimit])
	}
	return text
}

// decodeList decodes a response body that should be a JSON array of objects.
// Anything else yields nil.
func decodeList(body []byte) []map[string]any {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	var items []map[string]any
	for _, entry := range raw {
		if data := asMap(entry); data != nil {
			items = append(items, data)
		}
	}
	return items
}

// decodeObject decodes a response body that should be a JSON object.
// Anything else yields nil.
func decodeObject(body []byte) map[string]any {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	return data
}

// Projects fetches the public project listing. Failures are swallowed into
// an empty result: public reads prefer losing data over halting the caller.
func (c *Client) Projects(ctx context.Context) []Project {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/projects", "", nil, nil)
	if err != nil {
		c.logger.Debug("projects fetch dropped", "error", err)
		return nil
	}
	var projects []Project
	for _, data := range decodeList(body) {
		projects = append(projects, ProjectFromPayload(data))
	}
	return projects
}

// Members fetches the public site-team listing. Failures are swallowed into
// an empty result.
func (c *Client) Members(ctx context.Context) []Member {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/members", "", nil, nil)
	if err != nil {
		c.logger.Debug("members fetch dropped", "error", err)
		return nil
	}
	var members []Member
	for _, data := range decodeList(body) {
		members = append(members, MemberFromPayload(data))
	}
	return members
}

// News fetches the public news listing. Failures are swallowed into an
// empty result.
func (c *Client) News(ctx context.Context) []News {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/news", "", nil, nil)
	if err != nil {
		c.logger.Debug("news fetch dropped", "error", err)
		return nil
	}
	var news []News
	for _, data := range decodeList(body) {
		news = append(news, NewsFromPayload(data))
	}
	return news
}
