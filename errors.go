// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"errors"
	"fmt"
	"net/http"
)

// BootstrapMode identifies which bootstrap flow a BootstrapError came from.
type BootstrapMode string

const (
	// ModeRegister is account creation via Client.Register.
	ModeRegister BootstrapMode = "register"
	// ModeLogin is password login via Client.Login.
	ModeLogin BootstrapMode = "login"
	// ModeToken is token import via Client.AccountFromToken.
	ModeToken BootstrapMode = "token"
)

// BootstrapError reports a failed bootstrap attempt. The attempt retains no
// state: a failed Register, Login, or AccountFromToken leaves nothing behind
// to retry against.
type BootstrapError struct {
	// Mode is the bootstrap flow that failed.
	Mode BootstrapMode
	// StatusCode is the HTTP status of the rejection, or 0 when the
	// failure happened before or outside an HTTP exchange (transport
	// failure, missing token in an otherwise successful response).
	StatusCode int
	// Message is the server's message when one was extracted, otherwise a
	// local description of what went wrong.
	Message string
	// Err is the underlying error, if any.
	Err error
}

func (e *BootstrapError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("kaalition: %s failed (%d): %s", e.Mode, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kaalition: %s failed: %s", e.Mode, e.Message)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// IsBootstrapError reports whether err is a *BootstrapError from the given
// bootstrap mode.
func IsBootstrapError(err error, mode BootstrapMode) bool {
	var bootstrapErr *BootstrapError
	return errors.As(err, &bootstrapErr) && bootstrapErr.Mode == mode
}

// APIError is a non-2xx response from the platform. Callers can use
// errors.As to extract the structured information:
//
//	var apiErr *kaalition.APIError
//	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 { ... }
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the response body's "message" field when present,
	// otherwise the raw body truncated to 200 characters.
	Message string
	// RetryAfter is a server-suggested wait in seconds, opportunistically
	// extracted from the response text. Zero means no hint was found.
	RetryAfter int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kaalition: server error %d: %s", e.StatusCode, e.Message)
}

// TransportError is a network-level failure (timeout, connection error)
// where no server response was received. It is distinct from APIError so
// callers can decide whether a retry makes sense.
type TransportError struct {
	// Op is the request that failed, as "METHOD /path".
	Op string
	// Err is the underlying transport error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kaalition: %s: network failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrNotAuthenticated is returned when an authenticated operation is invoked
// on an account with no token or a cleared Active flag. The rejection is
// local — no network call is made.
var ErrNotAuthenticated = errors.New("kaalition: account is not authenticated")

// ErrNotOwner is returned when an edit or delete targets a message sent by a
// different identity and ownership enforcement is enabled. The rejection is
// local — no network call is made.
var ErrNotOwner = errors.New("kaalition: message belongs to another user")

// IsUnauthorized reports whether err is an APIError with HTTP status 401,
// i.e. the server rejected the bearer token. By the time a caller sees this
// error the account has already been marked inactive and persisted.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
