// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

// Package kaalition wraps the kaalition.ru social-platform HTTP API with
// typed request/response mapping and local credential persistence.
//
// The package provides two core types. [Client] is an unauthenticated client
// holding the base URL, HTTP transport, and shared configuration; it serves
// the public endpoints (projects, members, news) and the three bootstrap
// flows ([Client.Register], [Client.Login], [Client.AccountFromToken]), each
// of which returns an authenticated [Account].
//
// [Account] binds one bearer token to one identity and gates every
// authenticated operation through a single request path. An authorization
// rejection (HTTP 401) on any authenticated call flips the account's Active
// flag and persists that fact through the configured credential store before
// the failure is surfaced; an inactive account rejects further calls locally
// with [ErrNotAuthenticated] until a fresh bootstrap replaces it. There is
// no silent re-login anywhere: reconciliation with the server's view of the
// account happens only through the explicit [Account.Refresh] call.
//
// Server payloads are converted to typed records by defensive mappers
// (UserFromPayload, MessageFromPayload, and friends): absent, null, and
// wrong-typed fields degrade to documented defaults instead of failing, and
// a sender delivered as a bare integer ID is synthesized into a minimal
// [Identity].
//
// Error taxonomy: bootstrap failures are [*BootstrapError] (one Mode per
// flow), server-reported failures are [*APIError] carrying the HTTP status
// and an optional rate-limit hint, transport failures are [*TransportError],
// and locally rejected operations use the [ErrNotAuthenticated] and
// [ErrNotOwner] sentinels. Passive reads (search, history, public listings)
// swallow transport and server failures into empty results; mutations
// surface every failure distinctly. Nothing is retried internally.
//
// Accounts persist across process runs through [credstore.Store]: a
// human-readable JSON list of records keyed by username, reloaded with
// [Client.Accounts].
package kaalition
