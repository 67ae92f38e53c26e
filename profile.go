// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// UpdateProfile changes profile fields. Nil fields in the update keep their
// current value. On success the account is reconciled from the server's echo
// and persisted.
func (a *Account) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	payload := map[string]any{}
	if update.Nickname != nil {
		payload["nickname"] = *update.Nickname
	}
	if update.Username != nil {
		payload["username"] = *update.Username
	}
	if update.Bio != nil {
		payload["bio"] = *update.Bio
	}
	if update.AvatarEmoji != nil {
		payload["avatar_emoji"] = *update.AvatarEmoji
	}

	body, err := a.request(ctx, http.MethodPut, "/api/user/profile", payload, nil)
	if err != nil {
		return err
	}

	// The server echoes the updated identity either under "user" or at the
	// top level. Reconcile from whichever form arrived.
	response := decodeObject(body)
	if user := asMap(response["user"]); user != nil {
		a.applyUser(user)
	} else if response != nil {
		a.applyUser(response)
	}
	a.UpdatedAt = time.Now().Format(time.RFC3339)

	if err := a.Save(); err != nil {
		a.client.logger.Warn("profile update not persisted", "username", a.Username, "error", err)
	}
	return nil
}

// ChangePassword changes the account password. On success the stored
// password is updated and persisted, so the account can log in again after
// the token expires.
func (a *Account) ChangePassword(ctx context.Context, current, next string) error {
	payload := map[string]any{
		"current_password": current,
		"new_password":     next,
	}
	_, err := a.request(ctx, http.MethodPost, "/api/user/password", payload, nil)
	if err != nil {
		return err
	}
	a.Password = next
	a.UpdatedAt = time.Now().Format(time.RFC3339)
	if err := a.Save(); err != nil {
		a.client.logger.Warn("password change not persisted", "username", a.Username, "error", err)
	}
	return nil
}

// SetTheme changes the account's UI theme preference.
func (a *Account) SetTheme(ctx context.Context, theme string) error {
	payload := map[string]any{"theme": theme}
	_, err := a.request(ctx, http.MethodPost, "/api/user/theme", payload, nil)
	if err != nil {
		return err
	}
	a.Theme = theme
	if err := a.Save(); err != nil {
		a.client.logger.Warn("theme change not persisted", "username", a.Username, "error", err)
	}
	return nil
}

// UpdatePrivacy replaces the four privacy toggles wholesale.
func (a *Account) UpdatePrivacy(ctx context.Context, settings PrivacySettings) error {
	payload := map[string]any{
		"profile_public": settings.ProfilePublic,
		"show_online":    settings.ShowOnline,
		"allow_messages": settings.AllowMessages,
		"show_in_search": settings.ShowInSearch,
	}
	_, err := a.request(ctx, http.MethodPut, "/api/user/privacy", payload, nil)
	if err != nil {
		return err
	}
	a.ProfilePublic = settings.ProfilePublic
	a.ShowOnline = settings.ShowOnline
	a.AllowMessages = settings.AllowMessages
	a.ShowInSearch = settings.ShowInSearch
	if err := a.Save(); err != nil {
		a.client.logger.Warn("privacy change not persisted", "username", a.Username, "error", err)
	}
	return nil
}

// Sessions lists the account's active sessions as the server sees them.
func (a *Account) Sessions(ctx context.Context) ([]AccountSession, error) {
	body, err := a.request(ctx, http.MethodGet, "/api/auth/sessions", nil, nil)
	if err != nil {
		return nil, err
	}
	var sessions []AccountSession
	for _, data := range decodeList(body) {
		sessions = append(sessions, AccountSessionFromPayload(data))
	}
	return sessions, nil
}

// RevokeSession revokes one active session by id. Revoking the current
// session invalidates this account's own token; the next authenticated call
// will observe the 401 and mark the account inactive.
func (a *Account) RevokeSession(ctx context.Context, session AccountSession) error {
	_, err := a.request(ctx, http.MethodDelete, fmt.Sprintf("/api/auth/sessions/%d", session.ID), nil, nil)
	return err
}

// Logout invalidates the token server-side and marks the account inactive
// locally. The local transition happens even when the server call fails:
// a token the caller wants dead should not stay usable just because the
// revocation request was lost.
func (a *Account) Logout(ctx context.Context) error {
	_, err := a.request(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	a.MarkInactive()
	return err
}
