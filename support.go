// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"fmt"
	"net/http"
)

// CreateSupportTicket opens a new support ticket.
func (a *Account) CreateSupportTicket(ctx context.Context, subject, message string) (*SupportTicket, error) {
	payload := map[string]any{
		"subject": subject,
		"message": message,
	}
	body, err := a.request(ctx, http.MethodPost, "/api/support", payload, nil)
	if err != nil {
		return nil, err
	}
	data := decodeObject(body)
	if nested := asMap(firstPresent(data, "ticket", "data")); nested != nil {
		data = nested
	}
	ticket := SupportTicketFromPayload(data)
	return &ticket, nil
}

// AppendToSupportTicket adds a message to an existing support ticket.
func (a *Account) AppendToSupportTicket(ctx context.Context, ticket *SupportTicket, message string) error {
	payload := map[string]any{"message": message}
	_, err := a.request(ctx, http.MethodPost, fmt.Sprintf("/api/support/%d/message", ticket.ID), payload, nil)
	return err
}

// SendToSupport routes a message to support: it probes the support chat for
// an open ticket, appends to it when one exists, and opens a new ticket with
// the given subject otherwise. Exactly one write is performed either way.
func (a *Account) SendToSupport(ctx context.Context, message, subject string) (*SupportTicket, error) {
	body, err := a.request(ctx, http.MethodGet, "/api/support/chat", nil, nil)
	if err != nil {
		return nil, err
	}

	chat := decodeObject(body)
	if id := asInt64(chat["ticket"]); id > 0 {
		ticket := &SupportTicket{ID: id, Status: asString(chat["status"])}
		if err := a.AppendToSupportTicket(ctx, ticket, message); err != nil {
			return nil, err
		}
		return ticket, nil
	}
	return a.CreateSupportTicket(ctx, subject, message)
}
