// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// SearchUsers looks up identities by username or nickname fragment. This is
// a passive read: failures are logged and swallowed into an empty result.
func (a *Account) SearchUsers(ctx context.Context, query string) []Identity {
	params := url.Values{"query": {query}}
	body := a.tryRequest(ctx, http.MethodGet, "/api/messages/search/users", params)
	if body == nil {
		return nil
	}
	var users []Identity
	for _, data := range decodeList(body) {
		users = append(users, UserFromPayload(data))
	}
	return users
}

// SendMessage sends a direct message to the given identity and returns the
// created message as the server echoed it.
func (a *Account) SendMessage(ctx context.Context, receiver Identity, text string) (*Message, error) {
	payload := map[string]any{
		"receiver_id": receiver.ID,
		"message":     text,
	}
	body, err := a.request(ctx, http.MethodPost, "/api/messages/send", payload, nil)
	if err != nil {
		return nil, err
	}
	return messageFromResponse(body), nil
}

// SendImageMessage sends a direct message carrying an image attachment. The
// text may be empty for an image-only message.
func (a *Account) SendImageMessage(ctx context.Context, receiver Identity, text, filename string, image io.Reader) (*Message, error) {
	fields := map[string]string{
		"receiver_id": strconv.FormatInt(receiver.ID, 10),
	}
	if text != "" {
		fields["message"] = text
	}
	body, err := a.upload(ctx, "/api/messages/send", fields, "image", filename, image)
	if err != nil {
		return nil, err
	}
	return messageFromResponse(body), nil
}

// EditMessage replaces the text of a previously sent message. Unless the
// client was configured with SkipOwnershipCheck, a message known to belong
// to another sender is rejected locally with ErrNotOwner.
func (a *Account) EditMessage(ctx context.Context, message *Message, text string) error {
	if err := a.checkOwnership(message.Sender); err != nil {
		return err
	}
	payload := map[string]any{"message": text}
	_, err := a.request(ctx, http.MethodPut, fmt.Sprintf("/api/messages/%d", message.ID), payload, nil)
	if err != nil {
		return err
	}
	message.Text = text
	return nil
}

// DeleteMessage deletes a previously sent message, subject to the same local
// ownership check as EditMessage.
func (a *Account) DeleteMessage(ctx context.Context, message *Message) error {
	if err := a.checkOwnership(message.Sender); err != nil {
		return err
	}
	_, err := a.request(ctx, http.MethodDelete, fmt.Sprintf("/api/messages/%d", message.ID), nil, nil)
	return err
}

// ReactToMessage toggles an emoji reaction on a message. Any identity may
// react; there is no ownership restriction.
func (a *Account) ReactToMessage(ctx context.Context, message *Message, emoji string) error {
	payload := map[string]any{"emoji": emoji}
	_, err := a.request(ctx, http.MethodPost, fmt.Sprintf("/api/messages/%d/react", message.ID), payload, nil)
	return err
}

// ChatHistory fetches the direct-message history with the given peer. This
// is a passive read: failures are logged and swallowed into an empty result.
func (a *Account) ChatHistory(ctx context.Context, peer Identity) []Message {
	body := a.tryRequest(ctx, http.MethodGet, fmt.Sprintf("/api/messages/chat/%d", peer.ID), nil)
	if body == nil {
		return nil
	}
	var messages []Message
	for _, data := range decodeList(body) {
		messages = append(messages, MessageFromPayload(data))
	}
	return messages
}

// Chats fetches the account's chat list. This is a passive read: failures
// are logged and swallowed into an empty result.
func (a *Account) Chats(ctx context.Context) []Chat {
	body := a.tryRequest(ctx, http.MethodGet, "/api/messages/chats", nil)
	if body == nil {
		return nil
	}
	var chats []Chat
	for _, data := range decodeList(body) {
		chat := Chat{
			Peer:   identityFrom(firstPresent(data, "user", "peer")),
			Unread: asInt(firstPresent(data, "unread", "unread_count")),
		}
		if last := asMap(data["last_message"]); last != nil {
			message := MessageFromPayload(last)
			chat.LastMessage = &message
		}
		chats = append(chats, chat)
	}
	return chats
}

// checkOwnership is the local sender-identity gate on mutations of existing
// messages. A sender id of zero means the origin is unknown, so the call
// proceeds and the server decides.
func (a *Account) checkOwnership(sender Identity) error {
	if a.client.skipOwnershipCheck {
		return nil
	}
	if sender.ID != 0 && sender.ID != a.ID {
		return ErrNotOwner
	}
	return nil
}

// messageFromResponse extracts a Message from a mutation response, accepting
// either a bare message object or one nested under "message" or "data".
func messageFromResponse(body []byte) *Message {
	data := decodeObject(body)
	if data == nil {
		return nil
	}
	if nested := asMap(firstPresent(data, "message", "data")); nested != nil {
		data = nested
	}
	message := MessageFromPayload(data)
	return &message
}
