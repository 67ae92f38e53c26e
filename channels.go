// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CreateChannel creates a broadcast channel owned by the account.
func (a *Account) CreateChannel(ctx context.Context, name, description string) (*Channel, error) {
	payload := map[string]any{
		"name":        name,
		"description": description,
	}
	body, err := a.request(ctx, http.MethodPost, "/api/channels", payload, nil)
	if err != nil {
		return nil, err
	}
	return channelFromResponse(body), nil
}

// Channel fetches one channel by id.
func (a *Account) Channel(ctx context.Context, id int64) (*Channel, error) {
	body, err := a.request(ctx, http.MethodGet, fmt.Sprintf("/api/channels/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return channelFromResponse(body), nil
}

// ChannelPage fetches one page of the channel directory. The second return
// value reports whether the server says more pages exist.
func (a *Account) ChannelPage(ctx context.Context, page int) ([]Channel, bool, error) {
	params := url.Values{"page": {strconv.Itoa(page)}}
	body, err := a.request(ctx, http.MethodGet, "/api/channels", nil, params)
	if err != nil {
		return nil, false, err
	}

	data := decodeObject(body)
	if data == nil {
		return nil, false, nil
	}
	var channels []Channel
	for _, entry := range asList(firstPresent(data, "channels", "items", "data")) {
		if payload := asMap(entry); payload != nil {
			channels = append(channels, ChannelFromPayload(payload))
		}
	}
	return channels, asBool(data["has_more"], false), nil
}

// Channels fetches the full channel directory, following pagination until
// the server reports no more pages. This is a passive read: a failure on any
// page is logged and swallowed, returning whatever pages arrived before it.
func (a *Account) Channels(ctx context.Context) []Channel {
	var channels []Channel
	for page := 1; ; page++ {
		pageChannels, hasMore, err := a.ChannelPage(ctx, page)
		if err != nil {
			a.client.logger.Debug("channel page dropped", "page", page, "error", err)
			return channels
		}
		channels = append(channels, pageChannels...)
		if !hasMore {
			return channels
		}
	}
}

// JoinChannel subscribes the account to a channel.
func (a *Account) JoinChannel(ctx context.Context, channel *Channel) error {
	_, err := a.request(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/join", channel.ID), nil, nil)
	return err
}

// LeaveChannel unsubscribes the account from a channel.
func (a *Account) LeaveChannel(ctx context.Context, channel *Channel) error {
	_, err := a.request(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/leave", channel.ID), nil, nil)
	return err
}

// ChannelMembers fetches a channel's membership list. This is a passive
// read: failures are logged and swallowed into an empty result.
func (a *Account) ChannelMembers(ctx context.Context, channel *Channel) []ChannelMember {
	body := a.tryRequest(ctx, http.MethodGet, fmt.Sprintf("/api/channels/%d/members", channel.ID), nil)
	if body == nil {
		return nil
	}
	var members []ChannelMember
	for _, data := range decodeList(body) {
		member := ChannelMemberFromPayload(data)
		if member.ChannelID == 0 {
			member.ChannelID = channel.ID
		}
		members = append(members, member)
	}
	return members
}

// ChannelMessages fetches a channel's message feed. This is a passive read:
// failures are logged and swallowed into an empty result.
func (a *Account) ChannelMessages(ctx context.Context, channel *Channel) []ChannelMessage {
	body := a.tryRequest(ctx, http.MethodGet, fmt.Sprintf("/api/channels/%d/messages", channel.ID), nil)
	if body == nil {
		return nil
	}
	var messages []ChannelMessage
	for _, data := range decodeList(body) {
		message := ChannelMessageFromPayload(data)
		if message.ChannelID == 0 {
			message.ChannelID = channel.ID
		}
		messages = append(messages, message)
	}
	return messages
}

// SendChannelMessage posts a message to a channel and returns the created
// post as the server echoed it.
func (a *Account) SendChannelMessage(ctx context.Context, channel *Channel, text string) (*ChannelMessage, error) {
	payload := map[string]any{"message": text}
	body, err := a.request(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/messages", channel.ID), payload, nil)
	if err != nil {
		return nil, err
	}
	return channelMessageFromResponse(body, channel.ID), nil
}

// EditChannelMessage replaces the text of a channel post, subject to the
// same local ownership check as direct-message edits.
func (a *Account) EditChannelMessage(ctx context.Context, message *ChannelMessage, text string) error {
	if err := a.checkOwnership(message.Author); err != nil {
		return err
	}
	payload := map[string]any{"message": text}
	path := fmt.Sprintf("/api/channels/%d/messages/%d", message.ChannelID, message.ID)
	_, err := a.request(ctx, http.MethodPut, path, payload, nil)
	if err != nil {
		return err
	}
	message.Text = text
	return nil
}

// DeleteChannelMessage deletes a channel post, subject to the same local
// ownership check as direct-message deletes.
func (a *Account) DeleteChannelMessage(ctx context.Context, message *ChannelMessage) error {
	if err := a.checkOwnership(message.Author); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/channels/%d/messages/%d", message.ChannelID, message.ID)
	_, err := a.request(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// ReactToChannelMessage toggles an emoji reaction on a channel post.
func (a *Account) ReactToChannelMessage(ctx context.Context, message *ChannelMessage, emoji string) error {
	payload := map[string]any{"emoji": emoji}
	path := fmt.Sprintf("/api/channels/%d/messages/%d/react", message.ChannelID, message.ID)
	_, err := a.request(ctx, http.MethodPost, path, payload, nil)
	return err
}

// PinChannelMessage pins a channel post. The server enforces who may pin.
func (a *Account) PinChannelMessage(ctx context.Context, message *ChannelMessage) error {
	path := fmt.Sprintf("/api/channels/%d/messages/%d/pin", message.ChannelID, message.ID)
	_, err := a.request(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}
	message.Pinned = true
	return nil
}

// ChannelMessageComments fetches the comment thread under a channel post.
// This is a passive read: failures are logged and swallowed into an empty
// result.
func (a *Account) ChannelMessageComments(ctx context.Context, message *ChannelMessage) []ChannelMessage {
	path := fmt.Sprintf("/api/channels/%d/messages/%d/comments", message.ChannelID, message.ID)
	body := a.tryRequest(ctx, http.MethodGet, path, nil)
	if body == nil {
		return nil
	}
	var comments []ChannelMessage
	for _, data := range decodeList(body) {
		comment := ChannelMessageFromPayload(data)
		if comment.ChannelID == 0 {
			comment.ChannelID = message.ChannelID
		}
		comments = append(comments, comment)
	}
	return comments
}

// UpdateChannel changes channel metadata. Nil fields in the update keep
// their current value; ownership is enforced by the server.
func (a *Account) UpdateChannel(ctx context.Context, channel *Channel, update ChannelUpdate) error {
	payload := map[string]any{}
	if update.Name != nil {
		payload["name"] = *update.Name
	}
	if update.Description != nil {
		payload["description"] = *update.Description
	}
	if update.Settings != nil {
		payload["settings"] = update.Settings
	}
	_, err := a.request(ctx, http.MethodPut, fmt.Sprintf("/api/channels/%d", channel.ID), payload, nil)
	if err != nil {
		return err
	}
	if update.Name != nil {
		channel.Name = *update.Name
	}
	if update.Description != nil {
		channel.Description = *update.Description
	}
	if update.Settings != nil {
		channel.Settings = update.Settings
	}
	return nil
}

// DeleteChannel deletes a channel. Ownership is enforced by the server.
func (a *Account) DeleteChannel(ctx context.Context, channel *Channel) error {
	_, err := a.request(ctx, http.MethodDelete, fmt.Sprintf("/api/channels/%d", channel.ID), nil, nil)
	return err
}

// channelFromResponse extracts a Channel from a mutation response, accepting
// either a bare channel object or one nested under "channel" or "data".
func channelFromResponse(body []byte) *Channel {
	data := decodeObject(body)
	if data == nil {
		return nil
	}
	if nested := asMap(firstPresent(data, "channel", "data")); nested != nil {
		data = nested
	}
	channel := ChannelFromPayload(data)
	return &channel
}

// channelMessageFromResponse extracts a ChannelMessage from a mutation
// response, filling in the channel id when the server omits it.
func channelMessageFromResponse(body []byte, channelID int64) *ChannelMessage {
	data := decodeObject(body)
	if data == nil {
		return nil
	}
	if nested := asMap(firstPresent(data, "message", "data")); nested != nil {
		data = nested
	}
	message := ChannelMessageFromPayload(data)
	if message.ChannelID == 0 {
		message.ChannelID = channelID
	}
	return &message
}
