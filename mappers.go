// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import "strconv"

// Entity mappers convert loosely-shaped server payloads into typed records.
// Every field read is defensive: absent, null, and wrong-typed values all
// degrade to the field's documented default (0 for ids, "" for strings,
// per-field defaults for booleans, empty for collections). A malformed
// payload never causes a mapper to fail.

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asInt(value any) int {
	return int(asInt64(value))
}

func asBool(value any, fallback bool) bool {
	b, ok := value.(bool)
	if !ok {
		return fallback
	}
	return b
}

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asList(value any) []any {
	l, _ := value.([]any)
	return l
}

// identityFrom maps a nested user object to an Identity. When the upstream
// field is a bare integer ID instead of an object, it synthesizes a minimal
// Identity carrying just that ID.
func identityFrom(value any) Identity {
	if nested := asMap(value); nested != nil {
		return UserFromPayload(nested)
	}
	if id := asInt64(value); id != 0 {
		return Identity{ID: id}
	}
	return Identity{}
}

// UserFromPayload maps a user payload to an Identity. Boolean flags default
// to false.
func UserFromPayload(data map[string]any) Identity {
	return Identity{
		ID:          asInt64(data["id"]),
		Username:    asString(data["username"]),
		Nickname:    asString(data["nickname"]),
		Avatar:      asString(data["photo"]),
		AvatarEmoji: asString(data["avatar_emoji"]),
		Bio:         asString(data["bio"]),
		IsVerified:  asBool(data["is_verified"], false),
		IsAdmin:     asBool(data["is_admin"], false),
	}
}

// ReactionFromPayload maps a reaction aggregate.
func ReactionFromPayload(data map[string]any) Reaction {
	reaction := Reaction{
		Emoji: asString(data["emoji"]),
		Count: asInt(data["count"]),
	}
	for _, entry := range asList(data["user_ids"]) {
		if id := asInt64(entry); id != 0 {
			reaction.UserIDs = append(reaction.UserIDs, id)
		}
	}
	return reaction
}

// reactionsFrom maps a reaction list, keeping order and dropping duplicate
// emoji. First occurrence wins.
func reactionsFrom(value any) []Reaction {
	var reactions []Reaction
	seen := make(map[string]bool)
	for _, entry := range asList(value) {
		data := asMap(entry)
		if data == nil {
			continue
		}
		reaction := ReactionFromPayload(data)
		if seen[reaction.Emoji] {
			continue
		}
		seen[reaction.Emoji] = true
		reactions = append(reactions, reaction)
	}
	return reactions
}

// MessageFromPayload maps a direct message. Sender and receiver may arrive
// as nested user objects or bare integer ids; both forms resolve to an
// Identity. Text is read from "message" with "text" as a fallback, matching
// the two shapes the platform serves.
func MessageFromPayload(data map[string]any) Message {
	text := asString(data["message"])
	if text == "" {
		text = asString(data["text"])
	}

	sender := identityFrom(data["sender"])
	if sender.ID == 0 {
		sender = identityFrom(data["sender_id"])
	}
	receiver := identityFrom(data["receiver"])
	if receiver.ID == 0 {
		receiver = identityFrom(data["receiver_id"])
	}

	return Message{
		ID:        asInt64(data["id"]),
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		Image:     asString(data["image"]),
		ReadAt:    asString(data["read_at"]),
		EditedAt:  asString(data["edited_at"]),
		CreatedAt: asString(data["created_at"]),
		Reactions: reactionsFrom(data["reactions"]),
	}
}

// ChannelFromPayload maps a channel.
func ChannelFromPayload(data map[string]any) Channel {
	return Channel{
		ID:          asInt64(data["id"]),
		Name:        asString(data["name"]),
		Description: asString(data["description"]),
		Avatar:      asString(data["avatar"]),
		Owner:       identityFrom(firstPresent(data, "owner", "owner_id")),
		Settings:    asMap(data["settings"]),
		Permissions: asMap(data["permissions"]),
		MemberCount: asInt(data["member_count"]),
		CreatedAt:   asString(data["created_at"]),
		UpdatedAt:   asString(data["updated_at"]),
	}
}

// ChannelMessageFromPayload maps a channel post.
func ChannelMessageFromPayload(data map[string]any) ChannelMessage {
	text := asString(data["message"])
	if text == "" {
		text = asString(data["text"])
	}
	return ChannelMessage{
		ID:           asInt64(data["id"]),
		ChannelID:    asInt64(data["channel_id"]),
		Author:       identityFrom(firstPresent(data, "author", "sender", "author_id")),
		Text:         text,
		Image:        asString(data["image"]),
		Pinned:       asBool(data["pinned"], false),
		Reactions:    reactionsFrom(data["reactions"]),
		CommentCount: asInt(data["comment_count"]),
		CreatedAt:    asString(data["created_at"]),
		EditedAt:     asString(data["edited_at"]),
	}
}

// ChannelMemberFromPayload maps a channel membership record.
func ChannelMemberFromPayload(data map[string]any) ChannelMember {
	return ChannelMember{
		ChannelID: asInt64(data["channel_id"]),
		User:      identityFrom(firstPresent(data, "user", "user_id")),
		Role:      asString(data["role"]),
		JoinedAt:  asString(data["joined_at"]),
	}
}

// ProjectFromPayload maps a public project listing. is_active defaults to
// true.
func ProjectFromPayload(data map[string]any) Project {
	return Project{
		ID:          asInt64(data["id"]),
		Title:       asString(data["title"]),
		Description: asString(data["description"]),
		Image:       asString(data["image"]),
		ButtonText:  asString(data["button_text"]),
		Link:        asString(data["link"]),
		Order:       asInt(data["order"]),
		IsActive:    asBool(data["is_active"], true),
		CreatedAt:   asString(data["created_at"]),
		UpdatedAt:   asString(data["updated_at"]),
	}
}

// MemberFromPayload maps a public team-member listing. is_active defaults to
// true.
func MemberFromPayload(data map[string]any) Member {
	return Member{
		ID:        asInt64(data["id"]),
		Nickname:  asString(data["nickname"]),
		Photo:     asString(data["photo"]),
		Group:     asString(data["group"]),
		Telegram:  asString(data["telegram"]),
		ITD:       asString(data["itd"]),
		Order:     asInt(data["order"]),
		IsActive:  asBool(data["is_active"], true),
		CreatedAt: asString(data["created_at"]),
		UpdatedAt: asString(data["updated_at"]),
	}
}

// NewsFromPayload maps a public news listing. is_published defaults to true.
func NewsFromPayload(data map[string]any) News {
	return News{
		ID:          asInt64(data["id"]),
		Title:       asString(data["title"]),
		Subtitle:    asString(data["subtitle"]),
		Image:       asString(data["image"]),
		Content:     asString(data["content"]),
		IsPublished: asBool(data["is_published"], true),
		Views:       asInt(data["views"]),
		CreatedAt:   asString(data["created_at"]),
		UpdatedAt:   asString(data["updated_at"]),
	}
}

// SupportTicketFromPayload maps a support ticket.
func SupportTicketFromPayload(data map[string]any) SupportTicket {
	id := asInt64(data["id"])
	if id == 0 {
		id = asInt64(data["ticket"])
	}
	return SupportTicket{
		ID:        id,
		Subject:   asString(data["subject"]),
		Status:    asString(data["status"]),
		CreatedAt: asString(data["created_at"]),
	}
}

// AccountSessionFromPayload maps an active-session listing entry.
func AccountSessionFromPayload(data map[string]any) AccountSession {
	return AccountSession{
		ID:         asInt64(data["id"]),
		Device:     asString(data["device"]),
		IP:         asString(data["ip"]),
		LastActive: asString(data["last_active"]),
		Current:    asBool(data["current"], false),
	}
}

// firstPresent returns the first of the named keys that exists in data,
// regardless of its value.
func firstPresent(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := data[key]; ok {
			return value
		}
	}
	return nil
}
