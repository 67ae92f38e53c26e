// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

// Identity is the stable public-facing profile of a platform user. Fields
// change only through explicit profile updates, never as a side effect of
// reads.
type Identity struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Avatar      string `json:"avatar"`
	AvatarEmoji string `json:"avatar_emoji"`
	Bio         string `json:"bio"`
	IsVerified  bool   `json:"is_verified"`
	IsAdmin     bool   `json:"is_admin"`
}

// Reaction is an emoji reaction aggregate on a message. A message holds at
// most one Reaction per emoji.
type Reaction struct {
	Emoji   string  `json:"emoji"`
	Count   int     `json:"count"`
	UserIDs []int64 `json:"user_ids"`
}

// Message is a direct message between two identities. Sender and Receiver
// are values, not references to live sessions: a Message stays valid after
// the Account that fetched it is replaced.
type Message struct {
	ID        int64      `json:"id"`
	Sender    Identity   `json:"sender"`
	Receiver  Identity   `json:"receiver"`
	Text      string     `json:"text"`
	Image     string     `json:"image"`
	ReadAt    string     `json:"read_at"`
	EditedAt  string     `json:"edited_at"`
	CreatedAt string     `json:"created_at"`
	Reactions []Reaction `json:"reactions"`
}

// HasReaction reports whether the message carries a reaction with the given
// emoji.
func (m *Message) HasReaction(emoji string) bool {
	for _, reaction := range m.Reactions {
		if reaction.Emoji == emoji {
			return true
		}
	}
	return false
}

// ReactionCount returns the aggregate count for the given emoji, or 0 when
// no such reaction exists.
func (m *Message) ReactionCount(emoji string) int {
	for _, reaction := range m.Reactions {
		if reaction.Emoji == emoji {
			return reaction.Count
		}
	}
	return 0
}

// Chat is one entry in the account's chat list: the peer identity plus the
// most recent message and unread count.
type Chat struct {
	Peer        Identity `json:"peer"`
	LastMessage *Message `json:"last_message"`
	Unread      int      `json:"unread"`
}

// Channel is a broadcast channel. Settings and Permissions are open-ended
// server-defined mappings and are carried through as-is.
type Channel struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Avatar      string         `json:"avatar"`
	Owner       Identity       `json:"owner"`
	Settings    map[string]any `json:"settings"`
	Permissions map[string]any `json:"permissions"`
	MemberCount int            `json:"member_count"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// ChannelMessage is a post in a channel.
type ChannelMessage struct {
	ID           int64      `json:"id"`
	ChannelID    int64      `json:"channel_id"`
	Author       Identity   `json:"author"`
	Text         string     `json:"text"`
	Image        string     `json:"image"`
	Pinned       bool       `json:"pinned"`
	Reactions    []Reaction `json:"reactions"`
	CommentCount int        `json:"comment_count"`
	CreatedAt    string     `json:"created_at"`
	EditedAt     string     `json:"edited_at"`
}

// HasReaction reports whether the post carries a reaction with the given
// emoji.
func (m *ChannelMessage) HasReaction(emoji string) bool {
	for _, reaction := range m.Reactions {
		if reaction.Emoji == emoji {
			return true
		}
	}
	return false
}

// ChannelMember is a membership record in a channel.
type ChannelMember struct {
	ChannelID int64    `json:"channel_id"`
	User      Identity `json:"user"`
	Role      string   `json:"role"`
	JoinedAt  string   `json:"joined_at"`
}

// Project is a public project listing (unauthenticated endpoint).
type Project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ButtonText  string `json:"button_text"`
	Link        string `json:"link"`
	Order       int    `json:"order"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Member is a public site-team listing (unauthenticated endpoint).
type Member struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	Photo     string `json:"photo"`
	Group     string `json:"group"`
	Telegram  string `json:"telegram"`
	ITD       string `json:"itd"`
	Order     int    `json:"order"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// News is a public news listing (unauthenticated endpoint).
type News struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Image       string `json:"image"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
	Views       int    `json:"views"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// AccountSession is one entry from the active-session listing for the
// authenticated account.
type AccountSession struct {
	ID         int64  `json:"id"`
	Device     string `json:"device"`
	IP         string `json:"ip"`
	LastActive string `json:"last_active"`
	Current    bool   `json:"current"`
}

// SupportTicket is a support ticket created by or for the account.
type SupportTicket struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// PrivacySettings are the four boolean privacy toggles on an account.
type PrivacySettings struct {
	ProfilePublic bool `json:"profile_public"`
	ShowOnline    bool `json:"show_online"`
	AllowMessages bool `json:"allow_messages"`
	ShowInSearch  bool `json:"show_in_search"`
}

// ProfileUpdate selects profile fields to change. Nil fields keep their
// current value.
type ProfileUpdate struct {
	Nickname    *string
	Username    *string
	Bio         *string
	AvatarEmoji *string
}

// RegisterOptions controls account creation. Empty fields are generated:
// username, password, and nickname randomly, and the email with a random
// local part at a domain drawn from EmailDomains (falling back to the
// client's configured list, then the four standard domains).
type RegisterOptions struct {
	Username     string
	Email        string
	Password     string
	Nickname     string
	EmailDomains []string
}

// ChannelUpdate selects channel fields to change. Nil fields keep their
// current value; a non-nil Settings map replaces the settings wholesale.
type ChannelUpdate struct {
	Name        *string
	Description *string
	Settings    map[string]any
}
