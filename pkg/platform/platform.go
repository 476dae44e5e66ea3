package platform

import "context"

// Embed is the structured summary shape the chat platform renders: a title,
// a description, a list of labelled fields and a color.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// NameResolver resolves a member's display name. Implementations return a
// fault.ErrNotFound-wrapped error when the member is no longer in the guild.
type NameResolver interface {
	DisplayName(ctx context.Context, guildID, userID string) (string, error)
}

// Chat is the capability contract the core holds against the chat platform.
// All "gone" conditions (message, member, role, channel deleted on the
// platform side) surface as fault.ErrNotFound so callers can tolerate them
// without inspecting transport details.
type Chat interface {
	NameResolver

	SendText(ctx context.Context, channelID, content string) (messageID string, err error)
	PostEmbed(ctx context.Context, channelID string, embed Embed) (messageID string, err error)
	EditEmbed(ctx context.Context, channelID, messageID string, embed Embed) error

	React(ctx context.Context, channelID, messageID, emoji string) error
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	CreateRole(ctx context.Context, guildID, name string) (roleID string, err error)
	DeleteRole(ctx context.Context, guildID, roleID string) error
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error

	// EventsChannel returns the channel the event summaries live in,
	// creating the channel structure on first use.
	EventsChannel(ctx context.Context, guildID string) (channelID string, err error)
}
