package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/pkg/platform"
)

const (
	eventsCategoryName = "Organized Events"
	eventsChannelName  = "all-events"
	talkChannelName    = "event-talk"
)

// Platform binds platform.Chat to a discordgo session. Discord 404s are
// translated to fault.ErrNotFound so the core never sees transport errors.
type Platform struct {
	session *discordgo.Session

	mu            sync.Mutex
	eventsChannel map[string]string // guildID -> channelID
}

func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{session: session, eventsChannel: map[string]string{}}
}

func (p *Platform) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	member, err := p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to fetch member %s", userID)
	}
	if member.Nick != "" {
		return member.Nick, nil
	}
	return member.User.Username, nil
}

func (p *Platform) SendText(ctx context.Context, channelID, content string) (string, error) {
	msg, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to send message")
	}
	return msg.ID, nil
}

func (p *Platform) PostEmbed(ctx context.Context, channelID string, embed platform.Embed) (string, error) {
	msg, err := p.session.ChannelMessageSendEmbed(channelID, toMessageEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to post embed")
	}
	return msg.ID, nil
}

func (p *Platform) EditEmbed(ctx context.Context, channelID, messageID string, embed platform.Embed) error {
	_, err := p.session.ChannelMessageEditEmbed(channelID, messageID, toMessageEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return wrap(err, "failed to edit message %s", messageID)
	}
	return nil
}

func (p *Platform) React(ctx context.Context, channelID, messageID, emoji string) error {
	apiName, err := p.emojiAPIName(ctx, channelID, emoji)
	if err != nil {
		return err
	}
	if err := p.session.MessageReactionAdd(channelID, messageID, apiName, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "failed to add %s reaction", emoji)
	}
	return nil
}

func (p *Platform) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	apiName, err := p.emojiAPIName(ctx, channelID, emoji)
	if err != nil {
		return err
	}
	if err := p.session.MessageReactionRemove(channelID, messageID, apiName, userID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "failed to remove %s reaction", emoji)
	}
	return nil
}

func (p *Platform) CreateRole(ctx context.Context, guildID, name string) (string, error) {
	role, err := p.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to create role %q", name)
	}
	return role.ID, nil
}

func (p *Platform) DeleteRole(ctx context.Context, guildID, roleID string) error {
	if err := p.session.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "failed to delete role %s", roleID)
	}
	return nil
}

func (p *Platform) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "failed to grant role %s to %s", roleID, userID)
	}
	return nil
}

func (p *Platform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "failed to revoke role %s from %s", roleID, userID)
	}
	return nil
}

// EventsChannel returns the guild's event summary channel, creating the
// "Organized Events" category with its read-only events channel and a talk
// channel the first time a guild uses the bot.
func (p *Platform) EventsChannel(ctx context.Context, guildID string) (string, error) {
	p.mu.Lock()
	if id, ok := p.eventsChannel[guildID]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	channels, err := p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to list channels")
	}

	var categoryID string
	for _, c := range channels {
		if c.Type == discordgo.ChannelTypeGuildCategory && c.Name == eventsCategoryName {
			categoryID = c.ID
			break
		}
	}
	if categoryID != "" {
		for _, c := range channels {
			if c.Type == discordgo.ChannelTypeGuildText && c.ParentID == categoryID && c.Name == eventsChannelName {
				p.remember(guildID, c.ID)
				return c.ID, nil
			}
		}
	}

	id, err := p.createEventChannels(ctx, guildID, categoryID)
	if err != nil {
		return "", err
	}
	p.remember(guildID, id)
	return id, nil
}

func (p *Platform) createEventChannels(ctx context.Context, guildID, categoryID string) (string, error) {
	if categoryID == "" {
		category, err := p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name: eventsCategoryName,
			Type: discordgo.ChannelTypeGuildCategory,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return "", wrap(err, "failed to create events category")
		}
		categoryID = category.ID
	}

	// Summaries are bot-only; members react instead of posting.
	allEvents, err := p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     eventsChannelName,
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    "All events!",
		ParentID: categoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionSendMessages,
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to create events channel")
	}

	_, err = p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     talkChannelName,
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    "Discuss and talk about upcoming/past events.",
		ParentID: categoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to create talk channel")
	}
	return allEvents.ID, nil
}

// emojiAPIName resolves an emoji name to the name:id form custom emoji need
// on the reaction endpoints. Names with no matching guild emoji are passed
// through untouched so plain unicode emoji still work.
func (p *Platform) emojiAPIName(ctx context.Context, channelID, name string) (string, error) {
	channel, err := p.channel(ctx, channelID)
	if err != nil {
		return "", err
	}
	emojis, err := p.session.GuildEmojis(channel.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrap(err, "failed to list guild emoji")
	}
	for _, e := range emojis {
		if e.Name == name {
			return e.APIName(), nil
		}
	}
	return name, nil
}

func (p *Platform) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c, err := p.session.State.Channel(channelID); err == nil {
		return c, nil
	}
	c, err := p.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "failed to fetch channel %s", channelID)
	}
	return c, nil
}

func (p *Platform) remember(guildID, channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventsChannel[guildID] = channelID
}

func toMessageEmbed(e platform.Embed) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		Fields:      fields,
	}
}

// wrap maps Discord 404s onto the not-found fault so the core can tolerate
// deleted messages, roles and departed members uniformly.
func wrap(err error, format string, args ...any) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return fault.NotFound("%s: %v", fmt.Sprintf(format, args...), err)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
