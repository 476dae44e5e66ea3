package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gatherbot/gatherbot/internal/metrics"
	"github.com/gatherbot/gatherbot/pkg/command"
	"github.com/gatherbot/gatherbot/pkg/rsvp"
	log "github.com/sirupsen/logrus"
)

const handlerTimeout = 30 * time.Second

// Gateway attaches the bot's behavior to the Discord event stream: guild
// messages go to the command dispatcher, reactions to the reconciler.
type Gateway struct {
	session    *discordgo.Session
	commands   *command.Service
	reconciler *rsvp.Reconciler
	metrics    *metrics.Metrics
}

func NewGateway(session *discordgo.Session, commands *command.Service,
	reconciler *rsvp.Reconciler, m *metrics.Metrics) *Gateway {
	return &Gateway{session: session, commands: commands, reconciler: reconciler, metrics: m}
}

// Open registers the handlers and connects the websocket.
func (g *Gateway) Open() error {
	g.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers

	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onMessage)
	g.session.AddHandler(g.onReaction)
	return g.session.Open()
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Infof("Logged in as %s, serving %d guilds", r.User.Username, len(r.Guilds))
}

func (g *Gateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	// Handle may block on a prompt conversation, which carries its own
	// timeout, so every message gets its own goroutine and no deadline.
	go func() {
		g.commands.Handle(context.Background(), command.Incoming{
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			UserID:    m.Author.ID,
			Content:   m.Content,
		})
	}()
}

func (g *Gateway) onReaction(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" || r.UserID == s.State.User.ID {
		return
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		handled, err := g.reconciler.OnReaction(ctx, r.GuildID, r.ChannelID, r.MessageID, r.UserID, r.Emoji.Name)
		switch {
		case err != nil:
			log.Errorf("reaction on message %s by %s failed: %v", r.MessageID, r.UserID, err)
			g.metrics.ReactionHandled("error")
		case handled:
			g.metrics.ReactionHandled("handled")
		default:
			g.metrics.ReactionHandled("ignored")
		}
	}()
}
