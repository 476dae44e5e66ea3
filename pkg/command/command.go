package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/expiry"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/lookup"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/render"
	"github.com/gatherbot/gatherbot/pkg/rsvp"
	"github.com/gatherbot/gatherbot/pkg/timezone"
	log "github.com/sirupsen/logrus"
)

const roleNameLimit = 30

// Config carries the dispatcher settings.
type Config struct {
	Prefix        string
	PromptTimeout time.Duration
	ExampleColor  int
}

// Incoming is one guild message as seen by the dispatcher. Bot-authored
// messages are filtered out by the gateway before reaching it.
type Incoming struct {
	GuildID   string
	ChannelID string
	UserID    string
	Content   string
}

// Service parses commands and runs the interactive event-creation prompt.
type Service struct {
	cfg      Config
	events   event.Service
	guilds   guild.Service
	chat     platform.Chat
	renderer *render.Renderer
	lookup   *lookup.Lookup
	sched    *expiry.Scheduler
	notes    *bus.Bus
	sessions *Sessions
	emoji    rsvp.EmojiMap
}

func NewService(cfg Config, events event.Service, guilds guild.Service, chat platform.Chat,
	renderer *render.Renderer, lk *lookup.Lookup, sched *expiry.Scheduler,
	notes *bus.Bus, emoji rsvp.EmojiMap) *Service {
	return &Service{
		cfg:      cfg,
		events:   events,
		guilds:   guilds,
		chat:     chat,
		renderer: renderer,
		lookup:   lk,
		sched:    sched,
		notes:    notes,
		sessions: NewSessions(),
		emoji:    emoji,
	}
}

// Handle routes one guild message: prompt replies first, then prefixed
// commands. Everything else is ignored.
func (s *Service) Handle(ctx context.Context, msg Incoming) {
	if s.sessions.Deliver(msg.GuildID, msg.UserID, msg.Content) {
		return
	}
	if !strings.HasPrefix(msg.Content, s.cfg.Prefix) {
		return
	}

	args := strings.Fields(msg.Content)
	cmd := strings.ToLower(strings.TrimPrefix(args[0], s.cfg.Prefix))

	switch cmd {
	case "newevent":
		s.newEvent(ctx, msg, strings.TrimSpace(strings.Join(args[1:], " ")))
	case "setutc":
		s.setUTC(ctx, msg, args[1:])
	}
}

func (s *Service) newEvent(ctx context.Context, msg Incoming, name string) {
	if name == "" {
		s.reply(ctx, msg.ChannelID, "Please specify a valid name for this event.")
		return
	}

	conflicting, err := s.events.FindByName(ctx, msg.GuildID, name)
	if err != nil {
		s.reply(ctx, msg.ChannelID, "An error occurred, please try again later.")
		return
	}
	if conflicting != nil {
		s.reply(ctx, msg.ChannelID, "An event with that name is already scheduled.")
		return
	}

	sess, ok := s.sessions.Begin(msg.GuildID, msg.UserID)
	if !ok {
		return
	}
	defer s.sessions.End(msg.GuildID, msg.UserID)

	localDate, description, err := s.prompt(ctx, msg, sess)
	if err != nil {
		if fault.IsTimeout(err) {
			s.reply(ctx, msg.ChannelID, "Event creation expired after inactivity.")
		}
		return
	}

	if err := s.create(ctx, msg, name, description, localDate); err != nil {
		// Anything created so far is rolled back; no partial event
		// may linger under a name that would block a retry.
		if rbErr := s.events.Rollback(ctx, msg.GuildID, name); rbErr != nil {
			log.Errorf("rollback of event %q failed: %v", name, rbErr)
		}
		switch {
		case fault.IsConflict(err):
			s.reply(ctx, msg.ChannelID, "An event with that name is already scheduled.")
		default:
			log.Errorf("event creation failed for %q: %v", name, err)
			s.reply(ctx, msg.ChannelID, "An error occurred, please try again later.")
		}
	}
}

// prompt collects the event time and description from the author, one reply
// at a time.
func (s *Service) prompt(ctx context.Context, msg Incoming, sess *Session) (time.Time, string, error) {
	timeQuestion := platform.Embed{
		Description: "At what time would this event be occurring? *Please format as " +
			timezone.InputLayout + " (24 hour time)*",
		Color:  s.cfg.ExampleColor,
		Fields: []platform.EmbedField{{Name: "Example", Value: "25/12/2025 17:00"}},
	}
	if _, err := s.chat.PostEmbed(ctx, msg.ChannelID, timeQuestion); err != nil {
		log.Warnf("could not post time prompt: %v", err)
	}
	timeReply, err := s.await(ctx, sess, timezone.ValidInput)
	if err != nil {
		return time.Time{}, "", err
	}
	localDate, err := timezone.ParseInput(timeReply)
	if err != nil {
		return time.Time{}, "", err
	}

	descQuestion := platform.Embed{
		Description: "Please give a short description of the event.",
		Color:       s.cfg.ExampleColor,
		Fields:      []platform.EmbedField{{Name: "Example", Value: "We'll be singing Christmas carols or something."}},
	}
	if _, err := s.chat.PostEmbed(ctx, msg.ChannelID, descQuestion); err != nil {
		log.Warnf("could not post description prompt: %v", err)
	}
	description, err := s.await(ctx, sess, nil)
	if err != nil {
		return time.Time{}, "", err
	}
	return localDate, description, nil
}

// create persists the event and performs the post-create side effects: role,
// summary post, lookup entry, reaction seeding and expiry scheduling.
func (s *Service) create(ctx context.Context, msg Incoming, name, description string, localDate time.Time) error {
	s.reply(ctx, msg.ChannelID, "*Creating event...*")

	created, err := s.events.Create(ctx, msg.GuildID, name, description, localDate)
	if err != nil {
		return err
	}

	if roleID, err := s.chat.CreateRole(ctx, msg.GuildID, truncate(created.Name, roleNameLimit)); err != nil {
		log.Errorf("could not create role for event %q: %v", created.Name, err)
	} else if err := s.events.SetRole(ctx, created.ID, roleID); err != nil {
		log.Errorf("could not attach role %s to event %d: %v", roleID, created.ID, err)
	} else {
		created.RoleID = roleID
	}

	channelID, err := s.chat.EventsChannel(ctx, msg.GuildID)
	if err != nil {
		return fmt.Errorf("failed to resolve events channel: %w", err)
	}

	g, err := s.guilds.Get(ctx, msg.GuildID)
	if err != nil {
		return err
	}
	embed := s.renderer.Render(ctx, g, created)
	messageID, err := s.chat.PostEmbed(ctx, channelID, embed)
	if err != nil {
		return fmt.Errorf("failed to post event summary: %w", err)
	}

	if err := s.lookup.Store(ctx, event.EventPost{
		MessageID: messageID, ChannelID: channelID, EventID: created.ID,
	}); err != nil {
		return fmt.Errorf("failed to store event post: %w", err)
	}

	s.sched.Schedule(created)

	for _, symbol := range []string{s.emoji.Going, s.emoji.NotGoing, s.emoji.Unsure, s.emoji.Remove} {
		if err := s.chat.React(ctx, channelID, messageID, symbol); err != nil {
			log.Warnf("could not seed %s reaction on event %d: %v", symbol, created.ID, err)
		}
	}

	s.notes.Publish(ctx, bus.EventCreated, bus.EventRef{
		EventID: created.ID, GuildID: created.GuildID, Name: created.Name,
	})
	s.reply(ctx, msg.ChannelID, fmt.Sprintf("New event ***%s*** created!", created.Name))
	return nil
}

func (s *Service) setUTC(ctx context.Context, msg Incoming, args []string) {
	if len(args) == 0 {
		s.reply(ctx, msg.ChannelID, "Please specify the UTC offset, e.g. `setutc 2`.")
		return
	}
	offset, err := strconv.Atoi(args[0])
	if err != nil {
		s.reply(ctx, msg.ChannelID, "Could not update timezone: offset must be a whole number of hours.")
		return
	}
	if _, err := s.guilds.SetUTCOffset(ctx, msg.GuildID, offset); err != nil {
		log.Errorf("could not update timezone for guild %s: %v", msg.GuildID, err)
		s.reply(ctx, msg.ChannelID, "Could not update timezone, please try again later.")
		return
	}
	sign := ""
	if offset > 0 {
		sign = "+"
	}
	s.reply(ctx, msg.ChannelID, fmt.Sprintf("This guild is now in UTC%s%d", sign, offset))
}

// await blocks for the next session reply accepted by valid (nil accepts
// anything) or until the prompt timeout elapses.
func (s *Service) await(ctx context.Context, sess *Session, valid func(string) bool) (string, error) {
	timer := time.NewTimer(s.cfg.PromptTimeout)
	defer timer.Stop()
	for {
		select {
		case reply := <-sess.replies:
			if valid == nil || valid(reply) {
				return reply, nil
			}
		case <-timer.C:
			return "", fault.Timeout("no reply within %s", s.cfg.PromptTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *Service) reply(ctx context.Context, channelID, content string) {
	if _, err := s.chat.SendText(ctx, channelID, content); err != nil {
		log.Debugf("could not send reply: %v", err)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
