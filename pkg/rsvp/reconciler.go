package rsvp

import (
	"context"
	"fmt"
	"sync"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/internal/utils"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/lookup"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/render"
	log "github.com/sirupsen/logrus"
)

// EmojiMap maps reaction symbol names to RSVP actions.
type EmojiMap struct {
	Going    string
	NotGoing string
	Unsure   string
	Remove   string
}

// Decision returns the decision a symbol maps to, or false for the remove
// symbol and unknown symbols.
func (m EmojiMap) Decision(symbol string) (event.Decision, bool) {
	switch symbol {
	case m.Going:
		return event.Going, true
	case m.NotGoing:
		return event.NotGoing, true
	case m.Unsure:
		return event.Unsure, true
	}
	return "", false
}

// Reconciler translates a raw reaction into persisted decision state, role
// membership and a refreshed summary. Pipelines for the same event run
// serially; different events proceed independently.
type Reconciler struct {
	events   event.Repo
	guilds   guild.Repo
	lookup   *lookup.Lookup
	chat     platform.Chat
	renderer *render.Renderer
	notes    *bus.Bus
	clock    utils.Clock
	emoji    EmojiMap

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func New(events event.Repo, guilds guild.Repo, lk *lookup.Lookup, chat platform.Chat,
	renderer *render.Renderer, notes *bus.Bus, emoji EmojiMap) *Reconciler {
	return &Reconciler{
		events:   events,
		guilds:   guilds,
		lookup:   lk,
		chat:     chat,
		renderer: renderer,
		notes:    notes,
		clock:    utils.SystemClock{},
		emoji:    emoji,
		locks:    map[int]*sync.Mutex{},
	}
}

// OnReaction runs the full pipeline for one qualifying reaction. It returns
// whether the message was an event post at all; the only error returned is a
// failed decision write, which aborts the role sync and re-render (the raw
// reaction is still cleaned up).
func (r *Reconciler) OnReaction(ctx context.Context, guildID, channelID, messageID, userID, symbol string) (bool, error) {
	eventID, ok, err := r.lookup.Resolve(ctx, messageID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	unlock := r.lockEvent(eventID)
	defer unlock()

	// Raw reaction cleanup happens regardless of whether a decision was
	// accepted; the persisted state is authoritative either way.
	defer func() {
		if err := r.chat.RemoveReaction(ctx, channelID, messageID, symbol, userID); err != nil {
			log.Debugf("could not remove reaction %s from message %s: %v", symbol, messageID, err)
		}
	}()

	e, err := r.events.FindByID(ctx, eventID)
	if err != nil {
		return true, err
	}
	if e == nil {
		// Stale cache entry for a deleted event.
		r.lookup.Forget(ctx, messageID)
		return false, nil
	}

	if e.Expired || !e.Date.After(r.clock.Now()) {
		return true, nil
	}

	if err := r.applyDecision(ctx, e, userID, symbol); err != nil {
		return true, err
	}

	r.refreshSummary(ctx, e.GuildID, eventID, channelID, messageID)
	return true, nil
}

// applyDecision persists the decision change and synchronizes role
// membership. The persistence write is the one failure that aborts the
// pipeline; role failures are tolerated.
func (r *Reconciler) applyDecision(ctx context.Context, e *event.Event, userID, symbol string) error {
	decision, isDecision := r.emoji.Decision(symbol)

	switch {
	case symbol == r.emoji.Remove:
		if err := r.events.RemoveParticipant(ctx, e.ID, userID); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}
		r.notes.Publish(ctx, bus.DecisionChanged, bus.DecisionChange{
			EventID: e.ID, GuildID: e.GuildID, UserID: userID,
		})
	case isDecision:
		if err := r.events.SetParticipant(ctx, e.ID, userID, decision); err != nil {
			return fmt.Errorf("failed to set participant decision: %w", err)
		}
		r.notes.Publish(ctx, bus.DecisionChanged, bus.DecisionChange{
			EventID: e.ID, GuildID: e.GuildID, UserID: userID, Decision: string(decision),
		})
	default:
		// Not an RSVP symbol; nothing to persist.
		return nil
	}

	if e.RoleID != "" {
		r.syncRole(ctx, e, userID, decision == event.Going)
	}
	return nil
}

func (r *Reconciler) syncRole(ctx context.Context, e *event.Event, userID string, affirmative bool) {
	var err error
	if affirmative {
		err = r.chat.AddMemberRole(ctx, e.GuildID, userID, e.RoleID)
	} else {
		err = r.chat.RemoveMemberRole(ctx, e.GuildID, userID, e.RoleID)
	}
	if err != nil {
		if fault.IsNotFound(err) {
			// Member left the guild; their stored decision stands.
			return
		}
		log.Errorf("could not sync role %s for user %s on event %d: %v", e.RoleID, userID, e.ID, err)
	}
}

// refreshSummary reloads the latest committed participant state and re-renders
// the summary post. Failures here never roll back the committed decision.
func (r *Reconciler) refreshSummary(ctx context.Context, guildID string, eventID int, channelID, messageID string) {
	fresh, err := r.events.FindByID(ctx, eventID)
	if err != nil || fresh == nil {
		log.Errorf("could not reload event %d before render: %v", eventID, err)
		return
	}
	g, err := r.guilds.FindOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("could not load guild %s before render: %v", guildID, err)
		return
	}
	embed := r.renderer.Render(ctx, g, *fresh)
	if err := r.chat.EditEmbed(ctx, channelID, messageID, embed); err != nil {
		log.Errorf("could not edit summary after decision change on event %d: %v", eventID, err)
	}
}

func (r *Reconciler) lockEvent(id int) func() {
	r.mu.Lock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// WithClock replaces the clock, for tests.
func (r *Reconciler) WithClock(c utils.Clock) *Reconciler {
	r.clock = c
	return r
}
