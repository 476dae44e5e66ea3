package rsvp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/utils"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/lookup"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEmoji = EmojiMap{Going: "tick", NotGoing: "cross", Unsure: "question", Remove: "bin"}

type fixture struct {
	events *event.StubRepo
	guilds *guild.StubRepo
	chat   *platform.StubChat
	clock  *utils.MockClock
	rec    *Reconciler

	eventID   int
	messageID string
	channelID string
}

func newFixture(t *testing.T, roleID string) *fixture {
	t.Helper()
	ctx := context.Background()

	events := event.NewStubRepo()
	guilds := guild.NewStubRepo()
	chat := platform.NewStubChat()
	chat.Members = map[string]string{"u1": "Alice", "u2": "Bob"}
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.December, 24, 12, 0, 0, 0, time.UTC)}

	created, err := events.Create(ctx, event.Event{
		GuildID: "g1",
		Name:    "Movie Night",
		Date:    clock.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	if roleID != "" {
		chat.Roles[roleID] = true
		require.NoError(t, events.SetRole(ctx, created.ID, roleID))
	}
	require.NoError(t, events.StorePost(ctx, event.EventPost{
		MessageID: "m1", ChannelID: "c1", EventID: created.ID,
	}))

	lk := lookup.New(lookup.NewStubCache(), events)
	renderer := render.New(chat, render.Colors{Active: 1, Expired: 2}, render.Glyphs{})
	rec := New(events, guilds, lk, chat, renderer, bus.New(), testEmoji).WithClock(clock)

	return &fixture{
		events: events, guilds: guilds, chat: chat, clock: clock, rec: rec,
		eventID: created.ID, messageID: "m1", channelID: "c1",
	}
}

func (f *fixture) participants(t *testing.T) []event.Participant {
	t.Helper()
	e, err := f.events.FindByID(context.Background(), f.eventID)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e.Participants
}

func TestOnReaction(t *testing.T) {
	ctx := context.Background()

	t.Run("decision symbol upserts the participant row", func(t *testing.T) {
		f := newFixture(t, "")

		handled, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.True(t, handled)
		require.Len(t, f.participants(t), 1)
		assert.Equal(t, event.Going, f.participants(t)[0].Decision)
	})

	t.Run("later decision replaces the earlier one", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		_, err = f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "question")
		require.NoError(t, err)

		require.Len(t, f.participants(t), 1)
		assert.Equal(t, event.Unsure, f.participants(t)[0].Decision)
	})

	t.Run("remove symbol clears the row and the role", func(t *testing.T) {
		f := newFixture(t, "role-1")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.True(t, f.chat.HasRole("u1", "role-1"))

		_, err = f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "bin")
		require.NoError(t, err)
		assert.Empty(t, f.participants(t))
		assert.False(t, f.chat.HasRole("u1", "role-1"))
	})

	t.Run("only the affirmative decision grants the role", func(t *testing.T) {
		f := newFixture(t, "role-1")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.True(t, f.chat.HasRole("u1", "role-1"))

		_, err = f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "cross")
		require.NoError(t, err)
		assert.False(t, f.chat.HasRole("u1", "role-1"))
		require.Len(t, f.participants(t), 1)
		assert.Equal(t, event.NotGoing, f.participants(t)[0].Decision)
	})

	t.Run("member gone from guild does not block the decision", func(t *testing.T) {
		f := newFixture(t, "role-1")
		delete(f.chat.Members, "u1")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		require.Len(t, f.participants(t), 1)
	})

	t.Run("non event post is a no-op", func(t *testing.T) {
		f := newFixture(t, "")

		handled, err := f.rec.OnReaction(ctx, "g1", f.channelID, "random-message", "u1", "tick")
		require.NoError(t, err)
		assert.False(t, handled)
	})

	t.Run("stale cache entry for a deleted event is dropped", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.events.Delete(ctx, "g1", "Movie Night"))

		handled, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.False(t, handled)
	})

	t.Run("no decision changes after the event date", func(t *testing.T) {
		f := newFixture(t, "")
		f.clock.Advance(48 * time.Hour)

		handled, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Empty(t, f.participants(t))
		// The raw reaction is still cleaned up.
		assert.NotEmpty(t, f.chat.Removed)
	})

	t.Run("re-renders the summary after each change", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)

		embed, ok := f.chat.Posted[f.messageID]
		require.True(t, ok)
		assert.Equal(t, "Going (1)", embed.Fields[1].Name)
		assert.Equal(t, "Alice", embed.Fields[1].Value)
	})

	t.Run("render failure leaves the decision committed", func(t *testing.T) {
		f := newFixture(t, "")
		f.chat.FailEdit = fmt.Errorf("message gone")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		require.Len(t, f.participants(t), 1)
	})

	t.Run("failed decision write aborts role sync and render", func(t *testing.T) {
		f := newFixture(t, "role-1")
		f.events.FailSetParticipant = fmt.Errorf("db down")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		assert.Error(t, err)
		assert.False(t, f.chat.HasRole("u1", "role-1"))
		// Cleanup of the raw reaction still happens.
		assert.NotEmpty(t, f.chat.Removed)
	})

	t.Run("always removes the triggering raw reaction", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		require.NoError(t, err)
		assert.Contains(t, f.chat.Removed, "c1/m1/tick/u1")
	})

	t.Run("concurrent reactions from different users both persist", func(t *testing.T) {
		f := newFixture(t, "")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u1", "tick")
		}()
		go func() {
			defer wg.Done()
			_, _ = f.rec.OnReaction(ctx, "g1", f.channelID, f.messageID, "u2", "cross")
		}()
		wg.Wait()

		participants := f.participants(t)
		require.Len(t, participants, 2)
		byUser := map[string]event.Decision{}
		for _, p := range participants {
			byUser[p.UserID] = p.Decision
		}
		assert.Equal(t, event.Going, byUser["u1"])
		assert.Equal(t, event.NotGoing, byUser["u2"])
	})
}
