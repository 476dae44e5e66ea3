package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/utils"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grace = 24 * time.Hour

type fixture struct {
	events *event.StubRepo
	chat   *platform.StubChat
	clock  *utils.MockClock
	sched  *Scheduler
	event  event.Event
}

func newFixture(t *testing.T, roleID string) *fixture {
	t.Helper()
	ctx := context.Background()

	events := event.NewStubRepo()
	guilds := guild.NewStubRepo()
	chat := platform.NewStubChat()
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.December, 26, 18, 0, 0, 0, time.UTC)}

	created, err := events.Create(ctx, event.Event{
		GuildID: "g1",
		Name:    "Movie Night",
		Date:    time.Date(2025, time.December, 25, 17, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	if roleID != "" {
		chat.Roles[roleID] = true
		require.NoError(t, events.SetRole(ctx, created.ID, roleID))
		created.RoleID = roleID
	}
	require.NoError(t, events.StorePost(ctx, event.EventPost{
		MessageID: "m1", ChannelID: "c1", EventID: created.ID,
	}))

	renderer := render.New(chat, render.Colors{Active: 1, Expired: 2}, render.Glyphs{})
	sched := New(events, guilds, chat, renderer, bus.New(), grace).WithClock(clock)

	return &fixture{events: events, chat: chat, clock: clock, sched: sched, event: created}
}

func (f *fixture) reload(t *testing.T) *event.Event {
	t.Helper()
	e, err := f.events.FindByID(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func TestExpire(t *testing.T) {
	ctx := context.Background()

	t.Run("marks expired, deletes the role and clears it", func(t *testing.T) {
		f := newFixture(t, "role-1")

		require.NoError(t, f.sched.Expire(ctx, f.event.ID))

		e := f.reload(t)
		assert.True(t, e.Expired)
		assert.Empty(t, e.RoleID)
		assert.NotContains(t, f.chat.Roles, "role-1")
	})

	t.Run("re-renders the summary in the expired color", func(t *testing.T) {
		f := newFixture(t, "")

		require.NoError(t, f.sched.Expire(ctx, f.event.ID))

		embed, ok := f.chat.Posted["m1"]
		require.True(t, ok)
		assert.Equal(t, 2, embed.Color)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t, "role-1")

		require.NoError(t, f.sched.Expire(ctx, f.event.ID))
		require.NoError(t, f.sched.Expire(ctx, f.event.ID))

		e := f.reload(t)
		assert.True(t, e.Expired)
		assert.Empty(t, e.RoleID)
	})

	t.Run("tolerates an already deleted role", func(t *testing.T) {
		f := newFixture(t, "role-1")
		delete(f.chat.Roles, "role-1")

		require.NoError(t, f.sched.Expire(ctx, f.event.ID))
		assert.Empty(t, f.reload(t).RoleID)
	})

	t.Run("vanished event is a no-op", func(t *testing.T) {
		f := newFixture(t, "")
		assert.NoError(t, f.sched.Expire(ctx, 999))
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("expires events past date plus grace", func(t *testing.T) {
		f := newFixture(t, "")
		// Date 25th 17:00, grace 24h, clock 26th 18:00 -> past due.
		require.NoError(t, f.sched.Sweep(ctx))
		assert.True(t, f.reload(t).Expired)
	})

	t.Run("leaves events inside the grace window and arms a timer", func(t *testing.T) {
		f := newFixture(t, "")
		f.clock.SetNow(time.Date(2025, time.December, 25, 18, 0, 0, 0, time.UTC))

		require.NoError(t, f.sched.Sweep(ctx))
		assert.False(t, f.reload(t).Expired)

		f.sched.mu.Lock()
		_, armed := f.sched.timers[f.event.ID]
		f.sched.mu.Unlock()
		assert.True(t, armed)
		f.sched.Stop()
	})

	t.Run("skips already expired events", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.sched.Expire(ctx, f.event.ID))
		edits := len(f.chat.Posted)

		require.NoError(t, f.sched.Sweep(ctx))
		assert.Len(t, f.chat.Posted, edits)
	})
}

func TestSchedule(t *testing.T) {
	t.Run("arming twice keeps a single timer", func(t *testing.T) {
		f := newFixture(t, "")
		f.clock.SetNow(f.event.Date.Add(-time.Hour))

		f.sched.Schedule(f.event)
		f.sched.Schedule(f.event)

		f.sched.mu.Lock()
		assert.Len(t, f.sched.timers, 1)
		f.sched.mu.Unlock()
		f.sched.Stop()
	})
}
