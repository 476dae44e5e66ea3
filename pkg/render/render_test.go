package render

import (
	"context"
	"testing"
	"time"

	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColors = Colors{Active: 0x2ECC71, Expired: 0x95A5A6}

func testEvent() event.Event {
	return event.Event{
		ID:          42,
		GuildID:     "g1",
		Name:        "Movie Night",
		Description: "Christmas carols or something.",
		Date:        time.Date(2025, time.December, 25, 15, 0, 0, 0, time.UTC),
		Participants: []event.Participant{
			{UserID: "u1", Decision: event.Going},
			{UserID: "u2", Decision: event.Going},
			{UserID: "u3", Decision: event.Unsure},
		},
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()

	t.Run("builds title, time and the three decision groups", func(t *testing.T) {
		chat := platform.NewStubChat()
		chat.Members = map[string]string{"u1": "Alice", "u2": "Bob", "u3": "Carol"}
		r := New(chat, testColors, Glyphs{})

		embed := r.Render(ctx, guild.Guild{ID: "g1", UTCOffset: 2}, testEvent())

		assert.Equal(t, "[42] Movie Night", embed.Title)
		assert.Equal(t, "Christmas carols or something.", embed.Description)
		assert.Equal(t, testColors.Active, embed.Color)
		require.Len(t, embed.Fields, 4)

		assert.Equal(t, "Time", embed.Fields[0].Name)
		assert.Equal(t, "Thu, 25 Dec 2025 17:00", embed.Fields[0].Value)

		assert.Equal(t, "Going (2)", embed.Fields[1].Name)
		assert.Equal(t, "Alice\nBob", embed.Fields[1].Value)
		assert.Equal(t, "Not Going (0)", embed.Fields[2].Name)
		assert.Equal(t, "-", embed.Fields[2].Value)
		assert.Equal(t, "Unsure (1)", embed.Fields[3].Name)
		assert.Equal(t, "Carol", embed.Fields[3].Value)
	})

	t.Run("omits members who left the guild", func(t *testing.T) {
		chat := platform.NewStubChat()
		chat.Members = map[string]string{"u1": "Alice", "u3": "Carol"} // u2 left
		r := New(chat, testColors, Glyphs{})

		embed := r.Render(ctx, guild.Guild{ID: "g1"}, testEvent())

		assert.Equal(t, "Going (1)", embed.Fields[1].Name)
		assert.Equal(t, "Alice", embed.Fields[1].Value)
	})

	t.Run("expired event uses the expired color", func(t *testing.T) {
		chat := platform.NewStubChat()
		r := New(chat, testColors, Glyphs{})
		e := testEvent()
		e.Expired = true

		embed := r.Render(ctx, guild.Guild{ID: "g1"}, e)
		assert.Equal(t, testColors.Expired, embed.Color)
	})

	t.Run("glyphs prefix the group labels", func(t *testing.T) {
		chat := platform.NewStubChat()
		r := New(chat, testColors, Glyphs{Going: ":tick:", NotGoing: ":cross:", Unsure: ":question:"})

		embed := r.Render(ctx, guild.Guild{ID: "g1"}, testEvent())
		assert.Equal(t, ":tick: Going (0)", embed.Fields[1].Name)
		assert.Equal(t, ":cross: Not Going (0)", embed.Fields[2].Name)
		assert.Equal(t, ":question: Unsure (0)", embed.Fields[3].Name)
	})

	t.Run("display time follows the guild's current offset", func(t *testing.T) {
		chat := platform.NewStubChat()
		r := New(chat, testColors, Glyphs{})

		embed := r.Render(ctx, guild.Guild{ID: "g1", UTCOffset: -5}, testEvent())
		assert.Equal(t, "Thu, 25 Dec 2025 10:00", embed.Fields[0].Value)
	})
}
