package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribers of the topic only", func(t *testing.T) {
		b := New()
		var created, expired []Note
		b.Subscribe(EventCreated, func(ctx context.Context, n Note) { created = append(created, n) })
		b.Subscribe(EventExpired, func(ctx context.Context, n Note) { expired = append(expired, n) })

		b.Publish(ctx, EventCreated, EventRef{EventID: 1, GuildID: "g", Name: "n"})

		assert.Len(t, created, 1)
		assert.Empty(t, expired)
		assert.Equal(t, EventRef{EventID: 1, GuildID: "g", Name: "n"}, created[0].Data)
	})

	t.Run("a panicking subscriber does not block the rest", func(t *testing.T) {
		b := New()
		var reached bool
		b.Subscribe(DecisionChanged, func(ctx context.Context, n Note) { panic("boom") })
		b.Subscribe(DecisionChanged, func(ctx context.Context, n Note) { reached = true })

		b.Publish(ctx, DecisionChanged, DecisionChange{EventID: 1})
		assert.True(t, reached)
	})

	t.Run("publish with no subscribers is a no-op", func(t *testing.T) {
		New().Publish(ctx, EventExpired, nil)
	})
}
