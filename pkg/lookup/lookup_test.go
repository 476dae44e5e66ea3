package lookup

import (
	"context"
	"fmt"
	"testing"

	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	post := event.EventPost{MessageID: "m1", ChannelID: "c1", EventID: 7}

	t.Run("cache hit short-circuits the store", func(t *testing.T) {
		cache := NewStubCache()
		cache.Entries["m1"] = 7
		l := New(cache, event.NewStubRepo())

		id, ok, err := l.Resolve(ctx, "m1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
	})

	t.Run("cache miss falls back to the event post row and repopulates", func(t *testing.T) {
		cache := NewStubCache()
		repo := event.NewStubRepo()
		require.NoError(t, repo.StorePost(ctx, post))
		l := New(cache, repo)

		id, ok, err := l.Resolve(ctx, "m1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
		assert.Equal(t, 7, cache.Entries["m1"])
	})

	t.Run("unknown message resolves to absent, not an error", func(t *testing.T) {
		l := New(NewStubCache(), event.NewStubRepo())

		_, ok, err := l.Resolve(ctx, "not-an-event-post")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cache failure degrades to the durable path", func(t *testing.T) {
		cache := NewStubCache()
		cache.GetErr = fmt.Errorf("redis down")
		repo := event.NewStubRepo()
		require.NoError(t, repo.StorePost(ctx, post))
		l := New(cache, repo)

		id, ok, err := l.Resolve(ctx, "m1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
	})
}

func TestStoreAndForget(t *testing.T) {
	ctx := context.Background()
	cache := NewStubCache()
	repo := event.NewStubRepo()
	l := New(cache, repo)

	require.NoError(t, l.Store(ctx, event.EventPost{MessageID: "m2", ChannelID: "c1", EventID: 3}))
	assert.Equal(t, 3, cache.Entries["m2"])
	stored, err := repo.FindPostByMessage(ctx, "m2")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.EventID)

	l.Forget(ctx, "m2")
	assert.NotContains(t, cache.Entries, "m2")
}
