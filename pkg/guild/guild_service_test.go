package guild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the guild on first reference", func(t *testing.T) {
		repo := NewStubRepo()
		service := NewService(repo)

		g, err := service.Get(ctx, "guild-1")
		assert.NoError(t, err)
		assert.Equal(t, Guild{ID: "guild-1", UTCOffset: 0}, g)
		assert.Contains(t, repo.Guilds, "guild-1")
	})

	t.Run("returns the existing guild with its offset", func(t *testing.T) {
		repo := NewStubRepo()
		repo.Guilds["guild-1"] = Guild{ID: "guild-1", UTCOffset: 5}
		service := NewService(repo)

		g, err := service.Get(ctx, "guild-1")
		assert.NoError(t, err)
		assert.Equal(t, 5, g.UTCOffset)
	})
}

func TestSetUTCOffset(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the offset", func(t *testing.T) {
		repo := NewStubRepo()
		service := NewService(repo)

		g, err := service.SetUTCOffset(ctx, "guild-1", -8)
		assert.NoError(t, err)
		assert.Equal(t, -8, g.UTCOffset)
		assert.Equal(t, -8, repo.Guilds["guild-1"].UTCOffset)
	})

	t.Run("creates the guild when unseen", func(t *testing.T) {
		repo := NewStubRepo()
		service := NewService(repo)

		_, err := service.SetUTCOffset(ctx, "fresh", 2)
		assert.NoError(t, err)
		assert.Contains(t, repo.Guilds, "fresh")
	})
}
