// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/storage"
)

// UniqueName returns a character name that does not collide across runs
// against a shared database.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func newCharacter(t *testing.T, name string) *character.Character {
	t.Helper()
	c, err := character.Build(name, 3)
	require.NoError(t, err)
	return c
}

// CharacterStore exercises a CharacterStore implementation.
func CharacterStore(t *testing.T, store storage.CharacterStore) {
	ctx := context.Background()

	t.Run("CreateAssignsID", func(t *testing.T) {
		c := newCharacter(t, UniqueName("Zara"))
		require.NoError(t, store.Create(ctx, c))
		assert.Greater(t, c.ID, int64(0))
		assert.False(t, c.CreatedAt.IsZero())
	})

	t.Run("GetRoundTripsProperties", func(t *testing.T) {
		c := newCharacter(t, UniqueName("Violet"))
		require.NoError(t, c.Properties.Set("mud/res-fight/battleState", map[string]any{"version": 1}))
		c.Properties.SetInt("mud/res-fight/turns", 12)
		require.NoError(t, store.Create(ctx, c))

		got, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, 3, got.Level)
		assert.Equal(t, c.Health, got.Health)
		assert.Equal(t, c.MaxHealth, got.MaxHealth)
		assert.Equal(t, 12, got.Properties.Int("mud/res-fight/turns", 0))
		var state map[string]any
		ok, err := got.Properties.Get("mud/res-fight/battleState", &state)
		require.NoError(t, err)
		require.True(t, ok)
		assert.EqualValues(t, 1, state["version"])
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, 1<<40)
		assert.True(t, errors.Is(err, storage.ErrCharacterNotFound))
	})

	t.Run("SaveReplacesProperties", func(t *testing.T) {
		c := newCharacter(t, UniqueName("Rook"))
		c.Properties.SetInt("a", 1)
		c.Properties.SetInt("b", 2)
		require.NoError(t, store.Create(ctx, c))

		c.Level = 4
		c.Health = 7
		c.MaxHealth = 40
		c.Properties.Delete("a")
		c.Properties.SetInt("b", 20)
		c.Properties.SetInt("c", 30)
		require.NoError(t, store.Save(ctx, c))

		got, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Level)
		assert.Equal(t, 7, got.Health)
		assert.Equal(t, 40, got.MaxHealth)
		assert.Equal(t, []string{"b", "c"}, got.Properties.Keys())
		assert.Equal(t, 20, got.Properties.Int("b", 0))
	})

	t.Run("SaveMissing", func(t *testing.T) {
		c := newCharacter(t, UniqueName("Ghost"))
		c.ID = 1 << 40
		assert.True(t, errors.Is(store.Save(ctx, c), storage.ErrCharacterNotFound))
	})

	t.Run("DuplicateName", func(t *testing.T) {
		name := UniqueName("Twin")
		require.NoError(t, store.Create(ctx, newCharacter(t, name)))
		assert.True(t, errors.Is(store.Create(ctx, newCharacter(t, name)), storage.ErrCharacterNameTaken))
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		c := newCharacter(t, UniqueName("Copy"))
		require.NoError(t, store.Create(ctx, c))
		got, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		got.Properties.SetInt("local", 1)
		again, err := store.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, again.Properties.Has("local"))
	})
}

// SceneRepository exercises a scene.Repository implementation.
func SceneRepository(t *testing.T, repo scene.Repository) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := &scene.Scene{Title: "Forest", Description: "Trees.", Template: UniqueName("arena/forest")}
		require.NoError(t, repo.Create(ctx, s))
		require.Greater(t, s.ID, int64(0))
		got, err := repo.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, *s, *got)
	})

	t.Run("FindByTemplateLowestID", func(t *testing.T) {
		tmpl := UniqueName("mud/res-fight/battle")
		first := &scene.Scene{Title: "A fight!", Description: "You are fighting.", Template: tmpl}
		second := &scene.Scene{Title: "Another fight", Template: tmpl}
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))
		got, err := repo.FindByTemplate(ctx, tmpl)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("FindByTemplateMissing", func(t *testing.T) {
		_, err := repo.FindByTemplate(ctx, UniqueName("nothing"))
		assert.True(t, errors.Is(err, scene.ErrSceneNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		s := &scene.Scene{Title: "Gone", Template: UniqueName("gone")}
		require.NoError(t, repo.Create(ctx, s))
		require.NoError(t, repo.Delete(ctx, s.ID))
		_, err := repo.Get(ctx, s.ID)
		assert.True(t, errors.Is(err, scene.ErrSceneNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, s.ID), scene.ErrSceneNotFound))
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, &scene.Scene{Title: "No template"}))
	})
}
