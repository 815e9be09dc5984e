package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/storage/sqlite"
	"github.com/cory-johannsen/resfight/internal/storage/storagetest"
)

func openDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fight.db")
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestCharacterRepository(t *testing.T) {
	db, _ := openDB(t)
	storagetest.CharacterStore(t, sqlite.NewCharacterRepository(db))
}

func TestSceneRepository(t *testing.T) {
	db, _ := openDB(t)
	storagetest.SceneRepository(t, sqlite.NewSceneRepository(db))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fight.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	c, err := character.Build("Violet", 2)
	require.NoError(t, err)
	c.Properties.SetInt("mud/res-fight/turns", 4)
	require.NoError(t, sqlite.NewCharacterRepository(db).Create(ctx, c))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := sqlite.NewCharacterRepository(db).Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Violet", got.Name)
	assert.Equal(t, 4, got.Properties.Int("mud/res-fight/turns", 0))
	assert.Equal(t, c.CreatedAt, got.CreatedAt)
}
