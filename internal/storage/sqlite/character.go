package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/storage"
)

// CharacterRepository implements storage.CharacterStore.
type CharacterRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCharacterRepository creates a CharacterRepository over db.
//
// Precondition: db must come from Open.
func NewCharacterRepository(db *sql.DB) *CharacterRepository {
	return &CharacterRepository{db: db, now: time.Now}
}

// Create implements storage.CharacterStore.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC().Truncate(time.Millisecond)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO characters (name, level, health, max_health, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.Level, c.Health, c.MaxHealth, toMillis(now), toMillis(now))
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrCharacterNameTaken
			}
			return fmt.Errorf("inserting character: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading character id: %w", err)
		}
		c.ID = id
		c.CreatedAt, c.UpdatedAt = now, now
		return writeProperties(ctx, tx, c)
	})
}

// Get implements storage.CharacterStore.
func (r *CharacterRepository) Get(ctx context.Context, id int64) (*character.Character, error) {
	var c character.Character
	var created, updated int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, level, health, max_health, created_at, updated_at
		FROM characters WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Level, &c.Health, &c.MaxHealth, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("character %d: %w", id, storage.ErrCharacterNotFound)
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updated)

	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM character_properties WHERE character_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying character properties: %w", err)
	}
	defer rows.Close()
	raw := map[string][]byte{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning character property: %w", err)
		}
		raw[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading character properties: %w", err)
	}
	c.Properties = character.PropertiesFromRaw(raw)
	return &c, nil
}

// Save implements storage.CharacterStore.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC().Truncate(time.Millisecond)
		res, err := tx.ExecContext(ctx, `
			UPDATE characters SET name = ?, level = ?, health = ?, max_health = ?, updated_at = ?
			WHERE id = ?`,
			c.Name, c.Level, c.Health, c.MaxHealth, toMillis(now), c.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrCharacterNameTaken
			}
			return fmt.Errorf("updating character: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("updating character: %w", err)
		} else if n == 0 {
			return fmt.Errorf("character %d: %w", c.ID, storage.ErrCharacterNotFound)
		}
		c.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `DELETE FROM character_properties WHERE character_id = ?`, c.ID); err != nil {
			return fmt.Errorf("clearing character properties: %w", err)
		}
		return writeProperties(ctx, tx, c)
	})
}

func (r *CharacterRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func writeProperties(ctx context.Context, tx *sql.Tx, c *character.Character) error {
	if c.Properties == nil {
		return nil
	}
	for key, value := range c.Properties.Raw() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO character_properties (character_id, key, value) VALUES (?, ?, ?)`,
			c.ID, key, string(value)); err != nil {
			return fmt.Errorf("writing character property %q: %w", key, err)
		}
	}
	return nil
}
