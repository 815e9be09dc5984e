package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/storage"
)

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character and its properties in one transaction.
//
// Precondition: c.Name must be non-empty.
// Postcondition: c.ID and timestamps are set, or storage.ErrCharacterNameTaken is returned.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO characters (name, level, health, max_health)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			c.Name, c.Level, c.Health, c.MaxHealth,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrCharacterNameTaken
			}
			return fmt.Errorf("inserting character: %w", err)
		}
		return writeProperties(ctx, tx, c)
	})
}

// Get loads the character with id and its properties.
//
// Postcondition: Returns storage.ErrCharacterNotFound when no row matches.
func (r *CharacterRepository) Get(ctx context.Context, id int64) (*character.Character, error) {
	var c character.Character
	err := r.db.QueryRow(ctx, `
		SELECT id, name, level, health, max_health, created_at, updated_at
		FROM characters WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Level, &c.Health, &c.MaxHealth, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character %d: %w", id, storage.ErrCharacterNotFound)
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT key, value FROM character_properties WHERE character_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying character properties: %w", err)
	}
	raw := map[string][]byte{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning character property: %w", err)
		}
		raw[key] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading character properties: %w", err)
	}
	c.Properties = character.PropertiesFromRaw(raw)
	return &c, nil
}

// Save updates the scalar fields of c and replaces its properties in one transaction.
//
// Postcondition: Returns storage.ErrCharacterNotFound when c.ID has no row.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE characters
			SET name = $2, level = $3, health = $4, max_health = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			c.ID, c.Name, c.Level, c.Health, c.MaxHealth,
		).Scan(&c.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("character %d: %w", c.ID, storage.ErrCharacterNotFound)
			}
			if isDuplicateKeyError(err) {
				return storage.ErrCharacterNameTaken
			}
			return fmt.Errorf("updating character: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM character_properties WHERE character_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clearing character properties: %w", err)
		}
		return writeProperties(ctx, tx, c)
	})
}

func writeProperties(ctx context.Context, tx pgx.Tx, c *character.Character) error {
	if c.Properties == nil {
		return nil
	}
	batch := &pgx.Batch{}
	for key, value := range c.Properties.Raw() {
		batch.Queue(`INSERT INTO character_properties (character_id, key, value) VALUES ($1, $2, $3::jsonb)`,
			c.ID, key, string(value))
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("writing character properties: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
