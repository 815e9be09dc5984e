package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/resfight/internal/game/scene"
)

// SceneRepository implements scene.Repository over the scenes table.
type SceneRepository struct {
	db *pgxpool.Pool
}

// NewSceneRepository creates a SceneRepository backed by the given pool.
func NewSceneRepository(db *pgxpool.Pool) *SceneRepository {
	return &SceneRepository{db: db}
}

// Get implements scene.Repository.
func (r *SceneRepository) Get(ctx context.Context, id int64) (*scene.Scene, error) {
	return r.one(ctx, `SELECT id, template, title, description FROM scenes WHERE id = $1`, id)
}

// FindByTemplate implements scene.Repository.
func (r *SceneRepository) FindByTemplate(ctx context.Context, template string) (*scene.Scene, error) {
	return r.one(ctx, `
		SELECT id, template, title, description FROM scenes
		WHERE template = $1 ORDER BY id ASC LIMIT 1`, template)
}

func (r *SceneRepository) one(ctx context.Context, query string, arg any) (*scene.Scene, error) {
	var s scene.Scene
	err := r.db.QueryRow(ctx, query, arg).Scan(&s.ID, &s.Template, &s.Title, &s.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scene %v: %w", arg, scene.ErrSceneNotFound)
		}
		return nil, fmt.Errorf("querying scene: %w", err)
	}
	return &s, nil
}

// Create implements scene.Repository.
func (r *SceneRepository) Create(ctx context.Context, s *scene.Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO scenes (template, title, description) VALUES ($1, $2, $3)
		RETURNING id`, s.Template, s.Title, s.Description,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("inserting scene: %w", err)
	}
	return nil
}

// Delete implements scene.Repository.
func (r *SceneRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scene %d: %w", id, scene.ErrSceneNotFound)
	}
	return nil
}
