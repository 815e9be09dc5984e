package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cory-johannsen/resfight/internal/game/scene"
)

// SceneRepository implements scene.Repository.
type SceneRepository struct {
	db *sql.DB
}

// NewSceneRepository creates a SceneRepository over db.
func NewSceneRepository(db *sql.DB) *SceneRepository {
	return &SceneRepository{db: db}
}

// Get implements scene.Repository.
func (r *SceneRepository) Get(ctx context.Context, id int64) (*scene.Scene, error) {
	return r.one(ctx, `SELECT id, template, title, description FROM scenes WHERE id = ?`, id)
}

// FindByTemplate implements scene.Repository.
func (r *SceneRepository) FindByTemplate(ctx context.Context, template string) (*scene.Scene, error) {
	return r.one(ctx, `
		SELECT id, template, title, description FROM scenes
		WHERE template = ? ORDER BY id ASC LIMIT 1`, template)
}

func (r *SceneRepository) one(ctx context.Context, query string, arg any) (*scene.Scene, error) {
	var s scene.Scene
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.Template, &s.Title, &s.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scenes (template, title, description) VALUES (?, ?, ?)`,
		s.Template, s.Title, s.Description)
	if err != nil {
		return fmt.Errorf("inserting scene: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading scene id: %w", err)
	}
	s.ID = id
	return nil
}

// Delete implements scene.Repository.
func (r *SceneRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("scene %d: %w", id, scene.ErrSceneNotFound)
	}
	return nil
}
