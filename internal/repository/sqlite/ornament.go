package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

var _ repository.OrnamentRepository = (*DB)(nil)

// AddOrnament appends a placement. The unique (tree_id, user_id) index turns
// a second placement by the same participant into apperror.ErrConflict, even
// when two requests race past the service-level check.
func (db *DB) AddOrnament(ctx context.Context, o *model.Ornament) error {
	now := time.Now()
	o.ID = xid.New().String()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ornaments (id, tree_id, user_id, name, email, icon, message, x, y, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TreeID, o.UserID, o.Name, o.Email, string(o.Icon), o.Message,
		o.X, o.Y, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperror.Conflict("ornament", "you have already decorated this tree")
		case isForeignKeyViolation(err):
			return apperror.NotFound("tree", o.TreeID)
		}
		return fmt.Errorf("sqlite: adding ornament: %w", err)
	}
	return nil
}

// ListOrnaments returns a tree's placements in the order they were made.
// An unknown tree yields an empty list; callers check the tree first.
func (db *DB) ListOrnaments(ctx context.Context, treeID string) ([]model.Ornament, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, tree_id, user_id, name, email, icon, message, x, y, created_at, updated_at
		 FROM ornaments
		 WHERE tree_id = ?
		 ORDER BY created_at ASC, id ASC`, treeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ornaments: %w", err)
	}
	defer rows.Close()

	ornaments := make([]model.Ornament, 0)
	for rows.Next() {
		var (
			o    model.Ornament
			icon string
		)
		if err := rows.Scan(
			&o.ID, &o.TreeID, &o.UserID, &o.Name, &o.Email, &icon, &o.Message,
			&o.X, &o.Y, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ornament row: %w", err)
		}
		o.Icon = model.Icon(icon)
		ornaments = append(ornaments, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ornaments: %w", err)
	}
	return ornaments, nil
}
