package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

var _ repository.TreeRepository = (*DB)(nil)

// CreateTree inserts a tree for an existing participant. OwnerID must be set;
// an unknown owner fails the foreign key and is reported as not found.
func (db *DB) CreateTree(ctx context.Context, t *model.Tree) error {
	t.ID = xid.New().String()
	t.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO trees (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.OwnerID, t.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("participant", t.OwnerID)
		}
		return fmt.Errorf("sqlite: creating tree: %w", err)
	}
	return nil
}

// GetTree loads a tree and its owner's public details.
func (db *DB) GetTree(ctx context.Context, id string) (*model.Tree, error) {
	var t model.Tree
	err := db.conn.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.owner_id, p.name, p.email, t.created_at
		 FROM trees t JOIN participants p ON p.id = t.owner_id
		 WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.OwnerID, &t.OwnerName, &t.OwnerEmail, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tree", id)
		}
		return nil, fmt.Errorf("sqlite: getting tree %s: %w", id, err)
	}
	return &t, nil
}

// ListTreesByOwner returns the owner's trees, oldest first.
func (db *DB) ListTreesByOwner(ctx context.Context, ownerID string) ([]model.Tree, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.owner_id, p.name, p.email, t.created_at
		 FROM trees t JOIN participants p ON p.id = t.owner_id
		 WHERE t.owner_id = ?
		 ORDER BY t.created_at ASC, t.id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing trees: %w", err)
	}
	defer rows.Close()

	trees := make([]model.Tree, 0)
	for rows.Next() {
		var t model.Tree
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.OwnerName, &t.OwnerEmail, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tree row: %w", err)
		}
		trees = append(trees, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating trees: %w", err)
	}
	return trees, nil
}
