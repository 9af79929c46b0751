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

var _ repository.WishRepository = (*DB)(nil)

// AddWish appends a wish. Timestamp is kept when the caller set it, so the
// service clock decides when a wish was written.
func (db *DB) AddWish(ctx context.Context, w *model.Wish) error {
	w.ID = xid.New().String()
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO wishes (id, tree_id, user_id, name, email, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.TreeID, w.UserID, w.Name, w.Email, w.Text, w.Timestamp,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("tree", w.TreeID)
		}
		return fmt.Errorf("sqlite: adding wish: %w", err)
	}
	return nil
}

// ListWishes returns a tree's wishes, oldest first.
func (db *DB) ListWishes(ctx context.Context, treeID string) ([]model.Wish, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, tree_id, user_id, name, email, body, created_at
		 FROM wishes
		 WHERE tree_id = ?
		 ORDER BY created_at ASC, id ASC`, treeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing wishes: %w", err)
	}
	defer rows.Close()

	wishes := make([]model.Wish, 0)
	for rows.Next() {
		var w model.Wish
		if err := rows.Scan(&w.ID, &w.TreeID, &w.UserID, &w.Name, &w.Email, &w.Text, &w.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scanning wish row: %w", err)
		}
		wishes = append(wishes, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating wishes: %w", err)
	}
	return wishes, nil
}
