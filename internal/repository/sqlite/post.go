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

var _ repository.PostRepository = (*DB)(nil)

func (db *DB) CreatePost(ctx context.Context, p *model.Post) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, kind, title, body, audio_url, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Kind), p.Title, p.Body, p.AudioURL, p.AuthorID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var (
		p    model.Post
		kind string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, kind, title, body, audio_url, author_id, created_at
		 FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &kind, &p.Title, &p.Body, &p.AudioURL, &p.AuthorID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	p.Kind = model.PostKind(kind)
	return &p, nil
}

// ListPosts pages through posts newest first. Limit defaults to 20 and is
// capped at 100.
func (db *DB) ListPosts(ctx context.Context, kind model.PostKind, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	// An empty kind matches every row.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, kind, title, body, audio_url, author_id, created_at
		 FROM posts
		 WHERE (? = '' OR kind = ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		string(kind), string(kind), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		var (
			p model.Post
			k string
		)
		if err := rows.Scan(&p.ID, &k, &p.Title, &p.Body, &p.AudioURL, &p.AuthorID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		p.Kind = model.PostKind(k)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}
