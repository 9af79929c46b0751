package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

var _ repository.ParticipantRepository = (*DB)(nil)

const participantColumns = `p.id, p.name, p.email, p.admin, p.google_id, p.tree_id,
	COALESCE(t.name, ''), p.created_at, p.updated_at`

// CreateParticipantWithTree inserts a participant together with the tree
// created for them at signup.
//
// TRANSACTIONS:
// BeginTx hands us a *sql.Tx bound to one connection. Either both INSERTs
// commit, or the deferred Rollback undoes whatever ran. Rollback after a
// successful Commit is a no-op returning sql.ErrTxDone, which we ignore.
func (db *DB) CreateParticipantWithTree(ctx context.Context, p *model.Participant, t *model.Tree) error {
	now := time.Now()
	p.ID = xid.New().String()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.CreatedAt = now
	p.UpdatedAt = now

	t.ID = xid.New().String()
	t.OwnerID = p.ID
	t.OwnerName = p.Name
	t.OwnerEmail = p.Email
	t.CreatedAt = now

	p.TreeID = t.ID
	p.TreeName = t.Name

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning signup: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (id, name, email, admin, google_id, tree_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.Admin, p.GoogleID, p.TreeID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("participant", "email already registered")
		}
		return fmt.Errorf("sqlite: inserting participant: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trees (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.OwnerID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting first tree: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing signup: %w", err)
	}
	return nil
}

// GetParticipantByID returns apperror.ErrNotFound if no participant has id.
func (db *DB) GetParticipantByID(ctx context.Context, id string) (*model.Participant, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p LEFT JOIN trees t ON t.id = p.tree_id
		 WHERE p.id = ?`, id)

	p, err := scanParticipant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("participant", id)
		}
		return nil, fmt.Errorf("sqlite: getting participant %s: %w", id, err)
	}
	return p, nil
}

// GetParticipantByEmail matches the email case-insensitively.
func (db *DB) GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p LEFT JOIN trees t ON t.id = p.tree_id
		 WHERE p.email = ?`, email)

	p, err := scanParticipant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("participant", email)
		}
		return nil, fmt.Errorf("sqlite: getting participant by email: %w", err)
	}
	return p, nil
}

func (db *DB) UpdateParticipant(ctx context.Context, p *model.Participant) error {
	p.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE participants
		 SET name = ?, admin = ?, google_id = ?, tree_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Admin, p.GoogleID, p.TreeID, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating participant %s: %w", p.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("participant", p.ID)
	}
	return nil
}

func scanParticipant(row *sql.Row) (*model.Participant, error) {
	var p model.Participant
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Admin, &p.GoogleID, &p.TreeID,
		&p.TreeName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
