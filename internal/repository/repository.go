// Package repository declares the storage contracts the services depend on.
// internal/repository/sqlite is the only implementation; services are tested
// against hand-written fakes of these interfaces.
package repository

import (
	"context"

	"github.com/sakif/wellwishers/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ParticipantRepository stores participants. Emails are stored lowercased;
// callers normalise before lookup.
type ParticipantRepository interface {
	// CreateParticipantWithTree inserts p and its first tree in one
	// transaction. Both get their IDs and timestamps filled in.
	CreateParticipantWithTree(ctx context.Context, p *model.Participant, t *model.Tree) error
	GetParticipantByID(ctx context.Context, id string) (*model.Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error)
	// UpdateParticipant persists name, admin flag, google id and tree id.
	UpdateParticipant(ctx context.Context, p *model.Participant) error
}

type TreeRepository interface {
	CreateTree(ctx context.Context, t *model.Tree) error
	GetTree(ctx context.Context, id string) (*model.Tree, error)
	ListTreesByOwner(ctx context.Context, ownerID string) ([]model.Tree, error)
}

// OrnamentRepository is append-only. AddOrnament returns an
// apperror.ErrConflict when the participant already decorated the tree.
type OrnamentRepository interface {
	AddOrnament(ctx context.Context, o *model.Ornament) error
	ListOrnaments(ctx context.Context, treeID string) ([]model.Ornament, error)
}

type WishRepository interface {
	AddWish(ctx context.Context, w *model.Wish) error
	ListWishes(ctx context.Context, treeID string) ([]model.Wish, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// ListPosts returns newest first. An empty kind lists every kind.
	ListPosts(ctx context.Context, kind model.PostKind, opts ListOptions) ([]model.Post, error)
}
