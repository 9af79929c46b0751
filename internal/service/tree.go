package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

const MaxTreeNameLength = 100

// TreeService reads and creates trees and decides, per viewer, what of a
// tree they may see.
//
// THE SERVER-SIDE GATE:
// The reveal gate runs here as well as in the client. Ornament messages
// leave the server blanked (Locked=true) unless the viewer owns the tree and
// the reveal window is open, so a curious guest cannot read them by calling
// the API directly.
type TreeService struct {
	trees        repository.TreeRepository
	ornaments    repository.OrnamentRepository
	participants repository.ParticipantRepository
	schedule     gate.Schedule
	origin       string
	now          func() time.Time
	logger       *slog.Logger
}

// NewTreeService builds share links against origin, e.g.
// "https://wellwishers.example".
func NewTreeService(
	trees repository.TreeRepository,
	ornaments repository.OrnamentRepository,
	participants repository.ParticipantRepository,
	schedule gate.Schedule,
	origin string,
	logger *slog.Logger,
) *TreeService {
	return &TreeService{
		trees:        trees,
		ornaments:    ornaments,
		participants: participants,
		schedule:     schedule,
		origin:       origin,
		now:          time.Now,
		logger:       logger,
	}
}

// SetClock replaces the clock the reveal gate reads. Wish timestamps use it
// too.
func (s *TreeService) SetClock(now func() time.Time) {
	s.now = now
}

// TreeView is one tree as seen by one viewer.
type TreeView struct {
	Tree       *model.Tree
	Ornaments  []model.Ornament
	Decorators []model.Decorator
	Reveal     gate.Reveal
}

// Create adds a tree owned by ownerID. Participants may own several trees;
// the newest becomes the one their client remembers.
func (s *TreeService) Create(ctx context.Context, ownerID, name string) (*model.Tree, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("sign in first")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("treeName", "tree name is required")
	}
	if len(name) > MaxTreeNameLength {
		return nil, apperror.ValidationFailed("treeName",
			fmt.Sprintf("tree name must be %d characters or less", MaxTreeNameLength))
	}

	owner, err := s.participants.GetParticipantByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	tree := &model.Tree{Name: name, OwnerID: owner.ID, OwnerName: owner.Name, OwnerEmail: owner.Email}
	if err := s.trees.CreateTree(ctx, tree); err != nil {
		return nil, fmt.Errorf("creating tree: %w", err)
	}

	owner.TreeID = tree.ID
	if err := s.participants.UpdateParticipant(ctx, owner); err != nil {
		return nil, fmt.Errorf("pointing participant at new tree: %w", err)
	}

	s.logger.Info("tree created",
		slog.String("treeID", tree.ID),
		slog.String("ownerID", owner.ID),
	)
	return tree, nil
}

// View loads a tree with its placements for viewerID, who may be empty for
// an anonymous visitor.
func (s *TreeService) View(ctx context.Context, treeID, viewerID string) (*TreeView, error) {
	tree, err := s.get(ctx, treeID)
	if err != nil {
		return nil, err
	}

	ornaments, err := s.ornaments.ListOrnaments(ctx, tree.ID)
	if err != nil {
		return nil, fmt.Errorf("listing ornaments for %s: %w", tree.ID, err)
	}

	reveal := s.reveal(tree, viewerID)
	return &TreeView{
		Tree:       tree,
		Ornaments:  redact(ornaments, reveal),
		Decorators: model.Decorators(ornaments),
		Reveal:     reveal,
	}, nil
}

// Owner returns the participant who owns treeID.
func (s *TreeService) Owner(ctx context.Context, treeID string) (*model.Participant, error) {
	tree, err := s.get(ctx, treeID)
	if err != nil {
		return nil, err
	}
	return s.participants.GetParticipantByID(ctx, tree.OwnerID)
}

// ShareLink returns the link a participant hands out to collect ornaments.
// The tree must exist, so a typo is caught before the link is shared.
func (s *TreeService) ShareLink(ctx context.Context, treeID string) (string, error) {
	tree, err := s.get(ctx, treeID)
	if err != nil {
		return "", err
	}
	return model.ShareLink(s.origin, tree.ID), nil
}

func (s *TreeService) get(ctx context.Context, treeID string) (*model.Tree, error) {
	treeID = strings.TrimSpace(treeID)
	if treeID == "" {
		return nil, apperror.ValidationFailed("treeId", "tree ID is required")
	}
	return s.trees.GetTree(ctx, treeID)
}

func (s *TreeService) reveal(tree *model.Tree, viewerID string) gate.Reveal {
	return s.schedule.Evaluate(s.now(), gate.IsOwner(viewerID, tree.OwnerID))
}

// redact blanks every message unless the reveal gate is open for the viewer.
// It copies; the caller's slice is left alone.
func redact(ornaments []model.Ornament, r gate.Reveal) []model.Ornament {
	out := make([]model.Ornament, len(ornaments))
	copy(out, ornaments)
	if r.Revealed {
		return out
	}
	for i := range out {
		out[i].Message = ""
		out[i].Locked = true
	}
	return out
}
