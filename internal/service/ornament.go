package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/metrics"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

const MaxOrnamentMessageLength = 500

// OrnamentInput is what a participant sends when hanging an ornament.
type OrnamentInput struct {
	Icon    model.Icon
	Message string
	X       float64
	Y       float64
}

// OrnamentService places ornaments, one per participant per tree.
type OrnamentService struct {
	trees        *TreeService
	ornaments    repository.OrnamentRepository
	participants repository.ParticipantRepository
	metrics      metrics.Recorder
	logger       *slog.Logger
}

func NewOrnamentService(
	trees *TreeService,
	ornaments repository.OrnamentRepository,
	participants repository.ParticipantRepository,
	rec metrics.Recorder,
	logger *slog.Logger,
) *OrnamentService {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &OrnamentService{
		trees:        trees,
		ornaments:    ornaments,
		participants: participants,
		metrics:      rec,
		logger:       logger,
	}
}

// Placed is the result of a successful placement: the new ornament, shown
// in full to its author, and the tree's placements as the author may see them.
type Placed struct {
	Ornament  *model.Ornament
	Ornaments []model.Ornament
}

// Add hangs one ornament on treeID for participantID.
//
// ORDER OF CHECKS:
//  1. input shape (icon, coordinates, message length) → 400
//  2. tree exists → 404
//  3. participant is not the owner → 403
//  4. participant has no placement on this tree yet → 409
//
// Step 4 runs gate.HasSubmitted over the current list; the repository's
// unique index catches the race where two requests pass it together.
func (s *OrnamentService) Add(ctx context.Context, treeID, participantID string, in OrnamentInput) (*Placed, error) {
	if participantID == "" {
		return nil, apperror.Unauthorized("sign in first")
	}
	if err := validateOrnament(&in); err != nil {
		s.metrics.IncOrnamentsRejected("invalid")
		return nil, err
	}

	tree, err := s.trees.get(ctx, treeID)
	if err != nil {
		return nil, err
	}

	if gate.IsOwner(participantID, tree.OwnerID) {
		s.metrics.IncOrnamentsRejected("own_tree")
		return nil, apperror.Forbidden("you cannot decorate your own tree")
	}

	existing, err := s.ornaments.ListOrnaments(ctx, tree.ID)
	if err != nil {
		return nil, fmt.Errorf("listing ornaments for %s: %w", tree.ID, err)
	}
	if gate.HasSubmitted(existing, participantID) {
		s.metrics.IncOrnamentsRejected("duplicate")
		return nil, apperror.Conflict("ornament", "you have already decorated this tree")
	}

	author, err := s.participants.GetParticipantByID(ctx, participantID)
	if err != nil {
		return nil, err
	}

	o := &model.Ornament{
		TreeID:  tree.ID,
		UserID:  author.ID,
		Name:    author.Name,
		Email:   author.Email,
		Icon:    in.Icon,
		Message: in.Message,
		X:       in.X,
		Y:       in.Y,
	}
	if err := s.ornaments.AddOrnament(ctx, o); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.metrics.IncOrnamentsRejected("duplicate")
		}
		return nil, err
	}

	s.metrics.IncOrnamentsPlaced()
	s.logger.Info("ornament placed",
		slog.String("treeID", tree.ID),
		slog.String("participantID", author.ID),
		slog.String("icon", string(o.Icon)),
	)

	all := append(existing, *o)
	return &Placed{
		Ornament:  o,
		Ornaments: redact(all, s.trees.reveal(tree, participantID)),
	}, nil
}

// List returns the tree's placements as viewerID may see them.
func (s *OrnamentService) List(ctx context.Context, treeID, viewerID string) (*TreeView, error) {
	return s.trees.View(ctx, treeID, viewerID)
}

func validateOrnament(in *OrnamentInput) error {
	in.Icon = model.Icon(strings.TrimSpace(string(in.Icon)))
	if !in.Icon.Valid() {
		return apperror.ValidationFailed("ornament", fmt.Sprintf("unknown ornament %q", in.Icon))
	}
	if !model.InBounds(in.X) {
		return apperror.ValidationFailed("x", "x must be between 0 and 100")
	}
	if !model.InBounds(in.Y) {
		return apperror.ValidationFailed("y", "y must be between 0 and 100")
	}
	in.Message = strings.TrimSpace(in.Message)
	if utf8.RuneCountInString(in.Message) > MaxOrnamentMessageLength {
		return apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxOrnamentMessageLength))
	}
	return nil
}
