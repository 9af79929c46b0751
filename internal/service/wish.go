package service

import (
	"context"
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

const MaxWishLength = 2000

// WishService writes wishes and reads them back through the reveal gate.
//
// Wishes are not limited to one per participant: the web form only offers
// one per visit, but a participant who comes back may write again.
type WishService struct {
	trees        *TreeService
	wishes       repository.WishRepository
	participants repository.ParticipantRepository
	metrics      metrics.Recorder
	logger       *slog.Logger
}

func NewWishService(
	trees *TreeService,
	wishes repository.WishRepository,
	participants repository.ParticipantRepository,
	rec metrics.Recorder,
	logger *slog.Logger,
) *WishService {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &WishService{
		trees:        trees,
		wishes:       wishes,
		participants: participants,
		metrics:      rec,
		logger:       logger,
	}
}

// WishesView is the wishes section of a tree page.
type WishesView struct {
	Tree   *model.Tree
	Reveal gate.Reveal
	// Wishes is nil unless Reveal.Revealed.
	Wishes []model.Wish
}

// Add stores a wish from participantID on treeID.
func (s *WishService) Add(ctx context.Context, treeID, participantID, text string) (*model.Wish, error) {
	if participantID == "" {
		return nil, apperror.Unauthorized("sign in first")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("wish", "wish is required")
	}
	if utf8.RuneCountInString(text) > MaxWishLength {
		return nil, apperror.ValidationFailed("wish",
			fmt.Sprintf("wish must be %d characters or less", MaxWishLength))
	}

	tree, err := s.trees.get(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if gate.IsOwner(participantID, tree.OwnerID) {
		return nil, apperror.Forbidden("you cannot leave a wish on your own tree")
	}

	author, err := s.participants.GetParticipantByID(ctx, participantID)
	if err != nil {
		return nil, err
	}

	w := &model.Wish{
		TreeID:    tree.ID,
		UserID:    author.ID,
		Name:      author.Name,
		Email:     author.Email,
		Text:      text,
		Timestamp: s.trees.now(),
	}
	if err := s.wishes.AddWish(ctx, w); err != nil {
		return nil, fmt.Errorf("adding wish to %s: %w", tree.ID, err)
	}

	s.metrics.IncWishesSubmitted()
	s.logger.Info("wish added",
		slog.String("treeID", tree.ID),
		slog.String("participantID", author.ID),
	)
	return w, nil
}

// List evaluates the reveal gate for viewerID and loads the wishes only when
// it is open. Guests and early owners get the countdown and nothing else.
func (s *WishService) List(ctx context.Context, treeID, viewerID string) (*WishesView, error) {
	tree, err := s.trees.get(ctx, treeID)
	if err != nil {
		return nil, err
	}

	view := &WishesView{Tree: tree, Reveal: s.trees.reveal(tree, viewerID)}
	if !view.Reveal.Revealed {
		return view, nil
	}

	wishes, err := s.wishes.ListWishes(ctx, tree.ID)
	if err != nil {
		return nil, fmt.Errorf("listing wishes for %s: %w", tree.ID, err)
	}
	view.Wishes = wishes
	return view, nil
}
