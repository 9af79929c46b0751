package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/service"
)

type WishHandler struct {
	wishes *service.WishService
	logger *slog.Logger
}

func NewWishHandler(wishes *service.WishService, logger *slog.Logger) *WishHandler {
	return &WishHandler{wishes: wishes, logger: logger}
}

type addWishRequest struct {
	Wish string `json:"wish"`
}

type AddWishResponse struct {
	Message string      `json:"message"`
	Wish    *model.Wish `json:"wish"`
}

// WishesResponse is the wishes section of a tree page. Wishes is empty
// unless Revealed; the countdown fields are only meaningful while Phase is
// "locked".
type WishesResponse struct {
	TreeID        string         `json:"treeId"`
	IsOwner       bool           `json:"isOwner"`
	Revealed      bool           `json:"revealed"`
	Phase         gate.Phase     `json:"phase"`
	Countdown     gate.Countdown `json:"countdown"`
	CountdownText string         `json:"countdownText"`
	UnlockStart   time.Time      `json:"unlockStart"`
	UnlockEnd     time.Time      `json:"unlockEnd"`
	Wishes        []model.Wish   `json:"wishes"`
}

// HandleAddWish handles POST /api/tree/{treeId}/wish.
func (h *WishHandler) HandleAddWish(w http.ResponseWriter, r *http.Request) {
	var req addWishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	participantID, _ := auth.ParticipantIDFromContext(r.Context())
	wish, err := h.wishes.Add(r.Context(), chi.URLParam(r, "treeId"), participantID, req.Wish)
	if err != nil {
		logIfInternal(h.logger, "HandleAddWish: add failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AddWishResponse{Message: "Wish sent", Wish: wish})
}

// HandleListWishes handles GET /api/tree/{treeId}/wishes.
func (h *WishHandler) HandleListWishes(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.ParticipantIDFromContext(r.Context())

	view, err := h.wishes.List(r.Context(), chi.URLParam(r, "treeId"), viewerID)
	if err != nil {
		logIfInternal(h.logger, "HandleListWishes: list failed", err)
		writeError(w, err)
		return
	}

	wishes := view.Wishes
	if wishes == nil {
		wishes = []model.Wish{}
	}

	rv := view.Reveal
	writeJSON(w, http.StatusOK, WishesResponse{
		TreeID:        view.Tree.ID,
		IsOwner:       rv.IsOwner,
		Revealed:      rv.Revealed,
		Phase:         rv.Phase,
		Countdown:     rv.Remaining,
		CountdownText: rv.Remaining.String(),
		UnlockStart:   rv.Window.Start,
		UnlockEnd:     rv.Window.End,
		Wishes:        wishes,
	})
}
