package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/service"
)

// TreeHandler serves trees and the ornaments hung on them.
type TreeHandler struct {
	trees     *service.TreeService
	ornaments *service.OrnamentService
	logger    *slog.Logger
}

func NewTreeHandler(trees *service.TreeService, ornaments *service.OrnamentService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{trees: trees, ornaments: ornaments, logger: logger}
}

// TreeResponse is a tree page as one viewer may see it. Ornament messages
// are blank (and locked) unless Revealed.
type TreeResponse struct {
	TreeID     string            `json:"treeId"`
	TreeName   string            `json:"treeName"`
	TreeOwner  model.Owner       `json:"treeOwner"`
	TreeDecos  []model.Ornament  `json:"treeDecos"`
	Decorators []model.Decorator `json:"decorators"`
	IsOwner    bool              `json:"isOwner"`
	Revealed   bool              `json:"revealed"`
}

// OrnamentsResponse is the placements listing for one tree.
type OrnamentsResponse struct {
	TreeID    string           `json:"treeId"`
	TreeName  string           `json:"treeName"`
	TreeOwner model.Owner      `json:"treeOwner"`
	Ornaments []model.Ornament `json:"ornaments"`
}

type createTreeRequest struct {
	TreeName string `json:"treeName"`
}

type addOrnamentRequest struct {
	Ornament model.Icon `json:"ornament"`
	Message  string     `json:"message"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	// UserID is accepted for compatibility with older clients and ignored;
	// the author is always the authenticated participant.
	UserID string `json:"userId,omitempty"`
}

// AddOrnamentResponse returns the new ornament in full to its author along
// with the tree's placements as the author may see them.
type AddOrnamentResponse struct {
	Message   string           `json:"message"`
	Ornament  *model.Ornament  `json:"ornament"`
	TreeDecos []model.Ornament `json:"treeDecos"`
}

type ShareResponse struct {
	Link string `json:"link"`
}

type IconsResponse struct {
	Icons []model.Icon `json:"icons"`
}

// HandleIcons handles GET /api/icons.
func (h *TreeHandler) HandleIcons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IconsResponse{Icons: model.Icons})
}

// HandleCreateTree handles POST /api/trees.
func (h *TreeHandler) HandleCreateTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownerID, _ := auth.ParticipantIDFromContext(r.Context())
	tree, err := h.trees.Create(r.Context(), ownerID, req.TreeName)
	if err != nil {
		logIfInternal(h.logger, "HandleCreateTree: create failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tree)
}

// HandleGetTree handles GET /api/tree/{treeId}.
func (h *TreeHandler) HandleGetTree(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.ParticipantIDFromContext(r.Context())

	view, err := h.trees.View(r.Context(), chi.URLParam(r, "treeId"), viewerID)
	if err != nil {
		logIfInternal(h.logger, "HandleGetTree: view failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TreeResponse{
		TreeID:     view.Tree.ID,
		TreeName:   view.Tree.Name,
		TreeOwner:  view.Tree.Owner(),
		TreeDecos:  view.Ornaments,
		Decorators: view.Decorators,
		IsOwner:    view.Reveal.IsOwner,
		Revealed:   view.Reveal.Revealed,
	})
}

// HandleGetOwner handles GET /api/user/tree/{treeId}.
func (h *TreeHandler) HandleGetOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := h.trees.Owner(r.Context(), chi.URLParam(r, "treeId"))
	if err != nil {
		logIfInternal(h.logger, "HandleGetOwner: lookup failed", err)
		writeError(w, err)
		return
	}

	// Guests only ever see the public projection.
	writeJSON(w, http.StatusOK, owner.Owner())
}

// HandleListOrnaments handles GET /api/tree/{treeId}/ornaments.
func (h *TreeHandler) HandleListOrnaments(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.ParticipantIDFromContext(r.Context())

	view, err := h.ornaments.List(r.Context(), chi.URLParam(r, "treeId"), viewerID)
	if err != nil {
		logIfInternal(h.logger, "HandleListOrnaments: list failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OrnamentsResponse{
		TreeID:    view.Tree.ID,
		TreeName:  view.Tree.Name,
		TreeOwner: view.Tree.Owner(),
		Ornaments: view.Ornaments,
	})
}

// HandleAddOrnament handles POST /api/tree/{treeId}/ornament.
func (h *TreeHandler) HandleAddOrnament(w http.ResponseWriter, r *http.Request) {
	var req addOrnamentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	participantID, _ := auth.ParticipantIDFromContext(r.Context())
	placed, err := h.ornaments.Add(r.Context(), chi.URLParam(r, "treeId"), participantID, service.OrnamentInput{
		Icon:    req.Ornament,
		Message: req.Message,
		X:       req.X,
		Y:       req.Y,
	})
	if err != nil {
		logIfInternal(h.logger, "HandleAddOrnament: add failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddOrnamentResponse{
		Message:   "Ornament added successfully",
		Ornament:  placed.Ornament,
		TreeDecos: placed.Ornaments,
	})
}

// HandleShare handles GET /api/tree/{treeId}/share.
func (h *TreeHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	link, err := h.trees.ShareLink(r.Context(), chi.URLParam(r, "treeId"))
	if err != nil {
		logIfInternal(h.logger, "HandleShare: lookup failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Link: link})
}
