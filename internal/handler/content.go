package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/service"
)

// ContentHandler serves kiti's room. Every route sits behind RequireAuth.
type ContentHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

func NewContentHandler(content *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, logger: logger}
}

type createPostRequest struct {
	Kind     model.PostKind `json:"kind"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	AudioURL string         `json:"audioUrl"`
}

type PostsResponse struct {
	Posts []model.Post `json:"posts"`
}

// HandleList handles GET /api/content?kind=&limit=&offset=.
func (h *ContentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.content.List(r.Context(), model.PostKind(q.Get("kind")), limit, offset)
	if err != nil {
		logIfInternal(h.logger, "HandleList: list failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// HandleGet handles GET /api/content/{id}.
func (h *ContentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		logIfInternal(h.logger, "HandleGet: lookup failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleCreate handles POST /api/content. The service enforces admin.
func (h *ContentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	authorID, _ := auth.ParticipantIDFromContext(r.Context())
	post, err := h.content.Create(r.Context(), authorID, service.PostInput{
		Kind:     req.Kind,
		Title:    req.Title,
		Body:     req.Body,
		AudioURL: req.AudioURL,
	})
	if err != nil {
		logIfInternal(h.logger, "HandleCreate: create failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func intParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(field, field+" must be an integer")
	}
	return n, nil
}
