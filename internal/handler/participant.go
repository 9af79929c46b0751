package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/service"
)

// ParticipantHandler serves signup, /api/me and logout.
type ParticipantHandler struct {
	participants *service.ParticipantService
	cookies      Cookies
	logger       *slog.Logger
}

func NewParticipantHandler(participants *service.ParticipantService, cookies Cookies, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, cookies: cookies, logger: logger}
}

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignupResponse carries the token in the body as well as the cookie so
// non-browser clients can send it as a bearer token.
type SignupResponse struct {
	Message string             `json:"message"`
	User    *model.Participant `json:"user"`
	Token   string             `json:"token"`
}

// HandleSignup handles POST /api/signup. 201 for a new participant, 200
// when an existing one signs back in.
func (h *ParticipantHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.participants.Signup(r.Context(), req.Name, req.Email)
	if err != nil {
		logIfInternal(h.logger, "signup failed", err)
		writeError(w, err)
		return
	}

	h.cookies.setSession(w, res.Token)

	status, msg := http.StatusOK, "Welcome back"
	if res.Created {
		status, msg = http.StatusCreated, "User created successfully"
	}
	writeJSON(w, status, SignupResponse{Message: msg, User: res.Participant, Token: res.Token})
}

// HandleMe handles GET /api/me. Mounted behind auth.RequireAuth.
func (h *ParticipantHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.ParticipantIDFromContext(r.Context())

	p, err := h.participants.Get(r.Context(), id)
	if err != nil {
		logIfInternal(h.logger, "HandleMe: lookup failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleLogout handles POST /auth/logout. Sessions are stateless, so this
// only tells the browser to drop the cookie.
func (h *ParticipantHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clearSession(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}
