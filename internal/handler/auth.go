package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/service"
)

const stateCookie = "oauth_state"

// GoogleExchanger is the part of *auth.GoogleProvider the handler needs.
type GoogleExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// GoogleHandler runs the browser side of Google sign-in.
//
// OAUTH FLOW:
//  1. /auth/google/login sets a random state cookie and redirects to Google.
//  2. Google redirects back to /auth/google/callback?code=...&state=...
//  3. The callback checks state against the cookie (CSRF), exchanges the
//     code, signs the participant in and redirects to the frontend.
type GoogleHandler struct {
	google       GoogleExchanger
	participants *service.ParticipantService
	cookies      Cookies
	redirectTo   string
	logger       *slog.Logger
}

// NewGoogleHandler redirects to redirectTo (the frontend origin) once the
// participant is signed in.
func NewGoogleHandler(
	google GoogleExchanger,
	participants *service.ParticipantService,
	cookies Cookies,
	redirectTo string,
	logger *slog.Logger,
) *GoogleHandler {
	return &GoogleHandler{
		google:       google,
		participants: participants,
		cookies:      cookies,
		redirectTo:   redirectTo,
		logger:       logger,
	}
}

func (h *GoogleHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

func (h *GoogleHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("google callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("google callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state is single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, h.redirectTo+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gu, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	res, err := h.participants.LoginWithGoogle(r.Context(), gu)
	if err != nil {
		h.logger.Error("google callback: sign-in failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.cookies.setSession(w, res.Token)
	http.Redirect(w, r, h.redirectTo+"/", http.StatusSeeOther)
}
