package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const participantIDKey contextKey = "participantID"

// CookieName is the session cookie set by signup and Google sign-in.
const CookieName = "token"

// RequireAuth rejects requests without a valid session with 401.
//
// Usage in chi:
//
//	r.With(auth.RequireAuth(tokens)).Post("/tree/{treeId}/ornament", h.AddOrnament)
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			participantID, err := extractParticipantID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithParticipantID(r.Context(), participantID)))
		})
	}
}

// OptionalAuth attaches the participant ID when a valid session is present
// and otherwise lets the request through anonymously. Tree views use it:
// anyone may look, but only the owner sees unlocked messages.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if participantID, err := extractParticipantID(r, tokens); err == nil {
				r = r.WithContext(WithParticipantID(r.Context(), participantID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithParticipantID returns a context carrying id. Handler tests use it in
// place of the middleware.
func WithParticipantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, participantIDKey, id)
}

// ParticipantIDFromContext returns the authenticated participant, if any.
func ParticipantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(participantIDKey).(string)
	return id, ok && id != ""
}

// extractParticipantID prefers the Authorization header over the cookie so
// a CLI token is never shadowed by a stale browser cookie.
func extractParticipantID(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
