package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stanstork/console-api/internal/models"
)

// LoginPath is where gated screens send a visitor without a session.
const LoginPath = "/login"

// SessionReader exposes the current session.
type SessionReader interface {
	Identity(ctx context.Context) (models.Identity, bool)
}

// RequireSession gates a handler on a valid bearer token whose user is the
// one currently signed in.
func RequireSession(tokens *Tokens, sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w, "Authorization required")
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}
			id, ok := sessions.Identity(r.Context())
			if !ok || id.UserID != userID {
				unauthorized(w, "Session ended")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// for websocket handshakes that cannot set headers.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":       msg,
		"redirect_to": LoginPath,
	})
}
