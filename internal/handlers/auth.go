package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/session"
)

const (
	msgSignInFailed   = "An error occurred"
	msgCallbackFailed = "An error occurred during authentication"
	msgSignOutFailed  = "Failed to sign out"
	msgLinkSent       = "Check your email for the login link"
)

// SessionStore is the part of the session store the auth screens drive.
type SessionStore interface {
	State(ctx context.Context) (session.State, error)
	SignIn(ctx context.Context, email, password string) (models.Identity, error)
	SignInWithMagicLink(ctx context.Context, email string) error
	ExchangeAuthCode(ctx context.Context, code string) (models.Identity, session.Redirect, error)
	SignOut(ctx context.Context) error
}

type AuthHandler struct {
	sessions SessionStore
	tokens   *authz.Tokens
	logger   zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// An empty email is reported by the session store itself.
type magicLinkRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

func (r *loginRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r *magicLinkRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

type signedInResponse struct {
	Token      string          `json:"token"`
	Identity   models.Identity `json:"identity"`
	Label      string          `json:"label"`
	RedirectTo string          `json:"redirect_to"`
}

type sessionResponse struct {
	session.State
	Label string `json:"label,omitempty"`
}

func NewAuthHandler(sessions SessionStore, tokens *authz.Tokens, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrRequestPending) {
			writeError(w, http.StatusConflict, "Sign in already in progress")
			return
		}
		writeError(w, http.StatusUnauthorized, session.Message(err, msgSignInFailed))
		return
	}

	h.writeSignedIn(w, id)
}

func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.sessions.SignInWithMagicLink(r.Context(), req.Email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": msgLinkSent,
			"email":   req.Email,
		})
	case errors.Is(err, session.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrRequestPending):
		writeError(w, http.StatusConflict, "Magic link request already in progress")
	default:
		writeError(w, http.StatusBadGateway, session.Message(err, msgSignInFailed))
	}
}

// Callback completes a PKCE sign-in. A failure answers 401 and asks the
// browser to return to the sign-in screen after the store's delay.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	id, redirect, err := h.sessions.ExchangeAuthCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, session.ErrRequestPending) {
			writeError(w, http.StatusConflict, "Authentication already in progress")
			return
		}
		seconds := int(redirect.After.Seconds())
		w.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", seconds, redirect.To))
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":             session.Message(err, msgCallbackFailed),
			"redirect_to":       redirect.To,
			"redirect_after_ms": redirect.After.Milliseconds(),
		})
		return
	}

	h.writeSignedIn(w, id)
}

// Logout always ends the local session. A remote failure is still reported.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.SignOut(r.Context())
	if errors.Is(err, session.ErrRequestPending) {
		writeError(w, http.StatusConflict, "Sign out already in progress")
		return
	}

	resp := map[string]string{"redirect_to": session.LoginPath}
	if err != nil {
		h.logger.Warn().Err(err).Msg("remote sign out failed")
		resp["error"] = session.Message(err, msgSignOutFailed)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.State(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read session state")
		writeError(w, http.StatusServiceUnavailable, "Session unavailable")
		return
	}

	resp := sessionResponse{State: st}
	if st.Identity != nil {
		resp.Label = st.Identity.Label()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) writeSignedIn(w http.ResponseWriter, id models.Identity) {
	token, err := h.tokens.Issue(id.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue console token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, signedInResponse{
		Token:      token,
		Identity:   id,
		Label:      id.Label(),
		RedirectTo: session.DashboardPath,
	})
}
