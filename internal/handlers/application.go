package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/application"
	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/models"
)

// PreferenceReader supplies the layout a listing starts with.
type PreferenceReader interface {
	Snapshot(ctx context.Context) (models.Preferences, error)
}

type ApplicationHandler struct {
	fetcher application.Fetcher
	prefs   PreferenceReader
	logger  zerolog.Logger
}

func NewApplicationHandler(fetcher application.Fetcher, prefs PreferenceReader, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		fetcher: fetcher,
		prefs:   prefs,
		logger:  logger.With().Str("handler", "application").Logger(),
	}
}

// List mounts a fresh listing for every request and runs its single query.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing session")
		return
	}

	layout := models.LayoutList
	if prefs, err := h.prefs.Snapshot(r.Context()); err == nil {
		layout = prefs.Layout
	}

	listing := application.NewListing(h.fetcher, id.AccessToken, layout)
	if raw := strings.TrimSpace(r.URL.Query().Get("layout")); raw != "" {
		if err := listing.SetLayout(models.Layout(raw)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := listing.Load(r.Context()); err != nil && !errors.Is(err, application.ErrAlreadyLoaded) {
		h.logger.Warn().Err(err).Str("user_id", id.UserID).Msg("failed to fetch applications")
	}

	view := listing.View()
	status := http.StatusOK
	if view.State == application.StateError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, view)
}
