package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/preferences"
)

type PreferencesHandler struct {
	store  *preferences.Store
	logger zerolog.Logger
}

type layoutRequest struct {
	Layout string `json:"layout" validate:"required"`
}

func NewPreferencesHandler(store *preferences.Store, logger zerolog.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		store:  store,
		logger: logger.With().Str("handler", "preferences").Logger(),
	}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.write(w)(h.store.Snapshot(r.Context()))
}

func (h *PreferencesHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	h.write(w)(h.store.ToggleSidebar(r.Context()))
}

func (h *PreferencesHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	h.write(w)(h.store.ToggleTheme(r.Context()))
}

func (h *PreferencesHandler) SetLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.write(w)(h.store.SetLayout(r.Context(), models.Layout(req.Layout)))
}

func (h *PreferencesHandler) write(w http.ResponseWriter) func(models.Preferences, error) {
	return func(prefs models.Preferences, err error) {
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, prefs)
		case errors.Is(err, preferences.ErrInvalidLayout):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Msg("preferences store unavailable")
			writeError(w, http.StatusServiceUnavailable, "Preferences unavailable")
		}
	}
}
