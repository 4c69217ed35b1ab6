package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/notification"
)

type NotificationHandler struct {
	service notification.Service
	logger  zerolog.Logger
}

type filterRequest struct {
	Type string `json:"type" validate:"required"`
}

func NewNotificationHandler(service notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

// List returns the notification center. An optional type query parameter
// sets the filter before reading.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}

	if raw, ok := r.URL.Query()["type"]; ok {
		filter, err := notification.ParseFilter(strings.TrimSpace(raw[0]))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.service.SetTypeFilter(r.Context(), filter); err != nil {
			h.writeServiceError(w, err, "")
			return
		}
	}

	h.writeView(w, r)
}

func (h *NotificationHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}

	var req filterRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := notification.ParseFilter(strings.TrimSpace(req.Type))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.SetTypeFilter(r.Context(), filter); err != nil {
		h.writeServiceError(w, err, "")
		return
	}

	h.writeView(w, r)
}

func (h *NotificationHandler) Star(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.ToggleStar)
}

func (h *NotificationHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.ToggleSave)
}

func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Dismiss)
}

func (h *NotificationHandler) Expand(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Expand)
}

func (h *NotificationHandler) Collapse(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	if err := h.service.Collapse(r.Context()); err != nil {
		h.writeServiceError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (models.Notification, error)) {
	if !h.ensureLoaded(w, r) {
		return
	}

	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	if notifID == "" {
		writeError(w, http.StatusBadRequest, "Notification ID is required")
		return
	}

	notif, err := op(r.Context(), notifID)
	if err != nil {
		h.writeServiceError(w, err, notifID)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}

// ensureLoaded seeds the working set for the signed in user on first use.
func (h *NotificationHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	id, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing session")
		return false
	}
	if err := h.service.Load(r.Context(), id.UserID); err != nil {
		h.logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to load notifications")
		writeError(w, http.StatusInternalServerError, "Failed to load notifications")
		return false
	}
	return true
}

func (h *NotificationHandler) writeView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *NotificationHandler) writeServiceError(w http.ResponseWriter, err error, notifID string) {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, "Notification not found")
	case errors.Is(err, notification.ErrNotExpandable):
		writeError(w, http.StatusUnprocessableEntity, "Notification has no details")
	case errors.Is(err, notification.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Str("notification_id", notifID).Msg("failed to update notification")
		writeError(w, http.StatusInternalServerError, "Failed to update notification")
	}
}
