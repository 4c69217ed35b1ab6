package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stanstork/console-api/internal/handlers"
	"github.com/stanstork/console-api/internal/metrics"
	"github.com/stanstork/console-api/internal/middleware"
)

// NewRouter sets up the console routes. gate guards everything that needs
// a signed in user.
func NewRouter(
	auth *handlers.AuthHandler,
	notifications *handlers.NotificationHandler,
	apps *handlers.ApplicationHandler,
	prefs *handlers.PreferencesHandler,
	ws *handlers.WSHandler,
	gate func(http.Handler) http.Handler,
	m *metrics.Metrics,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware(m))

	// Health check and metrics
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/auth/login", auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/magic-link", auth.MagicLink).Methods(http.MethodPost)
	router.HandleFunc("/auth/callback", auth.Callback).Methods(http.MethodGet)
	router.HandleFunc("/api/session", auth.Session).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(gate)

	api.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)

	api.HandleFunc("/notifications", notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/filter", notifications.SetFilter).Methods(http.MethodPut)
	api.HandleFunc("/notifications/expanded", notifications.Collapse).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/{notificationID}/star", notifications.Star).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/save", notifications.Save).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/dismiss", notifications.Dismiss).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/expand", notifications.Expand).Methods(http.MethodPost)

	api.HandleFunc("/applications", apps.List).Methods(http.MethodGet)

	api.HandleFunc("/preferences", prefs.Get).Methods(http.MethodGet)
	api.HandleFunc("/preferences/sidebar/toggle", prefs.ToggleSidebar).Methods(http.MethodPost)
	api.HandleFunc("/preferences/theme/toggle", prefs.ToggleTheme).Methods(http.MethodPost)
	api.HandleFunc("/preferences/layout", prefs.SetLayout).Methods(http.MethodPut)

	api.HandleFunc("/ws", ws.Connect).Methods(http.MethodGet)

	return router
}
