package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/console-api/internal/application"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/preferences"
)

func newApplicationHandler(t *testing.T, remote *fakeRemote) (*ApplicationHandler, *preferences.Store) {
	t.Helper()
	prefs := preferences.NewStore()
	t.Cleanup(prefs.Close)
	return NewApplicationHandler(remote, prefs, zerolog.Nop()), prefs
}

func TestApplications_Populated(t *testing.T) {
	remote := &fakeRemote{apps: []models.Application{
		{ID: "a1", Name: "Analytics", Status: models.ApplicationStatusActive},
		{ID: "a2", Name: "ChatBot", Status: models.ApplicationStatusMaintenance},
	}}
	handler, _ := newApplicationHandler(t, remote)

	rec := httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var view application.View
	decodeBody(t, rec, &view)
	assert.Equal(t, application.StatePopulated, view.State)
	assert.Equal(t, models.LayoutList, view.Layout)
	require.Len(t, view.Applications, 2)
	assert.Equal(t, "Analytics", view.Applications[0].Name)
	assert.Equal(t, "provider-access", remote.lastToken)
}

func TestApplications_EmptyResult(t *testing.T) {
	handler, _ := newApplicationHandler(t, &fakeRemote{apps: []models.Application{}})

	rec := httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var view application.View
	decodeBody(t, rec, &view)
	assert.Equal(t, application.StateEmpty, view.State)
	assert.Empty(t, view.Applications)
}

func TestApplications_FailureWithoutMessage(t *testing.T) {
	handler, _ := newApplicationHandler(t, &fakeRemote{appsErr: errors.New("")})

	rec := httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications", nil)))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var view application.View
	decodeBody(t, rec, &view)
	assert.Equal(t, application.StateError, view.State)
	assert.Equal(t, "Failed to fetch applications", view.Error)
}

func TestApplications_LayoutFromPreferencesAndQuery(t *testing.T) {
	remote := &fakeRemote{apps: []models.Application{{ID: "a1", Name: "Analytics"}}}
	handler, prefs := newApplicationHandler(t, remote)
	_, err := prefs.SetLayout(context.Background(), models.LayoutGrid)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications", nil)))
	var view application.View
	decodeBody(t, rec, &view)
	assert.Equal(t, models.LayoutGrid, view.Layout)

	rec = httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications?layout=list", nil)))
	view = application.View{}
	decodeBody(t, rec, &view)
	assert.Equal(t, models.LayoutList, view.Layout)

	rec = httptest.NewRecorder()
	handler.List(rec, signedIn(httptest.NewRequest(http.MethodGet, "/api/applications?layout=table", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// every request is a fresh listing with its own query; the rejected one never queried
	assert.Equal(t, 2, remote.queryCalls)
}
