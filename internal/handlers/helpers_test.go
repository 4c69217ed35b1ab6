package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/session"
)

type fakeRemote struct {
	mu sync.Mutex

	identity  models.Identity
	authErr   error
	linkErr   error
	codeErr   error
	logoutErr error
	apps      []models.Application
	appsErr   error

	linkCalls  int
	queryCalls int
	lastToken  string
}

func (f *fakeRemote) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	if f.authErr != nil {
		return models.Identity{}, f.authErr
	}
	return f.identity, nil
}

func (f *fakeRemote) SendPasswordlessLink(ctx context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	return f.linkErr
}

func (f *fakeRemote) ExchangeCode(ctx context.Context, code string) (models.Identity, error) {
	if f.codeErr != nil {
		return models.Identity{}, f.codeErr
	}
	return f.identity, nil
}

func (f *fakeRemote) EndSession(ctx context.Context, accessToken string) error {
	return f.logoutErr
}

func (f *fakeRemote) QueryApplications(ctx context.Context, accessToken string) ([]models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	f.lastToken = accessToken
	return f.apps, f.appsErr
}

var testIdentity = models.Identity{
	UserID:      "3f1c2d7e-0000-4000-8000-000000000001",
	Email:       "ada@example.com",
	AccessToken: "provider-access",
}

func newSessionStore(t *testing.T, remote *fakeRemote) *session.Store {
	t.Helper()
	store := session.NewStore(remote, session.Options{
		AuthRedirectURL:       "http://localhost:3000/auth/callback",
		CallbackRedirectDelay: 3 * time.Second,
	}, zerolog.Nop())
	t.Cleanup(store.Close)
	return store
}

func newAuthHandler(t *testing.T, remote *fakeRemote) (*AuthHandler, *session.Store) {
	t.Helper()
	store := newSessionStore(t, remote)
	return NewAuthHandler(store, authz.NewTokens("test-secret"), zerolog.Nop()), store
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// signedIn attaches the identity the session gate would have resolved.
func signedIn(req *http.Request) *http.Request {
	return req.WithContext(authz.WithIdentity(req.Context(), testIdentity))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
