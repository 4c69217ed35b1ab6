package supabase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/console-api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(config.SupabaseConfig{URL: srv.URL, AnonKey: "anon-key"}, srv.Client(), zerolog.Nop())
	require.NoError(t, err)
	return c
}

const tokenJSON = `{
	"access_token": "access",
	"refresh_token": "refresh",
	"token_type": "bearer",
	"expires_in": 3600,
	"user": {"id": "u-1", "email": "ada@example.com", "user_metadata": {"full_name": "Ada Lovelace", "avatar_url": "https://img/ada.png"}}
}`

func TestAuthenticate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "pw", body["password"])

		w.Write([]byte(tokenJSON))
	})

	id, err := c.Authenticate(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "Ada Lovelace", id.DisplayName)
	assert.Equal(t, "https://img/ada.png", id.AvatarURL)
	assert.Equal(t, "access", id.AccessToken)
	assert.Equal(t, "refresh", id.RefreshToken)
}

func TestAuthenticate_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.Authenticate(context.Background(), "ada@example.com", "wrong")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid login credentials", apiErr.Error())
}

func TestPasswordlessLinkThenExchange(t *testing.T) {
	var challenge string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/otp":
			assert.Equal(t, "http://localhost:3000/auth/callback", r.URL.Query().Get("redirect_to"))
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "s256", body["code_challenge_method"])
			challenge, _ = body["code_challenge"].(string)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		case "/auth/v1/token":
			assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "the-code", body["auth_code"])
			assert.NotEmpty(t, body["code_verifier"])
			w.Write([]byte(tokenJSON))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	require.NoError(t, c.SendPasswordlessLink(context.Background(), "ada@example.com", "http://localhost:3000/auth/callback"))
	assert.NotEmpty(t, challenge)

	id, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", id.Email)
}

func TestExchangeCode_UsesNewestLinkVerifier(t *testing.T) {
	var challenges []string
	var sentVerifier string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/otp":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			challenge, _ := body["code_challenge"].(string)
			challenges = append(challenges, challenge)
			w.Write([]byte(`{}`))
		case "/auth/v1/token":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			sentVerifier = body["code_verifier"]
			w.Write([]byte(tokenJSON))
		}
	})

	ctx := context.Background()
	require.NoError(t, c.SendPasswordlessLink(ctx, "ada@example.com", "http://localhost:3000/auth/callback"))
	require.NoError(t, c.SendPasswordlessLink(ctx, "grace@example.com", "http://localhost:3000/auth/callback"))
	require.Len(t, challenges, 2)
	require.NotEqual(t, challenges[0], challenges[1])

	_, err := c.ExchangeCode(ctx, "the-code")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(sentVerifier))
	assert.Equal(t, challenges[1], base64.RawURLEncoding.EncodeToString(sum[:]))

	// the verifier is single use
	_, err = c.ExchangeCode(ctx, "the-code")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "missing_code_verifier", apiErr.Code)
}

func TestExchangeCode_WithoutVerifier(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.ExchangeCode(context.Background(), "code")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "missing_code_verifier", apiErr.Code)
}

func TestEndSession_SendsUserToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.EndSession(context.Background(), "user-token"))
}

func TestQueryApplications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/applications", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "name.asc", r.URL.Query().Get("order"))
		w.Write([]byte(`[
			{"id":"2","name":"Zeta","slug":"zeta","status":"active","total_users":10,"count_active_users":4},
			{"id":"1","name":"Alpha","slug":"alpha","status":"offline","icon_url":null}
		]`))
	})

	apps, err := c.QueryApplications(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	// order is whatever the store returned
	assert.Equal(t, "Zeta", apps[0].Name)
	assert.Equal(t, int64(4), apps[0].ActiveUsers)
	assert.Nil(t, apps[1].IconURL)
}

func TestQueryApplications_EmptyBodyIsEmptySlice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	apps, err := c.QueryApplications(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestParseError_NoMessage(t *testing.T) {
	apiErr := parseError(http.StatusInternalServerError, []byte(`{}`))
	assert.Equal(t, "", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient(config.SupabaseConfig{URL: "project.supabase.co", AnonKey: "k"}, nil, zerolog.Nop())
	assert.Error(t, err)
}
