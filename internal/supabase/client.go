// Package supabase talks to the hosted auth (GoTrue) and row storage (PostgREST)
// endpoints the console is built on.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/config"
	"github.com/stanstork/console-api/internal/models"
)

// Client is the remote contract the console consumes.
type Client interface {
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
	SendPasswordlessLink(ctx context.Context, email, redirectTo string) error
	ExchangeCode(ctx context.Context, code string) (models.Identity, error)
	EndSession(ctx context.Context, accessToken string) error
	QueryApplications(ctx context.Context, accessToken string) ([]models.Application, error)
}

// HTTPClient is the Client used in production. It keeps the PKCE verifier of
// the most recent passwordless request only: a later SendPasswordlessLink
// replaces it, so only the newest emailed link can be exchanged. This matches
// the single process-wide session.
type HTTPClient struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	logger  zerolog.Logger

	mu       sync.Mutex
	verifier string // PKCE verifier of the last passwordless request
}

func NewHTTPClient(cfg config.SupabaseConfig, httpClient *http.Client, logger zerolog.Logger) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.URL), "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse supabase url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("supabase url must be absolute, got %q", cfg.URL)
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL: base,
		anonKey: cfg.AnonKey,
		http:    httpClient,
		logger:  logger.With().Str("component", "supabase").Logger(),
	}, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			FullName  string `json:"full_name"`
			AvatarURL string `json:"avatar_url"`
		} `json:"user_metadata"`
	} `json:"user"`
}

func (t tokenResponse) identity() models.Identity {
	return models.Identity{
		UserID:       t.User.ID,
		Email:        t.User.Email,
		DisplayName:  t.User.UserMetadata.FullName,
		AvatarURL:    t.User.UserMetadata.AvatarURL,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}

func (c *HTTPClient) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"password"}}, "", body, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.identity(), nil
}

func (c *HTTPClient) SendPasswordlessLink(ctx context.Context, email, redirectTo string) error {
	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return errors.Wrap(err, "generate pkce pair")
	}
	body := map[string]interface{}{
		"email":                 email,
		"create_user":           true,
		"code_challenge":        challenge,
		"code_challenge_method": "s256",
	}
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/otp", query, "", body, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.verifier = verifier
	c.mu.Unlock()
	c.logger.Debug().Str("email", email).Msg("passwordless link requested")
	return nil
}

func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) (models.Identity, error) {
	c.mu.Lock()
	verifier := c.verifier
	c.mu.Unlock()
	if verifier == "" {
		return models.Identity{}, &Error{Status: http.StatusBadRequest, Code: "missing_code_verifier", Message: "No code verifier found for this sign-in"}
	}

	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"pkce"}}, "", body, &resp); err != nil {
		return models.Identity{}, err
	}

	c.mu.Lock()
	if c.verifier == verifier {
		c.verifier = ""
	}
	c.mu.Unlock()
	return resp.identity(), nil
}

func (c *HTTPClient) EndSession(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
}

func (c *HTTPClient) QueryApplications(ctx context.Context, accessToken string) ([]models.Application, error) {
	query := url.Values{"select": {"*"}, "order": {"name.asc"}}
	var apps []models.Application
	if err := c.do(ctx, http.MethodGet, "/rest/v1/applications", query, accessToken, nil, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, bearer string, in, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := parseError(resp.StatusCode, raw)
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", apiErr.Code).
			Msg("supabase request failed")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}
