// Package session holds the console's authenticated identity.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/serial"
	"github.com/stanstork/console-api/internal/supabase"
)

const (
	msgGenericFailure    = "An error occurred"
	msgCallbackFailure   = "An error occurred during authentication"
	msgSignOutFailure    = "Failed to sign out"
	msgEmailRequired     = "Please enter your email address"
	msgCallbackCodeEmpty = "No code found in URL"

	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var (
	ErrRequestPending = errors.New("request already pending")
	ErrValidation     = errors.New("validation failed")
)

type Action string

const (
	ActionSignIn    Action = "sign_in"
	ActionMagicLink Action = "magic_link"
	ActionExchange  Action = "exchange_code"
	ActionSignOut   Action = "sign_out"
)

// State is a read-only snapshot of the store.
type State struct {
	Identity  *models.Identity `json:"identity"`
	IsLoading bool             `json:"is_loading"`
	LastError string           `json:"error,omitempty"`
}

// Redirect tells the caller where to send the user next.
type Redirect struct {
	To    string
	After time.Duration
}

type Store struct {
	client        supabase.Client
	redirectTo    string
	callbackDelay time.Duration
	queue         *serial.Queue
	logger        zerolog.Logger

	// owned by queue
	identity  *models.Identity
	lastError string
	pending   map[Action]bool
}

type Options struct {
	// AuthRedirectURL is where passwordless links send the user back to.
	AuthRedirectURL string
	// CallbackRedirectDelay is how long a failed callback waits before
	// returning to the sign-in screen.
	CallbackRedirectDelay time.Duration
}

func NewStore(client supabase.Client, opts Options, logger zerolog.Logger) *Store {
	return &Store{
		client:        client,
		redirectTo:    opts.AuthRedirectURL,
		callbackDelay: opts.CallbackRedirectDelay,
		queue:         serial.New(16),
		logger:        logger.With().Str("component", "session_store").Logger(),
		pending:       make(map[Action]bool),
	}
}

func (s *Store) Close() {
	s.queue.Close()
}

func (s *Store) State(ctx context.Context) (State, error) {
	var st State
	err := s.queue.Do(ctx, func() {
		st = s.snapshot()
	})
	return st, err
}

// Identity returns the signed in identity, if any.
func (s *Store) Identity(ctx context.Context) (models.Identity, bool) {
	st, err := s.State(ctx)
	if err != nil || st.Identity == nil {
		return models.Identity{}, false
	}
	return *st.Identity, true
}

func (s *Store) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	if err := s.begin(ctx, ActionSignIn); err != nil {
		return models.Identity{}, err
	}

	id, err := s.client.Authenticate(ctx, strings.TrimSpace(email), password)
	s.finish(ActionSignIn, func() {
		if err != nil {
			s.lastError = messageOf(err, msgGenericFailure)
			return
		}
		s.identity = &id
		s.lastError = ""
	})
	if err != nil {
		s.logger.Info().Err(err).Msg("sign in failed")
		return models.Identity{}, err
	}
	s.logger.Info().Str("user_id", id.UserID).Msg("signed in")
	return id, nil
}

func (s *Store) SignInWithMagicLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		if err := s.queue.Do(ctx, func() { s.lastError = msgEmailRequired }); err != nil {
			return err
		}
		return &ValidationError{Message: msgEmailRequired}
	}

	if err := s.begin(ctx, ActionMagicLink); err != nil {
		return err
	}
	err := s.client.SendPasswordlessLink(ctx, email, s.redirectTo)
	s.finish(ActionMagicLink, func() {
		if err != nil {
			s.lastError = messageOf(err, msgGenericFailure)
		}
	})
	if err != nil {
		s.logger.Info().Err(err).Msg("magic link request failed")
		return err
	}
	return nil
}

// ExchangeAuthCode completes an OAuth or magic link sign-in. On failure the
// returned Redirect points back at the sign-in screen after the configured delay.
func (s *Store) ExchangeAuthCode(ctx context.Context, code string) (models.Identity, Redirect, error) {
	failed := Redirect{To: LoginPath, After: s.callbackDelay}

	code = strings.TrimSpace(code)
	if code == "" {
		if err := s.queue.Do(ctx, func() { s.lastError = msgCallbackCodeEmpty }); err != nil {
			return models.Identity{}, failed, err
		}
		return models.Identity{}, failed, &ValidationError{Message: msgCallbackCodeEmpty}
	}

	if err := s.begin(ctx, ActionExchange); err != nil {
		return models.Identity{}, failed, err
	}
	id, err := s.client.ExchangeCode(ctx, code)
	s.finish(ActionExchange, func() {
		if err != nil {
			s.lastError = messageOf(err, msgCallbackFailure)
			return
		}
		s.identity = &id
		s.lastError = ""
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("auth code exchange failed")
		return models.Identity{}, failed, err
	}
	return id, Redirect{To: DashboardPath}, nil
}

// SignOut ends the remote session and always forgets the local identity.
func (s *Store) SignOut(ctx context.Context) error {
	var token string
	if err := s.queue.Do(ctx, func() {
		if s.identity != nil {
			token = s.identity.AccessToken
		}
	}); err != nil {
		return err
	}
	if err := s.begin(ctx, ActionSignOut); err != nil {
		return err
	}

	err := s.client.EndSession(ctx, token)
	s.finish(ActionSignOut, func() {
		s.identity = nil
		if err != nil {
			s.lastError = messageOf(err, msgSignOutFailure)
		} else {
			s.lastError = ""
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("remote sign out failed, local session cleared")
		return err
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	return s.queue.Do(ctx, func() {
		s.identity = nil
		s.lastError = ""
	})
}

func (s *Store) begin(ctx context.Context, action Action) error {
	var err error
	doErr := s.queue.Do(ctx, func() {
		if s.pending[action] {
			err = ErrRequestPending
			return
		}
		s.pending[action] = true
		s.lastError = ""
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// finish applies the outcome and clears the pending flag. It ignores the
// caller's context so the flag is never left set.
func (s *Store) finish(action Action, apply func()) {
	_ = s.queue.Do(context.Background(), func() {
		apply()
		delete(s.pending, action)
	})
}

func (s *Store) snapshot() State {
	st := State{
		IsLoading: len(s.pending) > 0,
		LastError: s.lastError,
	}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	return st
}

// ValidationError is a local failure that never reached the remote service.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func messageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *supabase.Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// Message normalizes err to the string shown to the user.
func Message(err error, fallback string) string {
	return messageOf(err, fallback)
}
