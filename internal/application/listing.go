// Package application drives the application listing screen.
package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/preferences"
)

const msgFetchFailed = "Failed to fetch applications"

type State string

const (
	StateLoading   State = "loading"
	StatePopulated State = "populated"
	StateEmpty     State = "empty"
	StateError     State = "error"
)

var ErrAlreadyLoaded = errors.New("application listing already loaded")

// Fetcher returns all application records ordered by name.
type Fetcher interface {
	QueryApplications(ctx context.Context, accessToken string) ([]models.Application, error)
}

// View is the listing as the screen renders it.
type View struct {
	State        State                `json:"state"`
	Layout       models.Layout        `json:"layout"`
	Error        string               `json:"error,omitempty"`
	Applications []models.Application `json:"applications"`
}

// Listing is one mount of the application list. It queries once and moves
// from loading to exactly one of populated, empty or error.
type Listing struct {
	fetcher Fetcher
	token   string

	mu      sync.Mutex
	started bool
	state   State
	layout  models.Layout
	apps    []models.Application
	errMsg  string
}

func NewListing(fetcher Fetcher, accessToken string, layout models.Layout) *Listing {
	if !models.IsValidLayout(layout) {
		layout = models.LayoutList
	}
	return &Listing{
		fetcher: fetcher,
		token:   accessToken,
		state:   StateLoading,
		layout:  layout,
	}
}

// Load issues the listing's only query. Later calls return ErrAlreadyLoaded.
func (l *Listing) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyLoaded
	}
	l.started = true
	l.mu.Unlock()

	apps, err := l.fetcher.QueryApplications(ctx, l.token)

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case err != nil:
		l.state = StateError
		l.errMsg = failureMessage(err)
	case len(apps) == 0:
		l.state = StateEmpty
	default:
		l.state = StatePopulated
		l.apps = apps
	}
	return err
}

// SetLayout switches presentation without querying again.
func (l *Listing) SetLayout(layout models.Layout) error {
	if !models.IsValidLayout(layout) {
		return preferences.ErrInvalidLayout
	}
	l.mu.Lock()
	l.layout = layout
	l.mu.Unlock()
	return nil
}

func (l *Listing) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	apps := make([]models.Application, len(l.apps))
	copy(apps, l.apps)
	return View{
		State:        l.state,
		Layout:       l.layout,
		Error:        l.errMsg,
		Applications: apps,
	}
}

func failureMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return msgFetchFailed
}
