// Package preferences keeps small console view settings.
package preferences

import (
	"context"
	"errors"

	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/serial"
)

var ErrInvalidLayout = errors.New("layout must be grid or list")

type Store struct {
	queue *serial.Queue
	prefs models.Preferences
}

func NewStore() *Store {
	return &Store{
		queue: serial.New(8),
		prefs: models.DefaultPreferences(),
	}
}

func (s *Store) Close() {
	s.queue.Close()
}

func (s *Store) Snapshot(ctx context.Context) (models.Preferences, error) {
	var out models.Preferences
	err := s.queue.Do(ctx, func() { out = s.prefs })
	return out, err
}

func (s *Store) ToggleSidebar(ctx context.Context) (models.Preferences, error) {
	return s.update(ctx, func(p *models.Preferences) error {
		p.SidebarOpen = !p.SidebarOpen
		return nil
	})
}

func (s *Store) ToggleTheme(ctx context.Context) (models.Preferences, error) {
	return s.update(ctx, func(p *models.Preferences) error {
		if p.Theme == models.ThemeLight {
			p.Theme = models.ThemeDark
		} else {
			p.Theme = models.ThemeLight
		}
		return nil
	})
}

func (s *Store) SetLayout(ctx context.Context, layout models.Layout) (models.Preferences, error) {
	return s.update(ctx, func(p *models.Preferences) error {
		if !models.IsValidLayout(layout) {
			return ErrInvalidLayout
		}
		p.Layout = layout
		return nil
	})
}

func (s *Store) update(ctx context.Context, mutate func(*models.Preferences) error) (models.Preferences, error) {
	var (
		out models.Preferences
		err error
	)
	if doErr := s.queue.Do(ctx, func() {
		next := s.prefs
		if err = mutate(&next); err != nil {
			out = s.prefs
			return
		}
		s.prefs = next
		out = next
	}); doErr != nil {
		return models.Preferences{}, doErr
	}
	return out, err
}
