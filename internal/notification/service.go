package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/repository"
)

// Service is the notification center: the panel's working set, optionally
// written through to a repository, with change events fanned out to notifiers.
type Service interface {
	Load(ctx context.Context, userID string) error
	View(ctx context.Context) (View, error)
	ToggleStar(ctx context.Context, id string) (models.Notification, error)
	ToggleSave(ctx context.Context, id string) (models.Notification, error)
	Dismiss(ctx context.Context, id string) (models.Notification, error)
	SetTypeFilter(ctx context.Context, f Filter) error
	Expand(ctx context.Context, id string) (models.Notification, error)
	Collapse(ctx context.Context) error
	Close()
}

type service struct {
	panel     *Panel
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
	now       func() time.Time

	loadMu sync.Mutex // held for a whole Load

	mu       sync.RWMutex
	loaded   bool
	loadedBy string

	// one lock per record id, held across read, apply, persist and restore
	recordMu    sync.Mutex
	recordLocks map[string]*sync.Mutex
}

// NewService builds the notification center. repo may be nil, in which case
// the working set is the built-in sample set and changes live only in memory.
func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		panel:     NewPanel(),
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
		now:       time.Now,

		recordLocks: make(map[string]*sync.Mutex),
	}
}

// Load seeds the working set for userID. It is a no-op when the set was
// already seeded for the same user.
func (s *service) Load(ctx context.Context, userID string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	same := s.loaded && s.loadedBy == userID
	s.mu.RUnlock()
	if same {
		return nil
	}

	var records []models.Notification
	if s.repo != nil {
		rows, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load notifications")
			return err
		}
		records = rows
	} else {
		records = SampleWorkingSet(s.now())
	}

	if err := s.panel.Initialize(ctx, records); err != nil {
		return err
	}

	s.mu.Lock()
	s.loaded = true
	s.loadedBy = userID
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", userID).Int("count", len(records)).Msg("notification working set loaded")
	return nil
}

func (s *service) View(ctx context.Context) (View, error) {
	return s.panel.View(ctx)
}

func (s *service) ToggleStar(ctx context.Context, id string) (models.Notification, error) {
	return s.apply(ctx, ActionStar, id, s.panel.ToggleStar)
}

func (s *service) ToggleSave(ctx context.Context, id string) (models.Notification, error) {
	return s.apply(ctx, ActionSave, id, s.panel.ToggleSave)
}

func (s *service) Dismiss(ctx context.Context, id string) (models.Notification, error) {
	return s.apply(ctx, ActionDismiss, id, s.panel.Dismiss)
}

func (s *service) SetTypeFilter(ctx context.Context, f Filter) error {
	return s.panel.SetTypeFilter(ctx, f)
}

func (s *service) Expand(ctx context.Context, id string) (models.Notification, error) {
	if err := s.panel.Expand(ctx, id); err != nil {
		return models.Notification{}, err
	}
	return s.panel.Get(ctx, id)
}

func (s *service) Collapse(ctx context.Context) error {
	return s.panel.Collapse(ctx)
}

func (s *service) Close() {
	s.panel.Close()
}

func (s *service) apply(ctx context.Context, action Action, id string, op func(context.Context, string) (models.Notification, error)) (models.Notification, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	prev, err := s.panel.Get(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}
	updated, err := op(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}

	s.mu.RLock()
	userID := s.loadedBy
	s.mu.RUnlock()

	if s.repo != nil {
		if _, err := s.repo.UpdateFlags(ctx, userID, updated); err != nil {
			s.logger.Error().Err(err).Str("notification_id", id).Str("action", string(action)).Msg("failed to persist notification change")
			if rerr := s.panel.Restore(context.Background(), prev); rerr != nil {
				s.logger.Error().Err(rerr).Str("notification_id", id).Msg("failed to restore notification")
			}
			return models.Notification{}, err
		}
	}

	unread, err := s.panel.UnreadCount(ctx)
	if err != nil {
		return updated, nil
	}
	evt := ChangeEvent{
		UserID:       userID,
		Action:       action,
		Notification: updated,
		UnreadCount:  unread,
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, evt); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), evt)
		}
	}
	return updated, nil
}

func (s *service) lockRecord(id string) func() {
	s.recordMu.Lock()
	l, ok := s.recordLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.recordLocks[id] = l
	}
	s.recordMu.Unlock()

	l.Lock()
	return l.Unlock
}
