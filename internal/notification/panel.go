package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/stanstork/console-api/internal/models"
	"github.com/stanstork/console-api/internal/serial"
)

// Filter is either FilterAll or a notification category.
type Filter string

const FilterAll Filter = "all"

var (
	ErrNotFound      = errors.New("notification not found")
	ErrDuplicateID   = errors.New("duplicate notification id")
	ErrInvalidFilter = errors.New("invalid notification filter")
	ErrNotExpandable = errors.New("notification has no extended context")
)

func ParseFilter(raw string) (Filter, error) {
	if raw == "" || Filter(raw) == FilterAll {
		return FilterAll, nil
	}
	if !models.IsValidNotificationCategory(models.NotificationCategory(raw)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
	return Filter(raw), nil
}

func (f Filter) matches(n models.Notification) bool {
	return f == FilterAll || models.NotificationCategory(f) == n.Category
}

// View is what the notification center renders.
type View struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
	Filter        Filter                `json:"filter"`
	ExpandedID    string                `json:"expanded_id,omitempty"`
}

// Panel is the in-memory working set behind the notification center.
// Records are never created or removed after Initialize; only their
// read, starred and saved flags change.
type Panel struct {
	queue *serial.Queue

	// owned by queue
	records  []models.Notification
	index    map[string]int
	unread   int
	filter   Filter
	expanded string
}

func NewPanel() *Panel {
	return &Panel{
		queue:  serial.New(16),
		index:  map[string]int{},
		filter: FilterAll,
	}
}

func (p *Panel) Close() {
	p.queue.Close()
}

// Initialize replaces the working set. It also resets the filter and the
// expanded record.
func (p *Panel) Initialize(ctx context.Context, records []models.Notification) error {
	index := make(map[string]int, len(records))
	seeded := make([]models.Notification, 0, len(records))
	unread := 0
	for i, n := range records {
		if _, dup := index[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		index[n.ID] = i
		seeded = append(seeded, n.Clone())
		if !n.Read {
			unread++
		}
	}

	return p.queue.Do(ctx, func() {
		p.records = seeded
		p.index = index
		p.unread = unread
		p.filter = FilterAll
		p.expanded = ""
	})
}

func (p *Panel) ToggleStar(ctx context.Context, id string) (models.Notification, error) {
	return p.mutate(ctx, id, func(n *models.Notification) {
		n.Starred = !n.Starred
	})
}

func (p *Panel) ToggleSave(ctx context.Context, id string) (models.Notification, error) {
	return p.mutate(ctx, id, func(n *models.Notification) {
		n.Saved = !n.Saved
	})
}

// Dismiss marks a record read. There is no way back.
func (p *Panel) Dismiss(ctx context.Context, id string) (models.Notification, error) {
	return p.mutate(ctx, id, func(n *models.Notification) {
		n.Read = true
	})
}

// Restore puts back the flags of a record, used to undo a mutation whose
// write-through failed. Callers must hold off other mutations of the same
// record until Restore returns.
func (p *Panel) Restore(ctx context.Context, prev models.Notification) error {
	_, err := p.mutate(ctx, prev.ID, func(n *models.Notification) {
		n.Read = prev.Read
		n.Starred = prev.Starred
		n.Saved = prev.Saved
	})
	return err
}

func (p *Panel) SetTypeFilter(ctx context.Context, f Filter) error {
	f, err := ParseFilter(string(f))
	if err != nil {
		return err
	}
	return p.queue.Do(ctx, func() { p.filter = f })
}

// Expand shows the detail of one record and hides any other.
func (p *Panel) Expand(ctx context.Context, id string) error {
	var err error
	if doErr := p.queue.Do(ctx, func() {
		i, ok := p.index[id]
		if !ok {
			err = ErrNotFound
			return
		}
		if !p.records[i].Expandable() {
			err = ErrNotExpandable
			return
		}
		p.expanded = id
	}); doErr != nil {
		return doErr
	}
	return err
}

func (p *Panel) Collapse(ctx context.Context) error {
	return p.queue.Do(ctx, func() { p.expanded = "" })
}

func (p *Panel) Get(ctx context.Context, id string) (models.Notification, error) {
	var (
		out models.Notification
		err error
	)
	if doErr := p.queue.Do(ctx, func() {
		i, ok := p.index[id]
		if !ok {
			err = ErrNotFound
			return
		}
		out = p.records[i].Clone()
	}); doErr != nil {
		return models.Notification{}, doErr
	}
	return out, err
}

func (p *Panel) View(ctx context.Context) (View, error) {
	var v View
	err := p.queue.Do(ctx, func() {
		v = View{
			Notifications: p.visible(),
			UnreadCount:   p.unread,
			Filter:        p.filter,
			ExpandedID:    p.expanded,
		}
	})
	return v, err
}

func (p *Panel) visible() []models.Notification {
	out := make([]models.Notification, 0, len(p.records))
	for _, n := range p.records {
		if p.filter.matches(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (p *Panel) mutate(ctx context.Context, id string, apply func(*models.Notification)) (models.Notification, error) {
	var (
		out models.Notification
		err error
	)
	if doErr := p.queue.Do(ctx, func() {
		i, ok := p.index[id]
		if !ok {
			err = ErrNotFound
			return
		}
		wasRead := p.records[i].Read
		apply(&p.records[i])
		switch {
		case wasRead && !p.records[i].Read:
			p.unread++
		case !wasRead && p.records[i].Read:
			p.unread--
		}
		out = p.records[i].Clone()
	}); doErr != nil {
		return models.Notification{}, doErr
	}
	return out, err
}

func (p *Panel) UnreadCount(ctx context.Context) (int, error) {
	var n int
	err := p.queue.Do(ctx, func() { n = p.unread })
	return n, err
}
