package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/models"
)

type Action string

const (
	ActionStar    Action = "star"
	ActionSave    Action = "save"
	ActionDismiss Action = "dismiss"
)

// ChangeEvent describes one flag mutation on a user's notification.
type ChangeEvent struct {
	UserID       string              `json:"user_id"`
	Action       Action              `json:"action"`
	Notification models.Notification `json:"notification"`
	UnreadCount  int                 `json:"unread_count"`
}

// Notifier delivers change events to interested parties.
type Notifier interface {
	Notify(ctx context.Context, evt ChangeEvent) error
}

func logNotifyError(logger zerolog.Logger, err error, channel string, evt ChangeEvent) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", evt.Notification.ID).
		Str("action", string(evt.Action)).
		Str("channel", channel).
		Msg("failed to deliver notification change")
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
