package models

import (
	"time"
)

type NotificationCategory string

const (
	NotificationCategorySystem      NotificationCategory = "system"
	NotificationCategoryApplication NotificationCategory = "application"
	NotificationCategoryUser        NotificationCategory = "user"
	NotificationCategoryBilling     NotificationCategory = "billing"
	NotificationCategoryMessage     NotificationCategory = "message"
)

var notificationCategories = []NotificationCategory{
	NotificationCategorySystem,
	NotificationCategoryApplication,
	NotificationCategoryUser,
	NotificationCategoryBilling,
	NotificationCategoryMessage,
}

// NotificationCategories returns the closed set of categories in display order.
func NotificationCategories() []NotificationCategory {
	out := make([]NotificationCategory, len(notificationCategories))
	copy(out, notificationCategories)
	return out
}

func IsValidNotificationCategory(c NotificationCategory) bool {
	for _, known := range notificationCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Icon names the glyph the console renders next to a notification.
func (c NotificationCategory) Icon() string {
	switch c {
	case NotificationCategorySystem:
		return "server"
	case NotificationCategoryApplication:
		return "package"
	case NotificationCategoryUser:
		return "alert-circle"
	case NotificationCategoryBilling:
		return "credit-card"
	case NotificationCategoryMessage:
		return "message-square"
	default:
		return "bell"
	}
}

// NotificationContext is the extended detail shown when a notification is expanded.
type NotificationContext struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Notification struct {
	ID          string               `json:"id" db:"id"`
	UserID      string               `json:"user_id,omitempty" db:"user_id"`
	Category    NotificationCategory `json:"type" db:"type"`
	Title       string               `json:"title" db:"title"`
	Description string               `json:"description" db:"description"`
	Context     *NotificationContext `json:"context,omitempty" db:"context"`
	Timestamp   time.Time            `json:"timestamp" db:"created_at"`
	Read        bool                 `json:"read" db:"read"`
	Starred     bool                 `json:"starred" db:"starred"`
	Saved       bool                 `json:"saved" db:"saved"`
}

// Expandable reports whether the notification carries extended context.
func (n Notification) Expandable() bool {
	return n.Context != nil
}

// Clone returns a copy that shares no mutable state with n.
func (n Notification) Clone() Notification {
	out := n
	if n.Context != nil {
		ctx := *n.Context
		if n.Context.Metadata != nil {
			ctx.Metadata = make(map[string]string, len(n.Context.Metadata))
			for k, v := range n.Context.Metadata {
				ctx.Metadata[k] = v
			}
		}
		out.Context = &ctx
	}
	return out
}
