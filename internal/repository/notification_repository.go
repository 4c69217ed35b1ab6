package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/stanstork/console-api/internal/models"
)

type NotificationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	UpdateFlags(ctx context.Context, userID string, notif models.Notification) (models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	const query = `
		SELECT id, user_id, type, title, description, context, read, starred, saved, created_at
		FROM console.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(userID))
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate notifications")
	}
	return notifications, nil
}

// UpdateFlags stores the read, starred and saved flags of notif. It returns
// sql.ErrNoRows (wrapped) when the row does not belong to userID.
func (r *notificationRepository) UpdateFlags(ctx context.Context, userID string, notif models.Notification) (models.Notification, error) {
	const query = `
		UPDATE console.notifications
		SET read = $3, starred = $4, saved = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, type, title, description, context, read, starred, saved, created_at
	`
	row := r.db.QueryRowContext(ctx, query,
		strings.TrimSpace(notif.ID),
		strings.TrimSpace(userID),
		notif.Read,
		notif.Starred,
		notif.Saved,
	)
	updated, err := scanNotification(row)
	if err != nil {
		return models.Notification{}, errors.Wrapf(err, "update notification %s", notif.ID)
	}
	return updated, nil
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var (
		notif      models.Notification
		contextRaw []byte
	)

	if err := scanner.Scan(
		&notif.ID,
		&notif.UserID,
		&notif.Category,
		&notif.Title,
		&notif.Description,
		&contextRaw,
		&notif.Read,
		&notif.Starred,
		&notif.Saved,
		&notif.Timestamp,
	); err != nil {
		return models.Notification{}, err
	}

	if len(contextRaw) > 0 && string(contextRaw) != "null" {
		var ctx models.NotificationContext
		if err := json.Unmarshal(contextRaw, &ctx); err != nil {
			return models.Notification{}, errors.Wrapf(err, "decode context of notification %s", notif.ID)
		}
		notif.Context = &ctx
	}

	return notif, nil
}
