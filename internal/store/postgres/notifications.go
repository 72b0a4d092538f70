// internal/store/postgres/notifications.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"inventory-monitor/internal/models"
)

// pq error code for unique_violation.
const uniqueViolation = "23505"

// NotificationStore persists alert records. The table carries a unique
// index on (user_id, product_id, type, time_bucket); an insert that hits it
// is a suppressed duplicate, not a failure.
type NotificationStore struct {
	db       *sql.DB
	cooldown time.Duration
}

func NewNotificationStore(db *sql.DB, cooldown time.Duration) *NotificationStore {
	return &NotificationStore{db: db, cooldown: cooldown}
}

// Create inserts one notification record. Returns created=false without
// error when the cooldown-bucket unique index suppressed a duplicate.
func (s *NotificationStore) Create(ctx context.Context, n models.Notification) (bool, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	bucket := n.CreatedAt.UTC().Truncate(s.cooldown)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, user_id, product_id, payload, is_read, time_bucket, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
		n.ID, n.Type, n.UserID, n.Payload.ProductID, payload, bucket, n.CreatedAt.UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

// LatestForProductSince returns the most recent low-stock notification for
// the product created at or after since, or nil when none exists.
func (s *NotificationStore) LatestForProductSince(ctx context.Context, productID string, since time.Time) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, user_id, payload, is_read, created_at
		FROM notifications
		WHERE product_id = $1 AND type = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`,
		productID, models.NotificationTypeLowStock, since.UTC(),
	)

	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest notification for %s: %w", productID, err)
	}
	return &n, nil
}

// UnreadForUser returns the user's unread notifications, newest first.
func (s *NotificationStore) UnreadForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, user_id, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("unread notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flips the read flag. The user id guards against marking another
// user's notification.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark read %s: %w", notificationID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification %s not found for user %s", notificationID, userID)
	}
	return nil
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var (
		n       models.Notification
		payload []byte
	)
	if err := row.Scan(&n.ID, &n.Type, &n.UserID, &payload, &n.Read, &n.CreatedAt); err != nil {
		return models.Notification{}, err
	}
	if err := json.Unmarshal(payload, &n.Payload); err != nil {
		return models.Notification{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return n, nil
}
