// Package dedup suppresses repeat low-stock alerts for a product inside the
// cooldown window.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/common/metrics"
	"inventory-monitor/internal/models"
)

// RecentNotificationSource answers "was this product alerted on recently".
type RecentNotificationSource interface {
	// LatestForProductSince returns the most recent low-stock notification
	// for the product created at or after since, or nil when none exists.
	LatestForProductSince(ctx context.Context, productID string, since time.Time) (*models.Notification, error)
}

// Locker is the distributed guard that closes the check-then-act race
// between near-simultaneous triggers.
type Locker interface {
	// Acquire returns true when the caller won the guard for key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Deduplicator struct {
	notifications RecentNotificationSource
	locker        Locker
	cooldown      time.Duration
	logger        logger.Logger
}

func New(notifications RecentNotificationSource, locker Locker, cooldown time.Duration, log logger.Logger) *Deduplicator {
	return &Deduplicator{
		notifications: notifications,
		locker:        locker,
		cooldown:      cooldown,
		logger:        log.WithFields(map[string]interface{}{"component": "dedup"}),
	}
}

// ShouldNotify reports whether a dispatch for the product is allowed.
// Suppression is a logged no-op outcome, not an error. When either backing
// store is unreachable the check fails closed: the product is skipped and
// the error escalates so the whole pass can be retried.
func (d *Deduplicator) ShouldNotify(ctx context.Context, productID string) (bool, error) {
	since := time.Now().UTC().Add(-d.cooldown)

	recent, err := d.notifications.LatestForProductSince(ctx, productID, since)
	if err != nil {
		return false, commonerrors.NewStoreUnavailableError("notifications", err)
	}
	if recent != nil {
		d.suppress(productID, "recent notification within cooldown")
		return false, nil
	}

	acquired, err := d.locker.Acquire(ctx, lockKey(productID), d.cooldown)
	if err != nil {
		return false, commonerrors.NewStoreUnavailableError("dedup lock", err)
	}
	if !acquired {
		d.suppress(productID, "concurrent trigger holds the guard")
		return false, nil
	}

	return true, nil
}

func (d *Deduplicator) suppress(productID, reason string) {
	metrics.NotificationsSuppressed.Inc()
	d.logger.Info("dispatch suppressed", map[string]interface{}{
		"productId": productID,
		"reason":    reason,
	})
}

func lockKey(productID string) string {
	return fmt.Sprintf("lowstock:dedup:%s", productID)
}

// RedisLocker implements Locker on SET NX with a TTL.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
