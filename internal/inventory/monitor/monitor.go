// Package monitor owns the scan-and-notify pass: single-flight triggering,
// bounded retry on store failure, and the notification query surface.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	commonerrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/common/metrics"
	"inventory-monitor/internal/inventory/dispatcher"
	"inventory-monitor/internal/inventory/scanner"
	"inventory-monitor/internal/models"
)

// Scanner produces low-stock candidates for the catalog or one product.
type Scanner interface {
	Scan(ctx context.Context, productID string) (scanner.Result, error)
}

// Gate decides whether a candidate may be dispatched this pass.
type Gate interface {
	ShouldNotify(ctx context.Context, productID string) (bool, error)
}

// Fanout delivers one candidate to a user set.
type Fanout interface {
	Dispatch(ctx context.Context, c scanner.Candidate, users []models.User) dispatcher.Outcome
}

// UserSource lists the recipients considered for delivery.
type UserSource interface {
	ListActiveUsers(ctx context.Context) ([]models.User, error)
}

// NotificationQueries is the read surface the surrounding application uses.
type NotificationQueries interface {
	UnreadForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// AuditSink records pass summaries; best effort.
type AuditSink interface {
	RecordScan(ctx context.Context, summary models.ScanSummary) error
}

type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

type Service struct {
	scanner       Scanner
	gate          Gate
	fanout        Fanout
	users         UserSource
	notifications NotificationQueries
	audit         AuditSink
	cfg           Config
	logger        logger.Logger

	inFlight atomic.Bool
}

func New(sc Scanner, gate Gate, fanout Fanout, users UserSource, notifications NotificationQueries, audit AuditSink, cfg Config, log logger.Logger) *Service {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Service{
		scanner:       sc,
		gate:          gate,
		fanout:        fanout,
		users:         users,
		notifications: notifications,
		audit:         audit,
		cfg:           cfg,
		logger:        log.WithFields(map[string]interface{}{"component": "monitor"}),
	}
}

// EvaluateAndNotify runs one scan-and-notify pass. Only one pass may be in
// flight at a time; an overlapping trigger is rejected, not queued. On
// store failure the pass is retried with exponential backoff up to the
// configured budget.
func (s *Service) EvaluateAndNotify(ctx context.Context, trigger, productID string) (models.ScanSummary, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		metrics.ScanOverlapsRejected.Inc()
		s.logger.Warn("scan trigger rejected, pass in flight", map[string]interface{}{
			"trigger":      trigger,
			"productScope": productID,
		})
		return models.ScanSummary{}, commonerrors.NewScanInFlightError()
	}
	defer s.inFlight.Store(false)

	metrics.ScanRuns.WithLabelValues(trigger).Inc()
	started := time.Now().UTC()

	var (
		summary models.ScanSummary
		err     error
	)
	backoff := s.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		summary, err = s.pass(ctx, productID)
		if err == nil || !commonerrors.IsRetryable(err) || attempt >= s.cfg.MaxRetries {
			break
		}

		s.logger.Warn("scan pass failed, retrying", map[string]interface{}{
			"trigger": trigger,
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return models.ScanSummary{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	summary.Trigger = trigger
	summary.ProductScope = productID
	summary.StartedAt = started
	summary.Duration = time.Since(started)
	metrics.ScanDuration.Observe(summary.Duration.Seconds())

	if err != nil {
		s.logger.Error("scan pass failed", map[string]interface{}{
			"trigger": trigger,
			"error":   err.Error(),
		})
		return summary, err
	}

	s.logger.Info("scan pass complete", map[string]interface{}{
		"trigger":    trigger,
		"checked":    summary.Checked,
		"lowStock":   summary.LowStock,
		"notified":   summary.Notified,
		"onCooldown": summary.OnCooldown,
		"suppressed": summary.Suppressed,
		"failed":     summary.Failed,
		"duration":   summary.Duration.String(),
	})

	if s.audit != nil {
		if auditErr := s.audit.RecordScan(ctx, summary); auditErr != nil {
			s.logger.Warn("scan audit record failed", map[string]interface{}{
				"error": auditErr.Error(),
			})
		}
	}

	return summary, nil
}

func (s *Service) pass(ctx context.Context, productID string) (models.ScanSummary, error) {
	scanRes, err := s.scanner.Scan(ctx, productID)
	if err != nil {
		return models.ScanSummary{}, err
	}

	summary := models.ScanSummary{
		Checked:      scanRes.Checked,
		LowStock:     len(scanRes.Candidates),
		ConfigErrors: scanRes.ConfigErrors,
	}

	if len(scanRes.Candidates) == 0 {
		return summary, nil
	}

	users, err := s.users.ListActiveUsers(ctx)
	if err != nil {
		return summary, commonerrors.NewStoreUnavailableError("users", err)
	}

	for _, candidate := range scanRes.Candidates {
		allowed, err := s.gate.ShouldNotify(ctx, candidate.Product.ID)
		if err != nil {
			// Fail closed: the pass escalates so the retry budget applies.
			return summary, err
		}
		if !allowed {
			summary.OnCooldown++
			continue
		}

		outcome := s.fanout.Dispatch(ctx, candidate, users)
		summary.Notified += outcome.Notified
		summary.Suppressed += outcome.Suppressed
		summary.Failed += outcome.Failed
	}

	return summary, nil
}

// UnreadNotifications returns the unread alerts for a user.
func (s *Service) UnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.notifications.UnreadForUser(ctx, userID)
}

// MarkRead toggles the read flag on one of the user's notifications.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}
