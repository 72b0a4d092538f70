// Package dispatcher fans a low-stock candidate out to every eligible user.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory-monitor/internal/authz"
	commonerrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/common/metrics"
	"inventory-monitor/internal/inventory/scanner"
	"inventory-monitor/internal/models"
)

// NotificationWriter persists one alert record. created is false without
// error when the store suppressed a duplicate for the same time bucket.
type NotificationWriter interface {
	Create(ctx context.Context, n models.Notification) (created bool, err error)
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

type Config struct {
	EmailEnabled  bool
	SMSEnabled    bool
	FanoutWorkers int
}

type Dispatcher struct {
	notifications NotificationWriter
	email         EmailSender
	sms           SMSSender
	table         *authz.Table
	cfg           Config
	logger        logger.Logger
}

// Outcome aggregates one fan-out. Per-user failures are counted here and
// never abort delivery to the remaining users.
type Outcome struct {
	Notified   int
	Suppressed int
	Failed     int
}

func New(notifications NotificationWriter, email EmailSender, sms SMSSender, table *authz.Table, cfg Config, log logger.Logger) *Dispatcher {
	if cfg.FanoutWorkers <= 0 {
		cfg.FanoutWorkers = 1
	}
	return &Dispatcher{
		notifications: notifications,
		email:         email,
		sms:           sms,
		table:         table,
		cfg:           cfg,
		logger:        log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// EligibleUsers filters to active users the permission table allows, with a
// contact address when mail delivery is on.
func (d *Dispatcher) EligibleUsers(users []models.User) []models.User {
	eligible := make([]models.User, 0, len(users))
	for _, u := range users {
		if !u.Active {
			continue
		}
		sub := authz.Subject{Roles: u.Roles, Permissions: u.Permissions}
		if !d.table.Allows(sub, authz.ActionReceive, authz.ResourceLowStockAlert) {
			continue
		}
		if d.cfg.EmailEnabled && u.Email == "" {
			continue
		}
		eligible = append(eligible, u)
	}
	return eligible
}

// Dispatch creates one notification record per eligible user, bounded
// worker fan-out, best effort.
func (d *Dispatcher) Dispatch(ctx context.Context, c scanner.Candidate, users []models.User) Outcome {
	eligible := d.EligibleUsers(users)

	var (
		mu      sync.Mutex
		outcome Outcome
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, d.cfg.FanoutWorkers)

	for _, user := range eligible {
		wg.Add(1)
		sem <- struct{}{}
		go func(user models.User) {
			defer wg.Done()
			defer func() { <-sem }()

			created, err := d.notifyUser(ctx, c, user)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				outcome.Failed++
			case created:
				outcome.Notified++
			default:
				outcome.Suppressed++
			}
		}(user)
	}
	wg.Wait()

	return outcome
}

func (d *Dispatcher) notifyUser(ctx context.Context, c scanner.Candidate, user models.User) (bool, error) {
	n := models.Notification{
		ID:     uuid.New().String(),
		Type:   models.NotificationTypeLowStock,
		UserID: user.ID,
		Payload: models.NotificationPayload{
			ProductID:    c.Product.ID,
			ProductName:  c.Product.Name,
			SKU:          c.Product.SKU,
			CurrentStock: c.Product.CurrentStock,
			ROP:          c.ROP.String(),
			Urgency:      c.Urgency,
		},
		CreatedAt: time.Now().UTC(),
	}
	if c.EOQ.Valid {
		n.Payload.EOQ = c.EOQ.Decimal.String()
	}

	created, err := d.notifications.Create(ctx, n)
	if err != nil {
		d.logFailure(user.ID, c.Product.ID, "record", err)
		return false, commonerrors.NewRecipientDeliveryFailedError(user.ID, err)
	}
	if !created {
		return false, nil
	}

	metrics.NotificationsSent.WithLabelValues(c.Urgency).Inc()

	// Channel delivery is best effort on top of the persisted record.
	if d.cfg.EmailEnabled && user.Email != "" {
		subject, body := renderEmail(c)
		if err := d.email.Send(ctx, user.Email, subject, body); err != nil {
			metrics.DeliveryFailures.WithLabelValues("email").Inc()
			d.logFailure(user.ID, c.Product.ID, "email", err)
		}
	}
	if d.cfg.SMSEnabled && c.Urgency == models.UrgencyCritical && user.Phone != "" {
		if err := d.sms.Send(ctx, user.Phone, renderSMS(c)); err != nil {
			metrics.DeliveryFailures.WithLabelValues("sms").Inc()
			d.logFailure(user.ID, c.Product.ID, "sms", err)
		}
	}

	return true, nil
}

func (d *Dispatcher) logFailure(userID, productID, channel string, err error) {
	d.logger.Error("notification delivery failed", map[string]interface{}{
		"userId":    userID,
		"productId": productID,
		"channel":   channel,
		"error":     err.Error(),
	})
}

func renderEmail(c scanner.Candidate) (subject, body string) {
	subject = fmt.Sprintf("Low stock alert: %s (%s)", c.Product.Name, c.Product.SKU)
	body = fmt.Sprintf(
		"Product %s (%s) is at %d units, at or below its reorder point of %d units.",
		c.Product.Name, c.Product.SKU, c.Product.CurrentStock, c.ROPUnits,
	)
	if c.EOQ.Valid {
		body += fmt.Sprintf(" Suggested order quantity: %d units.", c.EOQUnits)
	}
	return subject, body
}

func renderSMS(c scanner.Candidate) string {
	return fmt.Sprintf("CRITICAL low stock: %s at %d units (reorder at %d)",
		c.Product.SKU, c.Product.CurrentStock, c.ROPUnits)
}
