// Package scheduler drives the periodic full-catalog low-stock scan.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/models"
)

// ScanRunner starts a scan-and-notify pass over the whole catalog.
type ScanRunner interface {
	EvaluateAndNotify(ctx context.Context, trigger, productID string) (models.ScanSummary, error)
}

type Scheduler struct {
	cron     *cron.Cron
	monitor  ScanRunner
	schedule string
	timeout  time.Duration
	logger   logger.Logger
}

func New(monitor ScanRunner, schedule string, timeout time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		monitor:  monitor,
		schedule: schedule,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}
}

// Start registers the scan job and begins ticking.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScan); err != nil {
		return apperrors.NewConfigurationInvalidError("invalid cron schedule: " + s.schedule)
	}

	s.logger.Info("scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	s.cron.Start()
	return nil
}

// Stop halts the ticker and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler", nil)
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.monitor.EvaluateAndNotify(ctx, models.TriggerSchedule, "")
	if err != nil {
		// The previous tick is still scanning; skip this one.
		if apperrors.HasCode(err, apperrors.ErrCodeScanInFlight) {
			s.logger.Warn("scheduled scan skipped, previous pass still running", nil)
			return
		}
		s.logger.Error("scheduled scan failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.logger.Info("scheduled scan complete", map[string]interface{}{
		"checked":    summary.Checked,
		"lowStock":   summary.LowStock,
		"notified":   summary.Notified,
		"onCooldown": summary.OnCooldown,
		"suppressed": summary.Suppressed,
	})
}
