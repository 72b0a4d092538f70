// cmd/stock-monitor/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"inventory-monitor/internal/authz"
	awsclients "inventory-monitor/internal/common/aws"
	"inventory-monitor/internal/common/config"
	"inventory-monitor/internal/common/database"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/common/observability"
	"inventory-monitor/internal/delivery"
	"inventory-monitor/internal/events"
	"inventory-monitor/internal/inventory/calculator"
	"inventory-monitor/internal/inventory/dedup"
	"inventory-monitor/internal/inventory/dispatcher"
	"inventory-monitor/internal/inventory/monitor"
	"inventory-monitor/internal/inventory/scanner"
	"inventory-monitor/internal/models"
	"inventory-monitor/internal/scheduler"
	"inventory-monitor/internal/store/elastic"
	"inventory-monitor/internal/store/postgres"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// recordingMonitor layers OTel pass metrics over the monitor service.
type recordingMonitor struct {
	*monitor.Service
	obs *observability.Observability
}

func (r *recordingMonitor) EvaluateAndNotify(ctx context.Context, trigger, productID string) (models.ScanSummary, error) {
	start := time.Now()
	summary, err := r.Service.EvaluateAndNotify(ctx, trigger, productID)
	r.obs.RecordPass(ctx, trigger, time.Since(start), err)
	return summary, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting stock monitor...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch audit sink (optional) ---
	var auditSink monitor.AuditSink
	if cfg.Audit.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		auditSink = elastic.NewScanAuditStore(esClient.Client, cfg.Audit.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Delivery channels ---
	var emailSender dispatcher.EmailSender
	var smsSender dispatcher.SMSSender
	if cfg.Notifications.EmailEnabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailSender = delivery.NewEmailSender(sesClient, cfg.Notifications.FromEmail)
	}
	if cfg.Notifications.SMSEnabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		smsSender = delivery.NewSMSSender(snsClient)
	}

	// --- Stores ---
	productStore := postgres.NewProductStore(pg.DB)
	userStore := postgres.NewUserStore(pg.DB)
	notificationStore := postgres.NewNotificationStore(pg.DB, cfg.Monitor.Cooldown)

	// --- Pipeline components ---
	stockScanner := scanner.New(productStore, scanner.Config{
		Defaults: calculator.Defaults{
			LeadTimeDays: int64(cfg.Monitor.DefaultLeadTimeDays),
			SafetyStock:  int64(cfg.Monitor.DefaultSafetyStock),
		},
		CriticalRatio:     decimal.NewFromFloat(cfg.Monitor.CriticalRatio),
		PersistThresholds: cfg.Monitor.PersistThresholds,
	}, log)

	gate := dedup.New(notificationStore, dedup.NewRedisLocker(redisClient.Client), cfg.Monitor.Cooldown, log)

	table := authz.LowStockAlertTable(cfg.Notifications.EligibleRoles, cfg.Notifications.EligiblePermissions)
	fanout := dispatcher.New(notificationStore, emailSender, smsSender, table, dispatcher.Config{
		EmailEnabled:  cfg.Notifications.EmailEnabled,
		SMSEnabled:    cfg.Notifications.SMSEnabled,
		FanoutWorkers: cfg.Monitor.FanoutWorkers,
	}, log)

	svc := monitor.New(stockScanner, gate, fanout, userStore, notificationStore, auditSink, monitor.Config{
		MaxRetries:   cfg.Monitor.MaxRetries,
		RetryBackoff: cfg.Monitor.RetryBackoff,
	}, log)
	recorded := &recordingMonitor{Service: svc, obs: obs}

	// --- Scheduled scans ---
	sched := scheduler.New(recorded, cfg.Monitor.CronSchedule, 10*time.Minute, log)
	if err := sched.Start(); err != nil {
		zapLog.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	// --- Event-triggered scans ---
	if cfg.Events.Channel != "" {
		subscriber, err := events.NewSubscriber(redisClient.Client, cfg.Events.Channel, recorded, log)
		if err != nil {
			zapLog.Fatal("event subscriber init failed", zap.Error(err))
		}
		go func() {
			if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
				zapLog.Error("event subscriber stopped", zap.Error(err))
			}
		}()
	}

	// --- Metrics / pprof endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("Stock monitor running",
		zap.String("schedule", cfg.Monitor.CronSchedule),
		zap.Duration("cooldown", cfg.Monitor.Cooldown),
	)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	cancel()
}
