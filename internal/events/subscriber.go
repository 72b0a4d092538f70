// Package events listens for stock-change events and triggers targeted
// low-stock scans for the affected product.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	apperrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/models"
)

// stock-change event payload schema. Events that do not conform are
// dropped with a warning rather than crashing the subscriber.
const stockEventSchema = `{
	"type": "object",
	"properties": {
		"product_id": {"type": "string", "minLength": 1},
		"current_stock": {"type": "integer", "minimum": 0},
		"source": {"type": "string"}
	},
	"required": ["product_id", "current_stock"],
	"additionalProperties": true
}`

// StockEvent is a stock level change published by the rest of the system.
type StockEvent struct {
	ProductID    string `json:"product_id"`
	CurrentStock int64  `json:"current_stock"`
	Source       string `json:"source,omitempty"`
}

// ScanTrigger starts a scan pass scoped to one product.
type ScanTrigger interface {
	EvaluateAndNotify(ctx context.Context, trigger, productID string) (models.ScanSummary, error)
}

type Subscriber struct {
	client  *redis.Client
	channel string
	monitor ScanTrigger
	schema  *gojsonschema.Schema
	logger  logger.Logger
}

func NewSubscriber(client *redis.Client, channel string, monitor ScanTrigger, log logger.Logger) (*Subscriber, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stockEventSchema))
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		client:  client,
		channel: channel,
		monitor: monitor,
		schema:  schema,
		logger:  log.WithFields(map[string]interface{}{"component": "stock-events", "channel": channel}),
	}, nil
}

// Run subscribes to the stock-events channel and processes messages until
// the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Fail fast if the subscription itself cannot be established.
	if _, err := sub.Receive(ctx); err != nil {
		return apperrors.NewStoreUnavailableError("redis", err)
	}

	s.logger.Info("subscribed to stock events", nil)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return apperrors.NewStoreUnavailableError("redis", errors.New("subscription channel closed"))
			}
			s.handleMessage(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, payload string) {
	event, err := s.ParseEvent(payload)
	if err != nil {
		s.logger.Warn("dropping invalid stock event", map[string]interface{}{
			"error":   err.Error(),
			"payload": payload,
		})
		return
	}

	s.logger.Debug("stock event received", map[string]interface{}{
		"productId":    event.ProductID,
		"currentStock": event.CurrentStock,
		"source":       event.Source,
	})

	summary, err := s.monitor.EvaluateAndNotify(ctx, models.TriggerEvent, event.ProductID)
	if err != nil {
		// An overlapping scheduled scan already covers this product.
		if apperrors.HasCode(err, apperrors.ErrCodeScanInFlight) {
			s.logger.Debug("scan already in flight, event absorbed", map[string]interface{}{
				"productId": event.ProductID,
			})
			return
		}
		// Stale event for a product that no longer exists; drop it.
		if apperrors.HasCode(err, apperrors.ErrCodeValidationFailed) {
			s.logger.Warn("dropping stock event for unknown product", map[string]interface{}{
				"productId": event.ProductID,
				"error":     err.Error(),
			})
			return
		}
		s.logger.Error("event-triggered scan failed", map[string]interface{}{
			"productId": event.ProductID,
			"error":     err.Error(),
		})
		return
	}

	s.logger.Info("event-triggered scan complete", map[string]interface{}{
		"productId": event.ProductID,
		"lowStock":  summary.LowStock,
		"notified":  summary.Notified,
	})
}

// ParseEvent validates a raw message against the stock event schema and
// decodes it.
func (s *Subscriber) ParseEvent(payload string) (*StockEvent, error) {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, apperrors.NewEventPayloadInvalidError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return nil, apperrors.NewEventPayloadInvalidError(strings.Join(details, "; "))
	}

	var event StockEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, apperrors.NewEventPayloadInvalidError(err.Error())
	}
	return &event, nil
}
