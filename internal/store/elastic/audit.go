// Package elastic records scan audit trails in Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/models"
)

// ScanAuditStore indexes one document per completed scan pass so operators
// can reconstruct what the monitor looked at and why it alerted.
type ScanAuditStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewScanAuditStore(client *elasticsearch.Client, index string, log logger.Logger) *ScanAuditStore {
	return &ScanAuditStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "scan-audit"}),
	}
}

type auditDocument struct {
	Trigger      string    `json:"trigger"`
	ProductScope string    `json:"product_scope,omitempty"`
	Checked      int       `json:"checked"`
	LowStock     int       `json:"low_stock"`
	Notified     int       `json:"notified"`
	OnCooldown   int       `json:"on_cooldown"`
	Suppressed   int       `json:"suppressed"`
	Failed       int       `json:"failed"`
	ConfigErrors int       `json:"config_errors"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// RecordScan indexes the summary of one scan pass.
func (s *ScanAuditStore) RecordScan(ctx context.Context, summary models.ScanSummary) error {
	doc := auditDocument{
		Trigger:      string(summary.Trigger),
		ProductScope: summary.ProductScope,
		Checked:      summary.Checked,
		LowStock:     summary.LowStock,
		Notified:     summary.Notified,
		OnCooldown:   summary.OnCooldown,
		Suppressed:   summary.Suppressed,
		Failed:       summary.Failed,
		ConfigErrors: summary.ConfigErrors,
		StartedAt:    summary.StartedAt.UTC(),
		DurationMS:   summary.Duration.Milliseconds(),
		IndexedAt:    time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal audit document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(uuid.New().String()),
	)
	if err != nil {
		return fmt.Errorf("index scan audit: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index scan audit: %s", res.Status())
	}

	s.logger.Debug("scan audit recorded", map[string]interface{}{
		"index":   s.index,
		"trigger": doc.Trigger,
		"checked": doc.Checked,
	})
	return nil
}
