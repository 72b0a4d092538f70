// internal/models/scan.go
package models

import "time"

// Scan triggers.
const (
	TriggerSchedule = "schedule"
	TriggerEvent    = "event"
)

// ScanSummary is the aggregate outcome of one scan-and-notify pass. It is
// the only surface operators see; per-product and per-user failures are
// folded into the counts. OnCooldown counts products the cooldown gate
// skipped; Suppressed counts per-user records rejected as duplicates.
type ScanSummary struct {
	Trigger      string        `json:"trigger"`
	ProductScope string        `json:"productScope,omitempty"`
	Checked      int           `json:"checked"`
	LowStock     int           `json:"lowStock"`
	Notified     int           `json:"notified"`
	OnCooldown   int           `json:"onCooldown"`
	Suppressed   int           `json:"suppressed"`
	Failed       int           `json:"failed"`
	ConfigErrors int           `json:"configErrors"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
}
