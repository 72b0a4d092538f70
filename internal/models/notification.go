// internal/models/notification.go
package models

import "time"

const NotificationTypeLowStock = "low_stock"

// Urgency labels carried in the notification payload.
const (
	UrgencyLow      = "low"
	UrgencyCritical = "critical"
)

// Notification is one low-stock alert record for one user. Immutable once
// created except for the Read flag.
type Notification struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	UserID    string              `json:"userId"`
	Payload   NotificationPayload `json:"payload"`
	Read      bool                `json:"read"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NotificationPayload snapshots the product state at dispatch time.
type NotificationPayload struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	SKU          string `json:"sku"`
	CurrentStock int64  `json:"currentStock"`
	ROP          string `json:"rop"`
	EOQ          string `json:"eoq,omitempty"`
	Urgency      string `json:"urgency"`
}
