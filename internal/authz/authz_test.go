package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Allows(t *testing.T) {
	table := NewTable([]Rule{
		{Role: "admin", Action: "receive", Resource: "low_stock_alert", Effect: Allow},
		{Permission: "stock.notifications.receive", Action: "receive", Resource: "low_stock_alert", Effect: Allow},
		{Role: "contractor", Action: "*", Resource: "*", Effect: Deny},
	})

	tests := []struct {
		name     string
		subject  Subject
		action   string
		resource string
		want     bool
	}{
		{
			name:     "role match allows",
			subject:  Subject{Roles: []string{"admin"}},
			action:   "receive",
			resource: "low_stock_alert",
			want:     true,
		},
		{
			name:     "permission match allows",
			subject:  Subject{Permissions: []string{"stock.notifications.receive"}},
			action:   "receive",
			resource: "low_stock_alert",
			want:     true,
		},
		{
			name:     "no matching rule denies",
			subject:  Subject{Roles: []string{"viewer"}},
			action:   "receive",
			resource: "low_stock_alert",
			want:     false,
		},
		{
			name:     "wrong action denies",
			subject:  Subject{Roles: []string{"admin"}},
			action:   "delete",
			resource: "low_stock_alert",
			want:     false,
		},
		{
			name:     "explicit deny beats allow",
			subject:  Subject{Roles: []string{"admin", "contractor"}},
			action:   "receive",
			resource: "low_stock_alert",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Allows(tt.subject, tt.action, tt.resource))
		})
	}
}

func TestLowStockAlertTable(t *testing.T) {
	table := LowStockAlertTable([]string{"admin", "manager"}, []string{"stock.notifications.receive"})

	assert.True(t, table.Allows(Subject{Roles: []string{"manager"}}, ActionReceive, ResourceLowStockAlert))
	assert.True(t, table.Allows(Subject{Permissions: []string{"stock.notifications.receive"}}, ActionReceive, ResourceLowStockAlert))
	assert.False(t, table.Allows(Subject{Roles: []string{"warehouse"}}, ActionReceive, ResourceLowStockAlert))
}
