package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "name", "sku", "current_stock", "safety_stock", "lead_time_days",
	"daily_usage_rate", "holding_cost_rate", "ordering_cost", "unit_price",
	"rop", "eoq", "updated_at",
}

func TestProductStore_ListProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewProductStore(db)
	updatedAt := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow("p1", "Widget", "SKU-1", 3, 1, 5, "0.5", "0.2", "10", "50", "3.5", "8.54", updatedAt).
			AddRow("p2", "No Usage", "SKU-2", 9, nil, nil, nil, nil, nil, nil, nil, nil, updatedAt))

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	p1 := products[0]
	assert.Equal(t, "p1", p1.ID)
	require.NotNil(t, p1.SafetyStock)
	assert.EqualValues(t, 1, *p1.SafetyStock)
	require.NotNil(t, p1.LeadTimeDays)
	assert.EqualValues(t, 5, *p1.LeadTimeDays)
	assert.True(t, p1.DailyUsageRate.Valid)
	assert.True(t, p1.DailyUsageRate.Decimal.Equal(decimal.RequireFromString("0.5")))

	p2 := products[1]
	assert.Nil(t, p2.SafetyStock, "NULL safety stock stays unset")
	assert.Nil(t, p2.LeadTimeDays)
	assert.False(t, p2.DailyUsageRate.Valid)
	assert.False(t, p2.EOQ.Valid)
}

func TestProductStore_GetProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewProductStore(db)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow("p1", "Widget", "SKU-1", 3, 1, 5, "0.5", nil, nil, nil, "3.5", nil, time.Now().UTC()))

	p, err := store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.EqualValues(t, 3, p.CurrentStock)
}

func TestProductStore_GetProduct_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewProductStore(db)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, err = store.GetProduct(context.Background(), "missing")
	assert.Error(t, err)
}

func TestProductStore_SaveThresholds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewProductStore(db)

	mock.ExpectExec("UPDATE products SET rop = \\$2, eoq = \\$3").
		WithArgs("p1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	eoq := decimal.NullDecimal{Decimal: decimal.RequireFromString("8.54"), Valid: true}
	err = store.SaveThresholds(context.Background(), "p1", decimal.RequireFromString("3.5"), eoq)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_ListActiveUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewUserStore(db)

	mock.ExpectQuery("SELECT id, name, email, phone, roles, permissions, active").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "email", "phone", "roles", "permissions", "active"}).
			AddRow("u1", "Admin", "admin@example.com", "+15550100", "{admin}", "{}", true).
			AddRow("u2", "Clerk", "clerk@example.com", nil, "{}", "{stock.notifications.receive}", true))

	users, err := store.ListActiveUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, []string{"admin"}, users[0].Roles)
	assert.Equal(t, "+15550100", users[0].Phone)
	assert.Empty(t, users[1].Phone, "NULL phone becomes empty string")
	assert.Equal(t, []string{"stock.notifications.receive"}, users[1].Permissions)
}
