package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/inventory/dispatcher"
	"inventory-monitor/internal/inventory/scanner"
	"inventory-monitor/internal/models"
)

type mockScanner struct {
	mu      sync.Mutex
	results []scanner.Result
	errs    []error
	calls   int
	block   chan struct{}
}

func (m *mockScanner) Scan(ctx context.Context, productID string) (scanner.Result, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return m.results[i], err
}

type mockGate struct {
	allow map[string]bool
	err   error
}

func (m *mockGate) ShouldNotify(ctx context.Context, productID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.allow[productID], nil
}

type mockFanout struct {
	mu         sync.Mutex
	dispatched []string
	outcome    dispatcher.Outcome
}

func (m *mockFanout) Dispatch(ctx context.Context, c scanner.Candidate, users []models.User) dispatcher.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, c.Product.ID)
	return m.outcome
}

type mockUserSource struct {
	users []models.User
	err   error
}

func (m *mockUserSource) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

type mockNotificationQueries struct{}

func (m *mockNotificationQueries) UnreadForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return nil, nil
}

func (m *mockNotificationQueries) MarkRead(ctx context.Context, notificationID, userID string) error {
	return nil
}

func candidate(id string) scanner.Candidate {
	return scanner.Candidate{
		Product: models.Product{ID: id, SKU: "SKU-" + id, CurrentStock: 3},
		ROP:     decimal.RequireFromString("3.5"),
		Urgency: models.UrgencyLow,
	}
}

func newService(sc Scanner, gate Gate, fanout Fanout, users UserSource, cfg Config) *Service {
	return New(sc, gate, fanout, users, &mockNotificationQueries{}, nil, cfg, logger.NewNoOpLogger())
}

func TestEvaluateAndNotify_DispatchesAllowedCandidates(t *testing.T) {
	sc := &mockScanner{results: []scanner.Result{{
		Candidates: []scanner.Candidate{candidate("p1"), candidate("p2")},
		Checked:    5,
	}}}
	gate := &mockGate{allow: map[string]bool{"p1": true, "p2": false}}
	fanout := &mockFanout{outcome: dispatcher.Outcome{Notified: 2}}
	users := &mockUserSource{users: []models.User{{ID: "u1", Active: true}}}

	summary, err := newService(sc, gate, fanout, users, Config{MaxRetries: 1}).
		EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Checked)
	assert.Equal(t, 2, summary.LowStock)
	assert.Equal(t, 2, summary.Notified)
	assert.Equal(t, 1, summary.OnCooldown)
	assert.Equal(t, 0, summary.Suppressed)
	assert.Equal(t, []string{"p1"}, fanout.dispatched)
}

func TestEvaluateAndNotify_SecondRunFullySuppressed(t *testing.T) {
	sc := &mockScanner{results: []scanner.Result{{
		Candidates: []scanner.Candidate{candidate("p1")},
		Checked:    1,
	}}}
	fanout := &mockFanout{outcome: dispatcher.Outcome{Notified: 1}}
	users := &mockUserSource{users: []models.User{{ID: "u1", Active: true}}}

	gate := &mockGate{allow: map[string]bool{"p1": true}}
	svc := newService(sc, gate, fanout, users, Config{MaxRetries: 1})

	first, err := svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Notified)

	// The first dispatch is now on record; the gate closes.
	gate.allow["p1"] = false

	second, err := svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Notified)
	assert.Equal(t, 1, second.OnCooldown)
	assert.Equal(t, 0, second.Suppressed)
	assert.Equal(t, []string{"p1"}, fanout.dispatched, "no second dispatch")
}

func TestEvaluateAndNotify_OverlappingTriggerRejected(t *testing.T) {
	block := make(chan struct{})
	sc := &mockScanner{
		results: []scanner.Result{{}},
		block:   block,
	}
	svc := newService(sc, &mockGate{}, &mockFanout{}, &mockUserSource{}, Config{MaxRetries: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	}()

	// Wait until the first pass is inside Scan.
	require.Eventually(t, func() bool {
		sc.mu.Lock()
		defer sc.mu.Unlock()
		return sc.calls == 0 && svc.inFlight.Load()
	}, time.Second, time.Millisecond)

	_, err := svc.EvaluateAndNotify(context.Background(), models.TriggerEvent, "p1")
	require.Error(t, err)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeScanInFlight))

	close(block)
	<-done
}

func TestEvaluateAndNotify_RetriesOnStoreUnavailable(t *testing.T) {
	storeErr := commonerrors.NewStoreUnavailableError("products", assertErr("connection refused"))
	sc := &mockScanner{
		results: []scanner.Result{{}, {Checked: 2}},
		errs:    []error{storeErr, nil},
	}
	svc := newService(sc, &mockGate{}, &mockFanout{}, &mockUserSource{},
		Config{MaxRetries: 3, RetryBackoff: time.Millisecond})

	summary, err := svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 2, sc.calls)
}

func TestEvaluateAndNotify_RetryBudgetExhausted(t *testing.T) {
	storeErr := commonerrors.NewStoreUnavailableError("products", assertErr("connection refused"))
	sc := &mockScanner{
		results: []scanner.Result{{}},
		errs:    []error{storeErr, storeErr, storeErr},
	}
	svc := newService(sc, &mockGate{}, &mockFanout{}, &mockUserSource{},
		Config{MaxRetries: 3, RetryBackoff: time.Millisecond})

	_, err := svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.Error(t, err)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeStoreUnavailable))
	assert.Equal(t, 3, sc.calls)
}

func TestEvaluateAndNotify_GateStoreErrorAbortsPass(t *testing.T) {
	sc := &mockScanner{results: []scanner.Result{{
		Candidates: []scanner.Candidate{candidate("p1")},
	}}}
	gate := &mockGate{err: commonerrors.NewStoreUnavailableError("notifications", assertErr("down"))}
	fanout := &mockFanout{}
	users := &mockUserSource{users: []models.User{{ID: "u1", Active: true}}}

	svc := newService(sc, gate, fanout, users, Config{MaxRetries: 2, RetryBackoff: time.Millisecond})

	_, err := svc.EvaluateAndNotify(context.Background(), models.TriggerSchedule, "")
	require.Error(t, err)
	assert.Empty(t, fanout.dispatched, "fail closed: nothing dispatched")
}

type missingProductSource struct {
	mu    sync.Mutex
	calls int
}

func (m *missingProductSource) ListProducts(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}

func (m *missingProductSource) GetProduct(ctx context.Context, id string) (models.Product, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return models.Product{}, fmt.Errorf("get product %s: %w", id, sql.ErrNoRows)
}

func (m *missingProductSource) SaveThresholds(ctx context.Context, id string, rop decimal.Decimal, eoq decimal.NullDecimal) error {
	return nil
}

func TestEvaluateAndNotify_UnknownProductDoesNotBurnRetries(t *testing.T) {
	src := &missingProductSource{}
	sc := scanner.New(src, scanner.Config{}, logger.NewNoOpLogger())
	svc := newService(sc, &mockGate{}, &mockFanout{}, &mockUserSource{},
		Config{MaxRetries: 3, RetryBackoff: time.Millisecond})

	_, err := svc.EvaluateAndNotify(context.Background(), models.TriggerEvent, "ghost-product")
	require.Error(t, err)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeValidationFailed))
	assert.False(t, commonerrors.IsRetryable(err))
	assert.Equal(t, 1, src.calls, "a deleted product is permanent, not transient")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
