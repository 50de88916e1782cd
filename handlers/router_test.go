package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagerledger/metrics"
	"wagerledger/models"
	"wagerledger/repository/memory"
	"wagerledger/service"
)

type stubCustodian struct {
	mu      sync.Mutex
	payouts map[string]uint64
	err     error
}

func (c *stubCustodian) Payout(ctx context.Context, userID string, amount uint64, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.payouts == nil {
		c.payouts = make(map[string]uint64)
	}
	c.payouts[userID] += amount
	return nil
}

type testServer struct {
	router    *gin.Engine
	clock     *service.ManualClock
	custodian *stubCustodian
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	params := models.GameParameters{
		Multiplier:      2,
		WithdrawalDelay: 100,
		Admins:          []string{"admin-a", "admin-b", "admin-c"},
		Threshold:       2,
	}
	clock := service.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	factory := memory.NewStore(clock).NewUnitOfWorkFactory(nil)
	custodian := &stubCustodian{}
	registry := prometheus.NewRegistry()

	router := NewRouter(RouterConfig{
		Ledger:      service.NewLedgerService(factory, params, clock),
		Withdrawals: service.NewWithdrawalService(factory, params, clock, custodian),
		Metrics:     metrics.NewLedgerMetrics(registry),
		Gatherer:    registry,
		Clock:       clock,
	})

	return &testServer{router: router, clock: clock, custodian: custodian}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]any](t, w)
	kind, _ := body["error"].(string)
	return kind
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Parameters(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/parameters", nil)
	require.Equal(t, http.StatusOK, w.Code)

	params := decode[models.GameParameters](t, w)
	assert.Equal(t, uint64(2), params.Multiplier)
	assert.Equal(t, int64(100), params.WithdrawalDelay)
	assert.Equal(t, []string{"admin-a", "admin-b", "admin-c"}, params.Admins)
	assert.Equal(t, 2, params.Threshold)
}

func TestRouter_ReferenceScenario(t *testing.T) {
	s := newTestServer(t)
	start := s.clock.Now().Unix()

	w := s.do(t, http.MethodPost, "/api/users/alice", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/users/alice/deposits", gin.H{"amount": 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entry := decode[models.LedgerEntry](t, w)
	assert.Equal(t, uint64(500), entry.Deposit)

	w = s.do(t, http.MethodPost, "/api/users/alice/bets", gin.H{"amount": 200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bet := decode[models.BetResult](t, w)
	assert.Equal(t, uint64(300), bet.NewDeposit)
	assert.Equal(t, uint64(400), bet.NewWinnings)
	assert.Equal(t, start+100, bet.UnlockTime)

	w = s.do(t, http.MethodPost, "/api/users/alice/withdrawal", gin.H{"amount": 400})
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "withdrawal_locked", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/dev/clock/advance", gin.H{"seconds": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/users/alice/withdrawal", gin.H{"amount": 400})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	request := decode[models.WithdrawalRequest](t, w)
	assert.Equal(t, uint64(400), request.Amount)
	assert.False(t, request.Approved)
	require.NotEmpty(t, request.PayoutRef)

	w = s.do(t, http.MethodGet, "/api/users/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entry = decode[models.LedgerEntry](t, w)
	assert.Equal(t, uint64(300), entry.Deposit)
	assert.Equal(t, uint64(0), entry.Winnings)

	w = s.do(t, http.MethodPost, "/api/users/alice/withdrawal/approve", gin.H{"signers": []string{"admin-a", "admin-c"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	request = decode[models.WithdrawalRequest](t, w)
	assert.True(t, request.Approved)
	assert.Equal(t, []string{"admin-a", "admin-c"}, request.ApprovedBy)

	w = s.do(t, http.MethodPost, "/api/users/alice/withdrawal/execute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[models.WithdrawalResult](t, w)
	assert.Equal(t, uint64(400), result.Amount)
	assert.Equal(t, request.PayoutRef, result.PayoutRef)
	assert.Equal(t, uint64(400), s.custodian.payouts["alice"])

	w = s.do(t, http.MethodPost, "/api/users/alice/withdrawal/execute", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "withdrawal_not_approved", errorKind(t, w))

	w = s.do(t, http.MethodGet, "/api/users/alice/withdrawal", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/alice/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		History []models.LedgerHistory `json:"history"`
	}](t, w)
	require.Len(t, history.History, 5)
	assert.Equal(t, models.TransactionTypeWithdrawalPayout, history.History[0].TransactionType)

	w = s.do(t, http.MethodGet, "/api/users/alice/bets?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bets := decode[struct {
		Bets []models.Bet `json:"bets"`
	}](t, w)
	require.Len(t, bets.Bets, 1)
	assert.Equal(t, uint64(200), bets.Bets[0].Amount)
	assert.Equal(t, uint64(400), bets.Bets[0].WinningsCredit)
}

func TestRouter_ErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/users/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", errorKind(t, w))

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/bob", nil).Code)

	w = s.do(t, http.MethodPost, "/api/users/bob", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_initialized", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/users/bob/bets", gin.H{"amount": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_funds", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/users/bob/withdrawal", gin.H{"amount": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_winnings", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/users/bob/withdrawal/approve", gin.H{"signers": []string{"admin-a", "admin-b"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "request_not_found", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/users/bob/withdrawal/approve", gin.H{"signers": []string{"admin-a", "admin-a", "mallory"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not_enough_signers", errorKind(t, w))

	w = s.do(t, http.MethodPost, "/api/users/bob/withdrawal/execute", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "withdrawal_not_approved", errorKind(t, w))
}

func TestRouter_DuplicateRequest(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/carol", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/carol/deposits", gin.H{"amount": 100}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/carol/bets", gin.H{"amount": 100}).Code)
	s.clock.Advance(100 * time.Second)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/carol/withdrawal", gin.H{"amount": 50}).Code)

	w := s.do(t, http.MethodPost, "/api/users/carol/withdrawal", gin.H{"amount": 50})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_request", errorKind(t, w))

	w = s.do(t, http.MethodGet, "/api/users/carol/withdrawal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(50), decode[models.WithdrawalRequest](t, w).Amount)
}

func TestRouter_PayoutFailure(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/dave", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/dave/deposits", gin.H{"amount": 10}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/dave/bets", gin.H{"amount": 10}).Code)
	s.clock.Advance(100 * time.Second)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/dave/withdrawal", gin.H{"amount": 20}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/dave/withdrawal/approve", gin.H{"signers": []string{"admin-b", "admin-c"}}).Code)

	s.custodian.err = errors.New("custodian unavailable")
	w := s.do(t, http.MethodPost, "/api/users/dave/withdrawal/execute", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "payout_failed", errorKind(t, w))

	// The request survives a failed payout
	w = s.do(t, http.MethodGet, "/api/users/dave/withdrawal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[models.WithdrawalRequest](t, w)
	assert.True(t, pending.Approved)

	s.custodian.err = nil
	w = s.do(t, http.MethodPost, "/api/users/dave/withdrawal/execute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, pending.PayoutRef, decode[models.WithdrawalResult](t, w).PayoutRef)
	assert.Equal(t, uint64(20), s.custodian.payouts["dave"])
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/erin", nil).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"missing amount", http.MethodPost, "/api/users/erin/deposits", gin.H{}},
		{"negative amount", http.MethodPost, "/api/users/erin/bets", gin.H{"amount": -5}},
		{"fractional amount", http.MethodPost, "/api/users/erin/deposits", gin.H{"amount": 1.5}},
		{"missing signers", http.MethodPost, "/api/users/erin/withdrawal/approve", gin.H{}},
		{"bad limit", http.MethodGet, "/api/users/erin/history?limit=abc", nil},
		{"negative limit", http.MethodGet, "/api/users/erin/bets?limit=-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_request", errorKind(t, w))
		})
	}
}

func TestRouter_ZeroDepositIsNoop(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/frank", nil).Code)

	w := s.do(t, http.MethodPost, "/api/users/frank/deposits", gin.H{"amount": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(0), decode[models.LedgerEntry](t, w).Deposit)
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users/gina", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/gina/deposits", gin.H{"amount": 75}).Code)

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "wagerledger_deposited_total 75"), body)
	assert.True(t, strings.Contains(body, `wagerledger_operations_total{operation="deposit",outcome="ok"} 1`), body)
	assert.True(t, strings.Contains(body, `route="/api/users/:userID/deposits"`), body)
}
