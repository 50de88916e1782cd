package service

import (
	"testing"
	"time"

	"wagerledger/models"
)

const (
	testUserID = "user-1"
)

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// testParams mirrors the reference scenario: 2x payout, 100s lock, 2-of-3 admins
func testParams() models.GameParameters {
	return models.GameParameters{
		Multiplier:      2,
		WithdrawalDelay: 100,
		Admins:          []string{"admin-a", "admin-b", "admin-c"},
		Threshold:       2,
	}
}

// TestMocks holds all mocks for easy access
type TestMocks struct {
	Factory        *MockUnitOfWorkFactory
	UoW            *MockUnitOfWork
	LedgerRepo     *MockLedgerRepository
	WithdrawalRepo *MockWithdrawalRepository
	HistoryRepo    *MockLedgerHistoryRepository
	BetRepo        *MockBetRepository
	EventPublisher *MockEventPublisher
	Custodian      *MockCustodian
}

// NewTestMocks creates a new set of mocks with the unit of work wired up
func NewTestMocks() *TestMocks {
	m := &TestMocks{
		Factory:        new(MockUnitOfWorkFactory),
		UoW:            new(MockUnitOfWork),
		LedgerRepo:     new(MockLedgerRepository),
		WithdrawalRepo: new(MockWithdrawalRepository),
		HistoryRepo:    new(MockLedgerHistoryRepository),
		BetRepo:        new(MockBetRepository),
		EventPublisher: new(MockEventPublisher),
		Custodian:      new(MockCustodian),
	}
	m.UoW.SetRepositories(m.LedgerRepo, m.WithdrawalRepo, m.HistoryRepo, m.BetRepo, m.EventPublisher)
	m.Factory.On("Create").Return(m.UoW)
	return m
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.Factory.AssertExpectations(t)
	m.UoW.AssertExpectations(t)
	m.LedgerRepo.AssertExpectations(t)
	m.WithdrawalRepo.AssertExpectations(t)
	m.HistoryRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
	m.Custodian.AssertExpectations(t)
}
