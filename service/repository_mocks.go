package service

import (
	"context"
	"time"

	"wagerledger/events"
	"wagerledger/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetByUserID(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetForUpdate(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Create(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) GetByUserID(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetForUpdate(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) MarkApproved(ctx context.Context, userID string, approvedBy []string, approvedAt time.Time) error {
	args := m.Called(ctx, userID, approvedBy, approvedAt)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) Retire(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockLedgerHistoryRepository is a mock implementation of LedgerHistoryRepository
type MockLedgerHistoryRepository struct {
	mock.Mock
}

func (m *MockLedgerHistoryRepository) Record(ctx context.Context, history *models.LedgerHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockLedgerHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerHistory), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.Bet, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockCustodian is a mock implementation of Custodian
type MockCustodian struct {
	mock.Mock
}

func (m *MockCustodian) Payout(ctx context.Context, userID string, amount uint64, ref string) error {
	args := m.Called(ctx, userID, amount, ref)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Transaction calls are mocked; repositories are wired with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	ledgerRepo     LedgerRepository
	withdrawalRepo WithdrawalRepository
	historyRepo    LedgerHistoryRepository
	betRepo        BetRepository
	eventBus       EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(ledger LedgerRepository, withdrawal WithdrawalRepository, history LedgerHistoryRepository, bet BetRepository, bus EventPublisher) {
	m.ledgerRepo = ledger
	m.withdrawalRepo = withdrawal
	m.historyRepo = history
	m.betRepo = bet
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) LedgerHistoryRepository() LedgerHistoryRepository {
	return m.historyRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
