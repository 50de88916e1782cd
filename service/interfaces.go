package service

import (
	"context"
	"time"

	"wagerledger/events"
	"wagerledger/models"
)

// LedgerRepository defines the interface for per-user balance storage
type LedgerRepository interface {
	// GetByUserID retrieves a ledger entry without locking it, nil if missing
	GetByUserID(ctx context.Context, userID string) (*models.LedgerEntry, error)

	// GetForUpdate retrieves a ledger entry and locks it for the rest of the
	// unit of work, nil if missing
	GetForUpdate(ctx context.Context, userID string) (*models.LedgerEntry, error)

	// Create creates a zeroed ledger entry, ErrAlreadyInitialized if one exists
	Create(ctx context.Context, userID string) (*models.LedgerEntry, error)

	// Update persists deposit, winnings and unlock time
	Update(ctx context.Context, entry *models.LedgerEntry) error
}

// WithdrawalRepository defines the interface for withdrawal request storage
type WithdrawalRepository interface {
	// GetByUserID retrieves the outstanding request without locking it, nil if none
	GetByUserID(ctx context.Context, userID string) (*models.WithdrawalRequest, error)

	// GetForUpdate retrieves the outstanding request and locks it, nil if none
	GetForUpdate(ctx context.Context, userID string) (*models.WithdrawalRequest, error)

	// Create stores a new request, ErrDuplicateRequest if one is outstanding
	Create(ctx context.Context, request *models.WithdrawalRequest) error

	// MarkApproved flips the approved flag and records the counted signers
	MarkApproved(ctx context.Context, userID string, approvedBy []string, approvedAt time.Time) error

	// Retire removes the request so it can never be executed again
	Retire(ctx context.Context, userID string) error
}

// LedgerHistoryRepository defines the interface for ledger history tracking
type LedgerHistoryRepository interface {
	// Record creates a new history entry
	Record(ctx context.Context, history *models.LedgerHistory) error

	// GetByUser returns the most recent history entries for a user
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet record
	Create(ctx context.Context, bet *models.Bet) error

	// GetByUser returns the most recent bets for a user
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.Bet, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LedgerRepository() LedgerRepository
	WithdrawalRepository() WithdrawalRepository
	LedgerHistoryRepository() LedgerHistoryRepository
	BetRepository() BetRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Custodian moves funds out of the custodial pool
type Custodian interface {
	// Payout transfers amount to the user. ref is fixed per withdrawal request
	// and repeated on every retry, so the custodian can pay each ref at most once.
	Payout(ctx context.Context, userID string, amount uint64, ref string) error
}

// LedgerService defines the interface for deposit and betting operations
type LedgerService interface {
	// InitializeUser creates an empty ledger entry for a user
	InitializeUser(ctx context.Context, userID string) (*models.LedgerEntry, error)

	// Deposit credits the user's deposit balance
	Deposit(ctx context.Context, userID string, amount uint64) (*models.LedgerEntry, error)

	// PlaceBet settles a bet against the configured multiplier
	PlaceBet(ctx context.Context, userID string, betAmount uint64) (*models.BetResult, error)

	// GetLedger returns a snapshot of the user's balances
	GetLedger(ctx context.Context, userID string) (*models.LedgerEntry, error)

	// GetHistory returns the user's most recent ledger changes
	GetHistory(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error)

	// GetBets returns the user's most recent bets
	GetBets(ctx context.Context, userID string, limit int) ([]*models.Bet, error)

	// GetParameters returns the game parameters in force
	GetParameters() models.GameParameters
}

// WithdrawalService defines the interface for the withdrawal lifecycle
type WithdrawalService interface {
	// RequestWithdrawal moves winnings into a new pending request
	RequestWithdrawal(ctx context.Context, userID string, amount uint64) (*models.WithdrawalRequest, error)

	// Approve ratifies the user's pending request given the asserted signers
	Approve(ctx context.Context, userID string, assertedSigners []string) (*models.WithdrawalRequest, error)

	// ExecuteWithdrawal pays out an approved request and retires it
	ExecuteWithdrawal(ctx context.Context, userID string) (*models.WithdrawalResult, error)

	// GetPendingWithdrawal returns the outstanding request, nil if none
	GetPendingWithdrawal(ctx context.Context, userID string) (*models.WithdrawalRequest, error)
}
