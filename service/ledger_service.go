package service

import (
	"context"
	"errors"
	"fmt"

	"wagerledger/events"
	"wagerledger/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	params     models.GameParameters
	clock      Clock
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, params models.GameParameters, clock Clock) LedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ledgerService{
		uowFactory: uowFactory,
		params:     params,
		clock:      clock,
	}
}

func (s *ledgerService) InitializeUser(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user %s: %w", userID, err)
	}

	history := newHistory(models.TransactionTypeInitial, 0, entry, entry, nil)
	if err := RecordLedgerChange(ctx, uow, history, events.UserInitializedEvent{UserID: userID}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userID", userID).Info("Initialized ledger entry")
	return entry, nil
}

func (s *ledgerService) Deposit(ctx context.Context, userID string, amount uint64) (*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	if amount == 0 {
		return entry, nil
	}

	newDeposit, err := addUint64(entry.Deposit, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit of %d for %s: %w", amount, userID, err)
	}

	before := *entry
	entry.Deposit = newDeposit
	if err := uow.LedgerRepository().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	history := newHistory(models.TransactionTypeDeposit, amount, &before, entry, nil)
	event := events.DepositedEvent{
		UserID:     userID,
		Amount:     amount,
		NewDeposit: newDeposit,
	}
	if err := RecordLedgerChange(ctx, uow, history, event); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}

func (s *ledgerService) PlaceBet(ctx context.Context, userID string, betAmount uint64) (*models.BetResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	if !entry.CanAfford(betAmount) {
		return nil, fmt.Errorf("%w: deposit %d, bet %d", ErrInsufficientFunds, entry.Deposit, betAmount)
	}

	// All arithmetic is checked before anything is written
	credit, err := mulUint64(betAmount, s.params.Multiplier)
	if err != nil {
		return nil, fmt.Errorf("winnings for bet of %d: %w", betAmount, err)
	}
	newWinnings, err := addUint64(entry.Winnings, credit)
	if err != nil {
		return nil, fmt.Errorf("crediting winnings of %d: %w", credit, err)
	}
	unlockTime, err := addInt64(s.clock.Now().Unix(), s.params.WithdrawalDelay)
	if err != nil {
		return nil, fmt.Errorf("computing unlock time: %w", err)
	}

	before := *entry
	entry.Deposit -= betAmount
	entry.Winnings = newWinnings
	// Overwrites any earlier lock, shorter or longer
	entry.UnlockTime = unlockTime

	if err := uow.LedgerRepository().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	history := newHistory(models.TransactionTypeBet, betAmount, &before, entry, map[string]any{
		"multiplier":      s.params.Multiplier,
		"winnings_credit": credit,
		"unlock_time":     unlockTime,
	})
	if err := uow.LedgerHistoryRepository().Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record ledger history: %w", err)
	}

	bet := &models.Bet{
		UserID:          userID,
		Amount:          betAmount,
		Multiplier:      s.params.Multiplier,
		WinningsCredit:  credit,
		UnlockTime:      unlockTime,
		LedgerHistoryID: &history.ID,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		UserID:         userID,
		BetID:          bet.ID,
		Amount:         betAmount,
		WinningsCredit: credit,
		UnlockTime:     unlockTime,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"betAmount":  betAmount,
		"credit":     credit,
		"unlockTime": unlockTime,
	}).Debug("Bet settled")

	return &models.BetResult{
		BetAmount:      betAmount,
		WinningsCredit: credit,
		NewDeposit:     entry.Deposit,
		NewWinnings:    entry.Winnings,
		UnlockTime:     unlockTime,
	}, nil
}

func (s *ledgerService) GetLedger(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	return entry, nil
}

func (s *ledgerService) GetHistory(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	history, err := uow.LedgerHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history: %w", err)
	}

	return history, nil
}

func (s *ledgerService) GetBets(ctx context.Context, userID string, limit int) ([]*models.Bet, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.LedgerRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	bets, err := uow.BetRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	return bets, nil
}

func (s *ledgerService) GetParameters() models.GameParameters {
	params := s.params
	params.Admins = append([]string(nil), s.params.Admins...)
	return params
}
