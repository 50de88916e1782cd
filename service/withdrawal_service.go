package service

import (
	"context"
	"fmt"

	"wagerledger/events"
	"wagerledger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	params     models.GameParameters
	clock      Clock
	custodian  Custodian
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory, params models.GameParameters, clock Clock, custodian Custodian) WithdrawalService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &withdrawalService{
		uowFactory: uowFactory,
		params:     params,
		clock:      clock,
		custodian:  custodian,
	}
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID string, amount uint64) (*models.WithdrawalRequest, error) {
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

	now := s.clock.Now().Unix()
	if !entry.IsUnlocked(now) {
		return nil, fmt.Errorf("%w: unlocks at %d, now %d", ErrWithdrawalLocked, entry.UnlockTime, now)
	}
	if amount > entry.Winnings {
		return nil, fmt.Errorf("%w: winnings %d, requested %d", ErrInsufficientWinnings, entry.Winnings, amount)
	}

	existing, err := uow.WithdrawalRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %d already pending for %s", ErrDuplicateRequest, existing.Amount, userID)
	}

	// Reserve the funds before the request exists so they cannot be claimed twice
	before := *entry
	entry.Winnings -= amount
	if err := uow.LedgerRepository().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	request := &models.WithdrawalRequest{
		UserID:    userID,
		Amount:    amount,
		PayoutRef: uuid.NewString(),
	}
	if err := uow.WithdrawalRepository().Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	history := newHistory(models.TransactionTypeWithdrawalRequest, amount, &before, entry, nil)
	event := events.WithdrawalRequestedEvent{UserID: userID, Amount: amount}
	if err := RecordLedgerChange(ctx, uow, history, event); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
	}).Info("Withdrawal requested")

	return request, nil
}

func (s *withdrawalService) Approve(ctx context.Context, userID string, assertedSigners []string) (*models.WithdrawalRequest, error) {
	// Quorum depends only on the parameters, so check it before taking any lock
	signers, err := CheckQuorum(s.params, assertedSigners)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.WithdrawalRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, userID)
	}

	if request.Approved {
		log.WithField("userID", userID).Debug("Withdrawal already approved")
		return request, nil
	}

	approvedAt := s.clock.Now()
	if err := uow.WithdrawalRepository().MarkApproved(ctx, userID, signers, approvedAt); err != nil {
		return nil, fmt.Errorf("failed to approve withdrawal request: %w", err)
	}
	request.Approved = true
	request.ApprovedBy = signers
	request.ApprovedAt = &approvedAt

	uow.EventBus().Publish(events.WithdrawalApprovedEvent{
		UserID:     userID,
		Amount:     request.Amount,
		ApprovedBy: signers,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"amount":  request.Amount,
		"signers": signers,
	}).Info("Withdrawal approved")

	return request, nil
}

func (s *withdrawalService) ExecuteWithdrawal(ctx context.Context, userID string) (*models.WithdrawalResult, error) {
	now := s.clock.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.WithdrawalRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: no outstanding request for %s", ErrWithdrawalNotApproved, userID)
	}
	if !request.Approved {
		return nil, fmt.Errorf("%w: request for %s is pending approval", ErrWithdrawalNotApproved, userID)
	}

	// Read without locking; the request lock already serializes executions
	entry, err := uow.LedgerRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	// Every write is staged before the payout so that only Commit can fail after it
	if err := uow.WithdrawalRepository().Retire(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to retire withdrawal request: %w", err)
	}

	// Fixed when the request was created, so every attempt carries the same reference
	ref := request.PayoutRef
	history := newHistory(models.TransactionTypeWithdrawalPayout, request.Amount, entry, entry, map[string]any{
		"payout_ref":  ref,
		"approved_by": request.ApprovedBy,
	})
	event := events.WithdrawalExecutedEvent{
		UserID:    userID,
		Amount:    request.Amount,
		PayoutRef: ref,
	}
	if err := RecordLedgerChange(ctx, uow, history, event); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"userID":    userID,
		"amount":    request.Amount,
		"payoutRef": ref,
	})

	// Past this point the caller going away must not split payout from retirement.
	// The custodian bounds the call with its own timeout.
	payoutCtx := context.WithoutCancel(ctx)
	if err := s.custodian.Payout(payoutCtx, userID, request.Amount, ref); err != nil {
		logger.WithError(err).Warn("Payout failed, withdrawal request left in place")
		return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}

	if err := uow.Commit(); err != nil {
		logger.WithError(err).Error("Payout sent but withdrawal request was not retired; operator intervention required")
		return nil, fmt.Errorf("%w: user %s amount %d ref %s: %w", ErrPayoutNotRetired, userID, request.Amount, ref, err)
	}

	logger.Info("Withdrawal executed")

	return &models.WithdrawalResult{
		UserID:    userID,
		Amount:    request.Amount,
		PaidAt:    now,
		PayoutRef: ref,
	}, nil
}

func (s *withdrawalService) GetPendingWithdrawal(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.WithdrawalRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return request, nil
}
