package memory

import (
	"context"
	"fmt"
	"time"

	"wagerledger/models"
	"wagerledger/service"
)

type ledgerRepository struct {
	u *unitOfWork
}

func (r ledgerRepository) GetByUserID(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	return r.u.ledger(userID), nil
}

func (r ledgerRepository) GetForUpdate(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	if err := r.u.lock(ctx, userID); err != nil {
		return nil, err
	}
	return r.u.ledger(userID), nil
}

func (r ledgerRepository) Create(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	if err := r.u.lock(ctx, userID); err != nil {
		return nil, err
	}
	if r.u.ledger(userID) != nil {
		return nil, fmt.Errorf("%w: %s", service.ErrAlreadyInitialized, userID)
	}

	now := r.u.store.clock.Now()
	entry := &models.LedgerEntry{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	staged := *entry
	r.u.ledgers[userID] = &staged

	return entry, nil
}

func (r ledgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.u.lock(ctx, entry.UserID); err != nil {
		return err
	}
	current := r.u.ledger(entry.UserID)
	if current == nil {
		return fmt.Errorf("%w: %s", service.ErrUserNotFound, entry.UserID)
	}

	entry.UpdatedAt = r.u.store.clock.Now()
	current.Deposit = entry.Deposit
	current.Winnings = entry.Winnings
	current.UnlockTime = entry.UnlockTime
	current.UpdatedAt = entry.UpdatedAt
	r.u.ledgers[entry.UserID] = current

	return nil
}

type withdrawalRepository struct {
	u *unitOfWork
}

func (r withdrawalRepository) GetByUserID(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	return r.u.request(userID), nil
}

func (r withdrawalRepository) GetForUpdate(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	if err := r.u.lock(ctx, userID); err != nil {
		return nil, err
	}
	return r.u.request(userID), nil
}

func (r withdrawalRepository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	if request.PayoutRef == "" {
		return fmt.Errorf("withdrawal request for user %s has no payout reference", request.UserID)
	}
	if err := r.u.lock(ctx, request.UserID); err != nil {
		return err
	}
	if r.u.request(request.UserID) != nil {
		return fmt.Errorf("%w: %s", service.ErrDuplicateRequest, request.UserID)
	}

	request.Approved = false
	request.ApprovedBy = nil
	request.ApprovedAt = nil
	request.CreatedAt = r.u.store.clock.Now()
	r.u.requests[request.UserID] = cloneRequest(request)

	return nil
}

func (r withdrawalRepository) MarkApproved(ctx context.Context, userID string, approvedBy []string, approvedAt time.Time) error {
	if err := r.u.lock(ctx, userID); err != nil {
		return err
	}
	current := r.u.request(userID)
	if current == nil {
		return fmt.Errorf("%w: %s", service.ErrRequestNotFound, userID)
	}

	current.Approved = true
	current.ApprovedBy = append([]string(nil), approvedBy...)
	current.ApprovedAt = &approvedAt
	r.u.requests[userID] = current

	return nil
}

func (r withdrawalRepository) Retire(ctx context.Context, userID string) error {
	if err := r.u.lock(ctx, userID); err != nil {
		return err
	}
	current := r.u.request(userID)
	if current == nil || !current.Approved {
		return fmt.Errorf("%w: %s", service.ErrWithdrawalNotApproved, userID)
	}

	r.u.requests[userID] = nil

	return nil
}

type historyRepository struct {
	u *unitOfWork
}

func (r historyRepository) Record(ctx context.Context, history *models.LedgerHistory) error {
	history.ID = r.u.store.allocateHistoryID()
	history.CreatedAt = r.u.store.clock.Now()
	r.u.history = append(r.u.history, cloneHistory(history))
	return nil
}

func (r historyRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error) {
	out := r.u.store.committedHistory(userID)
	for _, h := range r.u.history {
		if h.UserID == userID {
			out = append(out, cloneHistory(h))
		}
	}
	return newestFirst(out, func(h *models.LedgerHistory) int64 { return h.ID }, limit), nil
}

type betRepository struct {
	u *unitOfWork
}

func (r betRepository) Create(ctx context.Context, bet *models.Bet) error {
	bet.ID = r.u.store.allocateBetID()
	bet.CreatedAt = r.u.store.clock.Now()
	staged := *bet
	r.u.bets = append(r.u.bets, &staged)
	return nil
}

func (r betRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.Bet, error) {
	out := r.u.store.committedBets(userID)
	for _, b := range r.u.bets {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	return newestFirst(out, func(b *models.Bet) int64 { return b.ID }, limit), nil
}
