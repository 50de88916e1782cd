package memory

import (
	"context"
	"fmt"

	"wagerledger/events"
	"wagerledger/models"
	"wagerledger/service"
)

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// unitOfWork stages writes against a Store until Commit
type unitOfWork struct {
	store            *Store
	ctx              context.Context
	active           bool
	transactionalBus *events.TransactionalBus

	held     map[string]rowLock
	ledgers  map[string]*models.LedgerEntry
	requests map[string]*models.WithdrawalRequest // nil value marks a retired request
	history  []*models.LedgerHistory
	bets     []*models.Bet
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.ctx = ctx
	u.active = true
	u.held = make(map[string]rowLock)
	u.ledgers = make(map[string]*models.LedgerEntry)
	u.requests = make(map[string]*models.WithdrawalRequest)
	u.history = nil
	u.bets = nil

	return nil
}

// Commit publishes staged writes to the store and releases row locks
func (u *unitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}

	s := u.store
	s.mu.Lock()
	for id, e := range u.ledgers {
		s.ledgers[id] = e
	}
	for id, r := range u.requests {
		if r == nil {
			delete(s.requests, id)
			continue
		}
		s.requests[id] = r
	}
	for _, h := range u.history {
		s.history[h.UserID] = append(s.history[h.UserID], h)
	}
	for _, b := range u.bets {
		s.bets[b.UserID] = append(s.bets[b.UserID], b)
	}
	s.mu.Unlock()

	u.finish()

	// Flush pending events after successful commit
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback discards staged writes and releases row locks
func (u *unitOfWork) Rollback() error {
	if !u.active {
		return nil
	}

	u.finish()
	u.transactionalBus.Discard()

	return nil
}

func (u *unitOfWork) finish() {
	for id, l := range u.held {
		<-l
		delete(u.held, id)
	}
	u.active = false
	u.ledgers = nil
	u.requests = nil
	u.history = nil
	u.bets = nil
}

// lock takes the user's row lock for the rest of the unit of work
func (u *unitOfWork) lock(ctx context.Context, userID string) error {
	if _, ok := u.held[userID]; ok {
		return nil
	}

	l := u.store.lockFor(userID)
	select {
	case l <- struct{}{}:
		u.held[userID] = l
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for lock on %s: %w", userID, ctx.Err())
	}
}

func (u *unitOfWork) ledger(userID string) *models.LedgerEntry {
	if e, ok := u.ledgers[userID]; ok {
		c := *e
		return &c
	}
	return u.store.committedLedger(userID)
}

func (u *unitOfWork) request(userID string) *models.WithdrawalRequest {
	if r, ok := u.requests[userID]; ok {
		if r == nil {
			return nil
		}
		return cloneRequest(r)
	}
	return u.store.committedRequest(userID)
}

func (u *unitOfWork) mustBeActive() {
	if !u.active {
		panic("unit of work not started - call Begin() first")
	}
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	u.mustBeActive()
	return ledgerRepository{u}
}

// WithdrawalRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRepository() service.WithdrawalRepository {
	u.mustBeActive()
	return withdrawalRepository{u}
}

// LedgerHistoryRepository returns the ledger history repository for this unit of work
func (u *unitOfWork) LedgerHistoryRepository() service.LedgerHistoryRepository {
	u.mustBeActive()
	return historyRepository{u}
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() service.BetRepository {
	u.mustBeActive()
	return betRepository{u}
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
