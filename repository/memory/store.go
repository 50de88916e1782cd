// Package memory is a process-local storage driver. It keeps the same locking
// and commit semantics as the Postgres repositories: a per-user row lock is
// taken on first locking access and held until Commit or Rollback, and writes
// only become visible on Commit.
package memory

import (
	"sort"
	"sync"

	"wagerledger/events"
	"wagerledger/models"
	"wagerledger/service"
)

// rowLock is a one-slot semaphore so waiting on it can honour a context
type rowLock chan struct{}

// Store holds committed state shared by all units of work
type Store struct {
	mu       sync.Mutex
	ledgers  map[string]*models.LedgerEntry
	requests map[string]*models.WithdrawalRequest
	history  map[string][]*models.LedgerHistory
	bets     map[string][]*models.Bet
	locks    map[string]rowLock

	nextHistoryID int64
	nextBetID     int64

	clock service.Clock
}

// NewStore creates an empty store. A nil clock falls back to the system clock.
func NewStore(clock service.Clock) *Store {
	if clock == nil {
		clock = service.SystemClock{}
	}
	return &Store{
		ledgers:  make(map[string]*models.LedgerEntry),
		requests: make(map[string]*models.WithdrawalRequest),
		history:  make(map[string][]*models.LedgerHistory),
		bets:     make(map[string][]*models.Bet),
		locks:    make(map[string]rowLock),
		clock:    clock,
	}
}

// NewUnitOfWorkFactory creates a factory whose units of work share this store
func (s *Store) NewUnitOfWorkFactory(eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{store: s, eventBus: eventBus}
}

func (s *Store) lockFor(userID string) rowLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = make(rowLock, 1)
		s.locks[userID] = l
	}
	return l
}

func (s *Store) committedLedger(userID string) *models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledgers[userID]
	if !ok {
		return nil
	}
	c := *e
	return &c
}

func (s *Store) committedRequest(userID string) *models.WithdrawalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[userID]
	if !ok {
		return nil
	}
	return cloneRequest(r)
}

func (s *Store) allocateHistoryID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHistoryID++
	return s.nextHistoryID
}

func (s *Store) allocateBetID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBetID++
	return s.nextBetID
}

func (s *Store) committedHistory(userID string) []*models.LedgerHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.LedgerHistory, 0, len(s.history[userID]))
	for _, h := range s.history[userID] {
		out = append(out, cloneHistory(h))
	}
	return out
}

func (s *Store) committedBets(userID string) []*models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Bet, 0, len(s.bets[userID]))
	for _, b := range s.bets[userID] {
		c := *b
		out = append(out, &c)
	}
	return out
}

func cloneRequest(r *models.WithdrawalRequest) *models.WithdrawalRequest {
	c := *r
	if r.ApprovedBy != nil {
		c.ApprovedBy = append([]string(nil), r.ApprovedBy...)
	}
	if r.ApprovedAt != nil {
		at := *r.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}

func cloneHistory(h *models.LedgerHistory) *models.LedgerHistory {
	c := *h
	if h.TransactionMetadata != nil {
		c.TransactionMetadata = make(map[string]any, len(h.TransactionMetadata))
		for k, v := range h.TransactionMetadata {
			c.TransactionMetadata[k] = v
		}
	}
	return &c
}

// newestFirst orders records by id descending and applies limit
func newestFirst[T any](items []T, id func(T) int64, limit int) []T {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]) > id(items[j])
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
