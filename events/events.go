package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserInitialized     EventType = "user_initialized"
	EventTypeDeposited           EventType = "deposited"
	EventTypeBetPlaced           EventType = "bet_placed"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
	EventTypeWithdrawalApproved  EventType = "withdrawal_approved"
	EventTypeWithdrawalExecuted  EventType = "withdrawal_executed"
)

// AllEventTypes lists every event type the ledger emits
var AllEventTypes = []EventType{
	EventTypeUserInitialized,
	EventTypeDeposited,
	EventTypeBetPlaced,
	EventTypeWithdrawalRequested,
	EventTypeWithdrawalApproved,
	EventTypeWithdrawalExecuted,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserInitializedEvent represents a new ledger entry
type UserInitializedEvent struct {
	UserID string `json:"user_id"`
}

func (e UserInitializedEvent) Type() EventType {
	return EventTypeUserInitialized
}

// DepositedEvent represents funds credited to a user's deposit balance
type DepositedEvent struct {
	UserID     string `json:"user_id"`
	Amount     uint64 `json:"amount"`
	NewDeposit uint64 `json:"new_deposit"`
}

func (e DepositedEvent) Type() EventType {
	return EventTypeDeposited
}

// BetPlacedEvent represents a settled bet
type BetPlacedEvent struct {
	UserID         string `json:"user_id"`
	BetID          int64  `json:"bet_id"`
	Amount         uint64 `json:"amount"`
	WinningsCredit uint64 `json:"winnings_credit"`
	UnlockTime     int64  `json:"unlock_time"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// WithdrawalRequestedEvent represents winnings moved into escrow
type WithdrawalRequestedEvent struct {
	UserID string `json:"user_id"`
	Amount uint64 `json:"amount"`
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalApprovedEvent represents a request ratified by the admin quorum
type WithdrawalApprovedEvent struct {
	UserID     string   `json:"user_id"`
	Amount     uint64   `json:"amount"`
	ApprovedBy []string `json:"approved_by"`
}

func (e WithdrawalApprovedEvent) Type() EventType {
	return EventTypeWithdrawalApproved
}

// WithdrawalExecutedEvent represents a completed payout
type WithdrawalExecutedEvent struct {
	UserID    string `json:"user_id"`
	Amount    uint64 `json:"amount"`
	PayoutRef string `json:"payout_ref"`
}

func (e WithdrawalExecutedEvent) Type() EventType {
	return EventTypeWithdrawalExecuted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler for every ledger event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued since the last flush
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Events outlive the request context that committed them
	eventCtx := context.WithoutCancel(ctx)

	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
