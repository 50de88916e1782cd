package infrastructure

import (
	"fmt"

	"wagerledger/events"
)

// DomainEventStream is the JetStream stream ledger events are written to
const DomainEventStream = "ledger_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.MapTypeToSubject(event.Type())
}

// MapTypeToSubject converts an event type to its NATS subject
func (m *EventSubjectMapper) MapTypeToSubject(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeUserInitialized:
		return "ledger.users.initialized"
	case events.EventTypeDeposited:
		return "ledger.deposits.credited"
	case events.EventTypeBetPlaced:
		return "ledger.bets.placed"
	case events.EventTypeWithdrawalRequested:
		return "ledger.withdrawals.requested"
	case events.EventTypeWithdrawalApproved:
		return "ledger.withdrawals.approved"
	case events.EventTypeWithdrawalExecuted:
		return "ledger.withdrawals.executed"
	default:
		return fmt.Sprintf("ledger.unknown.%s", eventType)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		subjects = append(subjects, m.MapTypeToSubject(eventType))
	}
	return subjects
}
