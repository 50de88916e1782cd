package service

import (
	"context"
	"fmt"

	"wagerledger/events"
	"wagerledger/models"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerChange records a ledger history entry and queues the matching event.
// This is the single entry point for all balance changes in the system.
func RecordLedgerChange(ctx context.Context, uow UnitOfWork, history *models.LedgerHistory, event events.Event) error {
	if err := uow.LedgerHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record ledger history: %w", err)
	}

	if event != nil {
		log.WithFields(log.Fields{
			"userID":          history.UserID,
			"transactionType": history.TransactionType,
			"amount":          history.Amount,
			"eventType":       event.Type(),
		}).Debug("Queueing ledger event")
		// Flushed after commit, discarded on rollback
		uow.EventBus().Publish(event)
	}

	return nil
}

// newHistory captures a before/after pair of ledger snapshots
func newHistory(txType models.TransactionType, amount uint64, before, after *models.LedgerEntry, metadata map[string]any) *models.LedgerHistory {
	return &models.LedgerHistory{
		UserID:              after.UserID,
		TransactionType:     txType,
		Amount:              amount,
		DepositBefore:       before.Deposit,
		DepositAfter:        after.Deposit,
		WinningsBefore:      before.Winnings,
		WinningsAfter:       after.Winnings,
		TransactionMetadata: metadata,
	}
}
