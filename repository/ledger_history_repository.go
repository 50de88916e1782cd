package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"wagerledger/database"
	"wagerledger/models"

	"github.com/jackc/pgx/v5/pgtype"
)

// LedgerHistoryRepository implements the LedgerHistoryRepository interface
type LedgerHistoryRepository struct {
	q queryable
}

// NewLedgerHistoryRepository creates a new ledger history repository
func NewLedgerHistoryRepository(db *database.DB) *LedgerHistoryRepository {
	return &LedgerHistoryRepository{q: db.Pool}
}

// newLedgerHistoryRepositoryWithTx creates a new ledger history repository with a transaction
func newLedgerHistoryRepositoryWithTx(tx queryable) *LedgerHistoryRepository {
	return &LedgerHistoryRepository{q: tx}
}

// Record creates a new ledger history entry
func (r *LedgerHistoryRepository) Record(ctx context.Context, history *models.LedgerHistory) error {
	var metadataJSON []byte
	if history.TransactionMetadata != nil {
		var err error
		metadataJSON, err = json.Marshal(history.TransactionMetadata)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction metadata: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_history
		(user_id, transaction_type, amount, deposit_before, deposit_after, winnings_before, winnings_after, transaction_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		history.UserID,
		history.TransactionType,
		toNumeric(history.Amount),
		toNumeric(history.DepositBefore),
		toNumeric(history.DepositAfter),
		toNumeric(history.WinningsBefore),
		toNumeric(history.WinningsAfter),
		metadataJSON,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger history for user %s: %w", history.UserID, err)
	}

	return nil
}

// GetByUser returns the most recent ledger history for a user, newest first
func (r *LedgerHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerHistory, error) {
	query := `
		SELECT id, user_id, transaction_type, amount, deposit_before, deposit_after,
		       winnings_before, winnings_after, transaction_metadata, created_at
		FROM ledger_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history for user %s: %w", userID, err)
	}
	defer rows.Close()

	histories := []*models.LedgerHistory{}
	for rows.Next() {
		var history models.LedgerHistory
		var amount, depositBefore, depositAfter, winningsBefore, winningsAfter pgtype.Numeric
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.TransactionType,
			&amount,
			&depositBefore,
			&depositAfter,
			&winningsBefore,
			&winningsAfter,
			&metadataJSON,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger history: %w", err)
		}

		err = scanAmounts(
			amountPair{"amount", amount, &history.Amount},
			amountPair{"deposit_before", depositBefore, &history.DepositBefore},
			amountPair{"deposit_after", depositAfter, &history.DepositAfter},
			amountPair{"winnings_before", winningsBefore, &history.WinningsBefore},
			amountPair{"winnings_after", winningsAfter, &history.WinningsAfter},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger history %d: %w", history.ID, err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger history: %w", err)
	}

	return histories, nil
}
