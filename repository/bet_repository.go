package repository

import (
	"context"
	"fmt"

	"wagerledger/database"
	"wagerledger/models"

	"github.com/jackc/pgx/v5/pgtype"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create creates a new bet record
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (user_id, amount, multiplier, winnings_credit, unlock_time, ledger_history_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		toNumeric(bet.Amount),
		toNumeric(bet.Multiplier),
		toNumeric(bet.WinningsCredit),
		bet.UnlockTime,
		bet.LedgerHistoryID,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %s: %w", bet.UserID, err)
	}

	return nil
}

// GetByUser returns the most recent bets for a user, newest first
func (r *BetRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.Bet, error) {
	query := `
		SELECT id, user_id, amount, multiplier, winnings_credit, unlock_time, ledger_history_id, created_at
		FROM bets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %s: %w", userID, err)
	}
	defer rows.Close()

	bets := []*models.Bet{}
	for rows.Next() {
		var bet models.Bet
		var amount, multiplier, credit pgtype.Numeric

		err := rows.Scan(
			&bet.ID,
			&bet.UserID,
			&amount,
			&multiplier,
			&credit,
			&bet.UnlockTime,
			&bet.LedgerHistoryID,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}

		err = scanAmounts(
			amountPair{"amount", amount, &bet.Amount},
			amountPair{"multiplier", multiplier, &bet.Multiplier},
			amountPair{"winnings_credit", credit, &bet.WinningsCredit},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bet %d: %w", bet.ID, err)
		}

		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}
