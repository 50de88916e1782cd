package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerledger/database"
	"wagerledger/models"
	"wagerledger/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ledgerColumns = `user_id, deposit, winnings, unlock_time, created_at, updated_at`

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// GetByUserID retrieves a ledger entry without locking it
func (r *LedgerRepository) GetByUserID(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE user_id = $1`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry for user %s: %w", userID, err)
	}

	return entry, nil
}

// GetForUpdate retrieves a ledger entry and holds its row lock until the
// transaction ends
func (r *LedgerRepository) GetForUpdate(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE user_id = $1 FOR UPDATE`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledger entry for user %s: %w", userID, err)
	}

	return entry, nil
}

// Create creates a zeroed ledger entry. A second call for the same user
// fails instead of resetting the balances.
func (r *LedgerRepository) Create(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	query := `
		INSERT INTO ledger_entries (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + ledgerColumns

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", service.ErrAlreadyInitialized, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger entry for user %s: %w", userID, err)
	}

	return entry, nil
}

// Update persists deposit, winnings and unlock time
func (r *LedgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET deposit = $2, winnings = $3, unlock_time = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		toNumeric(entry.Deposit),
		toNumeric(entry.Winnings),
		entry.UnlockTime,
	).Scan(&entry.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", service.ErrUserNotFound, entry.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to update ledger entry for user %s: %w", entry.UserID, err)
	}

	return nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var deposit, winnings pgtype.Numeric

	err := row.Scan(
		&entry.UserID,
		&deposit,
		&winnings,
		&entry.UnlockTime,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = scanAmounts(
		amountPair{"deposit", deposit, &entry.Deposit},
		amountPair{"winnings", winnings, &entry.Winnings},
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}
