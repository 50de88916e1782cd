package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerledger/database"
	"wagerledger/models"
	"wagerledger/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const withdrawalColumns = `user_id, amount, payout_ref, approved, approved_by, approved_at, created_at`

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

// GetByUserID retrieves the outstanding request without locking it
func (r *WithdrawalRepository) GetByUserID(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1`

	request, err := scanWithdrawalRequest(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request for user %s: %w", userID, err)
	}

	return request, nil
}

// GetForUpdate retrieves the outstanding request and holds its row lock until
// the transaction ends
func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, userID string) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1 FOR UPDATE`

	request, err := scanWithdrawalRequest(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal request for user %s: %w", userID, err)
	}

	return request, nil
}

// Create stores a new pending request. The primary key on user_id makes a
// concurrent second insert wait and then fall through the conflict clause.
func (r *WithdrawalRepository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	if request.PayoutRef == "" {
		return fmt.Errorf("withdrawal request for user %s has no payout reference", request.UserID)
	}

	query := `
		INSERT INTO withdrawal_requests (user_id, amount, payout_ref)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING approved, created_at
	`

	err := r.q.QueryRow(ctx, query, request.UserID, toNumeric(request.Amount), request.PayoutRef).Scan(
		&request.Approved,
		&request.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", service.ErrDuplicateRequest, request.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for user %s: %w", request.UserID, err)
	}

	return nil
}

// MarkApproved flips the approved flag. It never clears it.
func (r *WithdrawalRepository) MarkApproved(ctx context.Context, userID string, approvedBy []string, approvedAt time.Time) error {
	query := `
		UPDATE withdrawal_requests
		SET approved = TRUE, approved_by = $2, approved_at = $3
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("failed to approve withdrawal request for user %s: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrRequestNotFound, userID)
	}

	return nil
}

// Retire deletes an approved request so it can never be executed again
func (r *WithdrawalRepository) Retire(ctx context.Context, userID string) error {
	query := `DELETE FROM withdrawal_requests WHERE user_id = $1 AND approved`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to retire withdrawal request for user %s: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrWithdrawalNotApproved, userID)
	}

	return nil
}

func scanWithdrawalRequest(row pgx.Row) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	var amount pgtype.Numeric

	err := row.Scan(
		&request.UserID,
		&amount,
		&request.PayoutRef,
		&request.Approved,
		&request.ApprovedBy,
		&request.ApprovedAt,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := scanAmounts(amountPair{"amount", amount, &request.Amount}); err != nil {
		return nil, err
	}
	if len(request.ApprovedBy) == 0 {
		request.ApprovedBy = nil
	}

	return &request, nil
}
