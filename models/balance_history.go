package models

import (
	"time"
)

// TransactionType represents the type of ledger change
type TransactionType string

const (
	TransactionTypeInitial           TransactionType = "initial"
	TransactionTypeDeposit           TransactionType = "deposit"
	TransactionTypeBet               TransactionType = "bet"
	TransactionTypeWithdrawalRequest TransactionType = "withdrawal_request"
	TransactionTypeWithdrawalPayout  TransactionType = "withdrawal_payout"
)

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}

// LedgerHistory represents a historical change to a user's ledger
type LedgerHistory struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              string          `db:"user_id" json:"user_id"`
	TransactionType     TransactionType `db:"transaction_type" json:"transaction_type"`
	Amount              uint64          `db:"amount" json:"amount"`
	DepositBefore       uint64          `db:"deposit_before" json:"deposit_before"`
	DepositAfter        uint64          `db:"deposit_after" json:"deposit_after"`
	WinningsBefore      uint64          `db:"winnings_before" json:"winnings_before"`
	WinningsAfter       uint64          `db:"winnings_after" json:"winnings_after"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transaction_metadata,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
