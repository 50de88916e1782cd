package models

import "time"

// Bet represents a settled bet in the database
type Bet struct {
	ID              int64     `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Amount          uint64    `db:"amount" json:"amount"`
	Multiplier      uint64    `db:"multiplier" json:"multiplier"`
	WinningsCredit  uint64    `db:"winnings_credit" json:"winnings_credit"`
	UnlockTime      int64     `db:"unlock_time" json:"unlock_time"`
	LedgerHistoryID *int64    `db:"ledger_history_id" json:"ledger_history_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BetResult represents the outcome of a bet (returned to the caller)
type BetResult struct {
	BetAmount      uint64 `json:"bet_amount"`
	WinningsCredit uint64 `json:"winnings_credit"`
	NewDeposit     uint64 `json:"new_deposit"`
	NewWinnings    uint64 `json:"new_winnings"`
	UnlockTime     int64  `json:"unlock_time"`
}
