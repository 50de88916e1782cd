package models

import "time"

// LedgerEntry is the per-user balance state
type LedgerEntry struct {
	UserID     string    `db:"user_id" json:"user_id"`
	Deposit    uint64    `db:"deposit" json:"deposit"`         // funds available to bet
	Winnings   uint64    `db:"winnings" json:"winnings"`       // funds available to withdraw
	UnlockTime int64     `db:"unlock_time" json:"unlock_time"` // unix seconds, 0 until the first bet
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CanAfford checks if the deposit balance covers a bet
func (e *LedgerEntry) CanAfford(amount uint64) bool {
	return e.Deposit >= amount
}

// IsUnlocked reports whether winnings may be requested at the given unix time
func (e *LedgerEntry) IsUnlocked(now int64) bool {
	return now >= e.UnlockTime
}
