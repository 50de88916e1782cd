package models

import "time"

// WithdrawalRequest is an escrowed withdrawal of winnings awaiting admin approval.
// There is at most one outstanding request per user.
type WithdrawalRequest struct {
	UserID     string     `db:"user_id" json:"user_id"`
	Amount     uint64     `db:"amount" json:"amount"`
	PayoutRef  string     `db:"payout_ref" json:"payout_ref"` // idempotency key sent to the custodian
	Approved   bool       `db:"approved" json:"approved"`
	ApprovedBy []string   `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// WithdrawalResult is returned after a successful payout
type WithdrawalResult struct {
	UserID    string    `json:"user_id"`
	Amount    uint64    `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	PayoutRef string    `json:"payout_ref"`
}
