package service

import "errors"

// Ledger failure kinds. Every one of them is detected before any write is
// applied, so the caller may retry with corrected input.
var (
	ErrAlreadyInitialized    = errors.New("user already initialized")
	ErrUserNotFound          = errors.New("user not initialized")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrWithdrawalLocked      = errors.New("withdrawal is still locked")
	ErrInsufficientWinnings  = errors.New("insufficient winnings")
	ErrDuplicateRequest      = errors.New("withdrawal request already outstanding")
	ErrRequestNotFound       = errors.New("no outstanding withdrawal request")
	ErrNotEnoughSigners      = errors.New("not enough admin signers")
	ErrWithdrawalNotApproved = errors.New("withdrawal not approved")
)

// ErrPayoutNotRetired means the custodian paid out but the request could not be
// retired. The ledger and the custodial pool have diverged and an operator must
// reconcile them before the request is touched again.
var ErrPayoutNotRetired = errors.New("payout succeeded but withdrawal request was not retired")

// ErrPayoutFailed wraps a custodian failure; the request is left intact.
var ErrPayoutFailed = errors.New("payout failed")

// ErrorKind returns a stable label for err, used for metrics and API responses
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrWithdrawalLocked):
		return "withdrawal_locked"
	case errors.Is(err, ErrInsufficientWinnings):
		return "insufficient_winnings"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, ErrRequestNotFound):
		return "request_not_found"
	case errors.Is(err, ErrNotEnoughSigners):
		return "not_enough_signers"
	case errors.Is(err, ErrWithdrawalNotApproved):
		return "withdrawal_not_approved"
	case errors.Is(err, ErrPayoutNotRetired):
		return "payout_not_retired"
	case errors.Is(err, ErrPayoutFailed):
		return "payout_failed"
	default:
		return "internal"
	}
}
