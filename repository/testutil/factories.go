package testutil

import (
	"wagerledger/models"
)

// CreateTestParameters returns a 2x multiplier, 100s lock, 2-of-3 admin configuration
func CreateTestParameters() models.GameParameters {
	return models.GameParameters{
		Multiplier:      2,
		WithdrawalDelay: 100,
		Admins:          []string{"admin-a", "admin-b", "admin-c"},
		Threshold:       2,
	}
}

// CreateTestLedgerHistory creates a test ledger history entry
func CreateTestLedgerHistory(userID string, transactionType models.TransactionType) *models.LedgerHistory {
	return &models.LedgerHistory{
		UserID:          userID,
		TransactionType: transactionType,
		Amount:          100,
		DepositBefore:   500,
		DepositAfter:    400,
		WinningsBefore:  0,
		WinningsAfter:   200,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestBet creates a test bet record
func CreateTestBet(userID string, amount, multiplier uint64, unlockTime int64) *models.Bet {
	return &models.Bet{
		UserID:         userID,
		Amount:         amount,
		Multiplier:     multiplier,
		WinningsCredit: amount * multiplier,
		UnlockTime:     unlockTime,
	}
}
