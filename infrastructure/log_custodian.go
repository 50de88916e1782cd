package infrastructure

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogCustodian accepts every payout and only logs it. Development use only.
type LogCustodian struct{}

// NewLogCustodian creates a new log-only custodian
func NewLogCustodian() *LogCustodian {
	return &LogCustodian{}
}

// Payout implements service.Custodian
func (c *LogCustodian) Payout(ctx context.Context, userID string, amount uint64, ref string) error {
	log.WithFields(log.Fields{
		"userID":    userID,
		"amount":    amount,
		"payoutRef": ref,
	}).Warn("Log custodian accepted payout; no funds moved")
	return nil
}
