package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// MessageRequester performs a request/reply exchange on a subject
type MessageRequester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// PayoutRequest is sent to the custodian service
type PayoutRequest struct {
	UserID string `json:"user_id"`
	Amount uint64 `json:"amount"`
	Ref    string `json:"ref"`
}

// PayoutReply is the custodian's answer
type PayoutReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ErrPayoutRejected is returned when the custodian answers but refuses the payout
var ErrPayoutRejected = errors.New("custodian rejected payout")

// NATSCustodian asks an external custodian service to release funds over NATS
type NATSCustodian struct {
	requester MessageRequester
	subject   string
	timeout   time.Duration
}

// NewNATSCustodian creates a custodian client publishing requests to subject
func NewNATSCustodian(requester MessageRequester, subject string, timeout time.Duration) *NATSCustodian {
	return &NATSCustodian{
		requester: requester,
		subject:   subject,
		timeout:   timeout,
	}
}

// Payout implements service.Custodian
func (c *NATSCustodian) Payout(ctx context.Context, userID string, amount uint64, ref string) error {
	data, err := json.Marshal(PayoutRequest{UserID: userID, Amount: amount, Ref: ref})
	if err != nil {
		return fmt.Errorf("failed to marshal payout request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	replyData, err := c.requester.Request(ctx, c.subject, data)
	if err != nil {
		return fmt.Errorf("custodian request for %s: %w", ref, err)
	}

	var reply PayoutReply
	if err := json.Unmarshal(replyData, &reply); err != nil {
		return fmt.Errorf("failed to decode custodian reply for %s: %w", ref, err)
	}
	if !reply.OK {
		return fmt.Errorf("%w: %s", ErrPayoutRejected, reply.Error)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"amount":    amount,
		"payoutRef": ref,
	}).Info("Custodian confirmed payout")
	return nil
}
