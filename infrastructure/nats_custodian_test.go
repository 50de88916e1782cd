package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNATSCustodian_Payout(t *testing.T) {
	requester := new(MockMessageRequester)
	custodian := NewNATSCustodian(requester, "custodian.payout", time.Second)

	var sent PayoutRequest
	requester.On("Request", mock.Anything, "custodian.payout", mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &sent))
		}).
		Return([]byte(`{"ok":true}`), nil)

	require.NoError(t, custodian.Payout(context.Background(), "alice", 400, "ref-1"))
	assert.Equal(t, PayoutRequest{UserID: "alice", Amount: 400, Ref: "ref-1"}, sent)
	requester.AssertExpectations(t)
}

func TestNATSCustodian_Rejected(t *testing.T) {
	requester := new(MockMessageRequester)
	custodian := NewNATSCustodian(requester, "custodian.payout", time.Second)

	requester.On("Request", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte(`{"ok":false,"error":"pool drained"}`), nil)

	err := custodian.Payout(context.Background(), "alice", 400, "ref-1")
	assert.ErrorIs(t, err, ErrPayoutRejected)
	assert.ErrorContains(t, err, "pool drained")
}

func TestNATSCustodian_RequestError(t *testing.T) {
	requester := new(MockMessageRequester)
	custodian := NewNATSCustodian(requester, "custodian.payout", time.Second)

	timeout := errors.New("nats: timeout")
	requester.On("Request", mock.Anything, mock.Anything, mock.Anything).Return(nil, timeout)

	err := custodian.Payout(context.Background(), "alice", 400, "ref-1")
	assert.ErrorIs(t, err, timeout)
}

func TestNATSCustodian_MalformedReply(t *testing.T) {
	requester := new(MockMessageRequester)
	custodian := NewNATSCustodian(requester, "custodian.payout", time.Second)

	requester.On("Request", mock.Anything, mock.Anything, mock.Anything).Return([]byte("not json"), nil)

	err := custodian.Payout(context.Background(), "alice", 400, "ref-1")
	assert.ErrorContains(t, err, "failed to decode custodian reply")
}

func TestLogCustodian_AcceptsEverything(t *testing.T) {
	assert.NoError(t, NewLogCustodian().Payout(context.Background(), "alice", 1, "ref"))
}
