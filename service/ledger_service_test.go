package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"wagerledger/events"
	"wagerledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_InitializeUser(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	created := &models.LedgerEntry{UserID: testUserID}

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Commit").Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("Create", ctx, testUserID).Return(created, nil)
	mocks.HistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.LedgerHistory) bool {
		return h.UserID == testUserID && h.TransactionType == models.TransactionTypeInitial && h.Amount == 0
	})).Return(nil)
	mocks.EventPublisher.On("Publish", events.UserInitializedEvent{UserID: testUserID}).Return()

	entry, err := service.InitializeUser(ctx, testUserID)

	require.NoError(t, err)
	assert.Equal(t, uint64(0), entry.Deposit)
	assert.Equal(t, uint64(0), entry.Winnings)
	assert.Equal(t, int64(0), entry.UnlockTime)
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_InitializeUser_AlreadyInitialized(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("Create", ctx, testUserID).Return(nil, ErrAlreadyInitialized)

	entry, err := service.InitializeUser(ctx, testUserID)

	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	mocks.UoW.AssertNotCalled(t, "Commit")
	mocks.HistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_InitializeUser_EmptyID(t *testing.T) {
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), nil)

	_, err := service.InitializeUser(context.Background(), "")

	assert.Error(t, err)
	mocks.Factory.AssertNotCalled(t, "Create")
}

func TestLedgerService_Deposit(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	existing := &models.LedgerEntry{UserID: testUserID, Deposit: 100, Winnings: 7, UnlockTime: 42}

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Commit").Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(existing, nil)
	mocks.LedgerRepo.On("Update", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Deposit == 600 && e.Winnings == 7 && e.UnlockTime == 42
	})).Return(nil)
	mocks.HistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.LedgerHistory) bool {
		return h.TransactionType == models.TransactionTypeDeposit &&
			h.Amount == 500 &&
			h.DepositBefore == 100 &&
			h.DepositAfter == 600
	})).Return(nil)
	mocks.EventPublisher.On("Publish", events.DepositedEvent{UserID: testUserID, Amount: 500, NewDeposit: 600}).Return()

	entry, err := service.Deposit(ctx, testUserID, 500)

	require.NoError(t, err)
	assert.Equal(t, uint64(600), entry.Deposit)
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_Deposit_Overflow(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	existing := &models.LedgerEntry{UserID: testUserID, Deposit: math.MaxUint64 - 1}

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(existing, nil)

	_, err := service.Deposit(ctx, testUserID, 2)

	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	mocks.LedgerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mocks.UoW.AssertNotCalled(t, "Commit")
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_Deposit_Zero(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	existing := &models.LedgerEntry{UserID: testUserID, Deposit: 10}

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(existing, nil)

	entry, err := service.Deposit(ctx, testUserID, 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(10), entry.Deposit)
	mocks.UoW.AssertNotCalled(t, "Commit")
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_Deposit_UserNotFound(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(nil, nil)

	_, err := service.Deposit(ctx, testUserID, 10)

	assert.ErrorIs(t, err, ErrUserNotFound)
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	clock := NewManualClock(testStart)
	service := NewLedgerService(mocks.Factory, testParams(), clock)

	// A pending lock far in the future is overwritten, not extended
	existing := &models.LedgerEntry{UserID: testUserID, Deposit: 500, Winnings: 10, UnlockTime: testStart.Unix() + 10_000}
	wantUnlock := testStart.Unix() + 100

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Commit").Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(existing, nil)
	mocks.LedgerRepo.On("Update", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Deposit == 300 && e.Winnings == 410 && e.UnlockTime == wantUnlock
	})).Return(nil)
	mocks.HistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.LedgerHistory) bool {
		return h.TransactionType == models.TransactionTypeBet &&
			h.Amount == 200 &&
			h.WinningsBefore == 10 &&
			h.WinningsAfter == 410
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.LedgerHistory).ID = 77
	}).Return(nil)
	mocks.BetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.Amount == 200 &&
			b.Multiplier == 2 &&
			b.WinningsCredit == 400 &&
			b.LedgerHistoryID != nil && *b.LedgerHistoryID == 77
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Bet).ID = 5
	}).Return(nil)
	mocks.EventPublisher.On("Publish", events.BetPlacedEvent{
		UserID:         testUserID,
		BetID:          5,
		Amount:         200,
		WinningsCredit: 400,
		UnlockTime:     wantUnlock,
	}).Return()

	result, err := service.PlaceBet(ctx, testUserID, 200)

	require.NoError(t, err)
	assert.Equal(t, &models.BetResult{
		BetAmount:      200,
		WinningsCredit: 400,
		NewDeposit:     300,
		NewWinnings:    410,
		UnlockTime:     wantUnlock,
	}, result)
	mocks.AssertAllExpectations(t)
}

func TestLedgerService_PlaceBet_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		entry      *models.LedgerEntry
		multiplier uint64
		bet        uint64
		wantErr    error
	}{
		{
			name:       "bet exceeds deposit",
			entry:      &models.LedgerEntry{UserID: testUserID, Deposit: 100},
			multiplier: 2,
			bet:        101,
			wantErr:    ErrInsufficientFunds,
		},
		{
			name:       "credit multiplication overflows",
			entry:      &models.LedgerEntry{UserID: testUserID, Deposit: math.MaxUint64},
			multiplier: 2,
			bet:        math.MaxUint64/2 + 1,
			wantErr:    ErrArithmeticOverflow,
		},
		{
			name:       "winnings addition overflows",
			entry:      &models.LedgerEntry{UserID: testUserID, Deposit: 10, Winnings: math.MaxUint64 - 5},
			multiplier: 3,
			bet:        2,
			wantErr:    ErrArithmeticOverflow,
		},
		{
			name:       "user not found",
			entry:      nil,
			multiplier: 2,
			bet:        1,
			wantErr:    ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mocks := NewTestMocks()
			params := testParams()
			params.Multiplier = tt.multiplier
			service := NewLedgerService(mocks.Factory, params, NewManualClock(testStart))

			mocks.UoW.On("Begin", ctx).Return(nil)
			mocks.UoW.On("Rollback").Return(nil)
			if tt.entry == nil {
				mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(nil, nil)
			} else {
				mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(tt.entry, nil)
			}

			result, err := service.PlaceBet(ctx, testUserID, tt.bet)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			mocks.LedgerRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			mocks.BetRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mocks.UoW.AssertNotCalled(t, "Commit")
		})
	}
}

func TestLedgerService_PlaceBet_UnlockTimeOverflow(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	params := testParams()
	params.WithdrawalDelay = math.MaxInt64
	service := NewLedgerService(mocks.Factory, params, NewManualClock(testStart))

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(&models.LedgerEntry{UserID: testUserID, Deposit: 10}, nil)

	_, err := service.PlaceBet(ctx, testUserID, 5)

	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	mocks.UoW.AssertNotCalled(t, "Commit")
}

func TestLedgerService_PlaceBet_CommitFailure(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), NewManualClock(testStart))

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Commit").Return(errors.New("connection reset"))
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetForUpdate", ctx, testUserID).Return(&models.LedgerEntry{UserID: testUserID, Deposit: 10}, nil)
	mocks.LedgerRepo.On("Update", ctx, mock.Anything).Return(nil)
	mocks.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mocks.BetRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.EventPublisher.On("Publish", mock.Anything).Return()

	result, err := service.PlaceBet(ctx, testUserID, 5)

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "failed to commit transaction")
}

func TestLedgerService_GetHistory_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	mocks := NewTestMocks()
	service := NewLedgerService(mocks.Factory, testParams(), nil)

	mocks.UoW.On("Begin", ctx).Return(nil)
	mocks.UoW.On("Rollback").Return(nil)
	mocks.LedgerRepo.On("GetByUserID", ctx, testUserID).Return(&models.LedgerEntry{UserID: testUserID}, nil)
	mocks.HistoryRepo.On("GetByUser", ctx, testUserID, maxHistoryLimit).Return([]*models.LedgerHistory{}, nil).Once()
	mocks.HistoryRepo.On("GetByUser", ctx, testUserID, defaultHistoryLimit).Return([]*models.LedgerHistory{}, nil).Once()

	_, err := service.GetHistory(ctx, testUserID, 10_000)
	require.NoError(t, err)
	_, err = service.GetHistory(ctx, testUserID, 0)
	require.NoError(t, err)

	mocks.HistoryRepo.AssertExpectations(t)
}

func TestLedgerService_GetParameters_ReturnsCopy(t *testing.T) {
	service := NewLedgerService(new(MockUnitOfWorkFactory), testParams(), nil)

	params := service.GetParameters()
	params.Admins[0] = "intruder"

	assert.Equal(t, "admin-a", service.GetParameters().Admins[0])
}
