package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

type AccountRepoMock struct{ mock.Mock }

func (m *AccountRepoMock) CreateAccount(ctx context.Context, account models.MtAccount) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}

func (m *AccountRepoMock) ListAccounts(ctx context.Context, userUID string) ([]*models.MtAccount, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MtAccount), args.Error(1)
}

func (m *AccountRepoMock) CountAccounts(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

func (m *AccountRepoMock) SoftDeleteAccount(ctx context.Context, userUID, accountID string) error {
	return m.Called(ctx, userUID, accountID).Error(0)
}

func (m *AccountRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func dummyAccount() models.DummyAccount {
	return models.DummyAccount{
		AccountNumber: "7000001",
		BrokerName:    "Alpari",
		AccountType:   "LIVE",
		TerminalType:  models.TerminalMT5,
	}
}

func TestAccountCreate_WithinTierLimit(t *testing.T) {
	repo := new(AccountRepoMock)
	svc := NewAccountService(repo, NewNoopLogger())

	repo.On("GetUser", mock.Anything, "user-uid").
		Return(&models.User{UID: "user-uid", SubscriptionTier: models.TierTwo}, nil)
	repo.On("CountAccounts", mock.Anything, "user-uid").Return(2, nil)
	repo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a models.MtAccount) bool {
		return a.UserUID == "user-uid" && a.AccountNumber == "7000001" && a.Nickname == nil
	})).Return("acc-id", nil)

	id, err := svc.Create(context.Background(), "user-uid", dummyAccount())
	require.NoError(t, err)
	assert.Equal(t, "acc-id", id)
}

func TestAccountCreate_TierLimitReached(t *testing.T) {
	tests := []struct {
		name string
		tier string
		used int
	}{
		{"tier one full", models.TierOne, 1},
		{"tier two full", models.TierTwo, 5},
		{"tier three full", models.TierThree, 10},
		{"unknown tier treated as tier one", "LEGACY", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			svc := NewAccountService(repo, NewNoopLogger())

			repo.On("GetUser", mock.Anything, "user-uid").
				Return(&models.User{UID: "user-uid", SubscriptionTier: tt.tier}, nil)
			repo.On("CountAccounts", mock.Anything, "user-uid").Return(tt.used, nil)

			_, err := svc.Create(context.Background(), "user-uid", dummyAccount())
			assert.ErrorIs(t, err, ErrAccountLimitReached)
			repo.AssertNotCalled(t, "CreateAccount")
		})
	}
}

func TestAccountCreate_DuplicatePassedThrough(t *testing.T) {
	repo := new(AccountRepoMock)
	svc := NewAccountService(repo, NewNoopLogger())

	repo.On("GetUser", mock.Anything, "user-uid").
		Return(&models.User{UID: "user-uid", SubscriptionTier: models.TierThree}, nil)
	repo.On("CountAccounts", mock.Anything, "user-uid").Return(0, nil)
	repo.On("CreateAccount", mock.Anything, mock.Anything).Return("", repository.ErrAccountExists)

	_, err := svc.Create(context.Background(), "user-uid", dummyAccount())
	assert.ErrorIs(t, err, repository.ErrAccountExists)
}

func TestAccountList_ReportsSlots(t *testing.T) {
	repo := new(AccountRepoMock)
	svc := NewAccountService(repo, NewNoopLogger())

	accounts := []*models.MtAccount{
		{ID: "a1", AccountNumber: "7000001"},
		{ID: "a2", AccountNumber: "7000002"},
	}
	repo.On("GetUser", mock.Anything, "user-uid").
		Return(&models.User{UID: "user-uid", SubscriptionTier: models.TierTwo}, nil)
	repo.On("ListAccounts", mock.Anything, "user-uid").Return(accounts, nil)

	listing, err := svc.List(context.Background(), "user-uid")
	require.NoError(t, err)
	assert.Len(t, listing.Accounts, 2)
	assert.Equal(t, 2, listing.Used)
	assert.Equal(t, 5, listing.Max)
}

func TestAccountRemove(t *testing.T) {
	repo := new(AccountRepoMock)
	svc := NewAccountService(repo, NewNoopLogger())

	repo.On("SoftDeleteAccount", mock.Anything, "user-uid", "acc-id").Return(nil)

	err := svc.Remove(context.Background(), "user-uid", "acc-id")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
