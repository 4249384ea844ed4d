package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

type ReferralRepoMock struct{ mock.Mock }

func (m *ReferralRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *ReferralRepoMock) ListReferrals(ctx context.Context, referrerUID string) ([]*repository.ReferralRow, error) {
	args := m.Called(ctx, referrerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ReferralRow), args.Error(1)
}

func TestReferralOverview(t *testing.T) {
	repo := new(ReferralRepoMock)
	svc := NewReferralService(repo, NewNoopLogger())

	referredBy := "FRIEND01"
	joined := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []*repository.ReferralRow{
		{
			Referral:     models.Referral{ID: "r1", Status: models.ReferralApproved},
			ReferredName: "alice",
			JoinedAt:     joined,
			IsApproved:   true,
		},
		{
			Referral:     models.Referral{ID: "r2", Status: models.ReferralPending},
			ReferredName: "bob",
			JoinedAt:     joined,
		},
		{
			Referral:     models.Referral{ID: "r3", Status: models.ReferralRewarded, RewardGiven: true},
			ReferredName: "Юлия",
			JoinedAt:     joined,
			IsApproved:   true,
		},
	}

	repo.On("GetUser", mock.Anything, "user-uid").Return(&models.User{
		UID:            "user-uid",
		ReferralCode:   "ABCD1234",
		ReferredByCode: &referredBy,
	}, nil)
	repo.On("ListReferrals", mock.Anything, "user-uid").Return(rows, nil)

	overview, err := svc.Overview(context.Background(), "user-uid")
	require.NoError(t, err)

	assert.Equal(t, "ABCD1234", overview.ReferralCode)
	assert.True(t, overview.WasReferred)
	assert.Equal(t, models.ReferralStats{Total: 3, Approved: 2, Pending: 1, Rewarded: 1}, overview.Stats)

	require.Len(t, overview.Referrals, 3)
	assert.Equal(t, "a***", overview.Referrals[0].ReferredName)
	assert.Equal(t, "b***", overview.Referrals[1].ReferredName)
	assert.Equal(t, "Ю***", overview.Referrals[2].ReferredName)
}

func TestReferralOverview_NoReferrals(t *testing.T) {
	repo := new(ReferralRepoMock)
	svc := NewReferralService(repo, NewNoopLogger())

	repo.On("GetUser", mock.Anything, "user-uid").Return(&models.User{
		UID:          "user-uid",
		ReferralCode: "ABCD1234",
	}, nil)
	repo.On("ListReferrals", mock.Anything, "user-uid").Return([]*repository.ReferralRow{}, nil)

	overview, err := svc.Overview(context.Background(), "user-uid")
	require.NoError(t, err)
	assert.False(t, overview.WasReferred)
	assert.Equal(t, models.ReferralStats{}, overview.Stats)
	assert.Empty(t, overview.Referrals)
}
