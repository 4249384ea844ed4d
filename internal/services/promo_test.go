package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

type PromoRepoMock struct{ mock.Mock }

func (m *PromoRepoMock) CreatePromoCode(ctx context.Context, promo models.PromoCode) (string, error) {
	args := m.Called(ctx, promo)
	return args.String(0), args.Error(1)
}

func (m *PromoRepoMock) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}

func (m *PromoRepoMock) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PromoCode), args.Error(1)
}

func (m *PromoRepoMock) BumpPromoCodeUsage(ctx context.Context, promoID string) error {
	return m.Called(ctx, promoID).Error(0)
}

func (m *PromoRepoMock) UpdatePromoCode(ctx context.Context, promoID string, isActive *bool, daysGranted, maxUsages *int) error {
	return m.Called(ctx, promoID, isActive, daysGranted, maxUsages).Error(0)
}

func (m *PromoRepoMock) ExtendSubscription(ctx context.Context, userUID string, days int, tier *string) error {
	return m.Called(ctx, userUID, days, tier).Error(0)
}

func TestPromoCreate(t *testing.T) {
	repo := new(PromoRepoMock)
	svc := NewPromoService(repo, NewNoopLogger())

	repo.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(p models.PromoCode) bool {
		return p.Code == "WELCOME30" && p.DaysGranted == 30 && p.IsActive &&
			p.SubscriptionTier != nil && *p.SubscriptionTier == models.TierTwo &&
			p.ExpiresAt != nil
	})).Return("promo-id", nil)

	id, err := svc.Create(context.Background(), models.DummyPromoCode{
		Code:             "WELCOME30",
		DaysGranted:      30,
		SubscriptionTier: models.TierTwo,
		MaxUsages:        100,
		ExpiresAt:        "2027-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "promo-id", id)
}

func TestPromoCreate_BadExpiry(t *testing.T) {
	repo := new(PromoRepoMock)
	svc := NewPromoService(repo, NewNoopLogger())

	_, err := svc.Create(context.Background(), models.DummyPromoCode{
		Code:      "WELCOME30",
		ExpiresAt: "tomorrow",
	})
	require.Error(t, err)
	repo.AssertNotCalled(t, "CreatePromoCode")
}

func TestPromoRedeem_ExtendsSubscription(t *testing.T) {
	repo := new(PromoRepoMock)
	svc := NewPromoService(repo, NewNoopLogger())

	tier := models.TierTwo
	promo := &models.PromoCode{ID: "promo-id", Code: "WELCOME30", DaysGranted: 30,
		SubscriptionTier: &tier, IsActive: true}

	repo.On("GetPromoCode", mock.Anything, "WELCOME30").Return(promo, nil)
	repo.On("BumpPromoCodeUsage", mock.Anything, "promo-id").Return(nil)
	repo.On("ExtendSubscription", mock.Anything, "user-uid", 30, &tier).Return(nil)

	got, err := svc.Redeem(context.Background(), "user-uid", "WELCOME30")
	require.NoError(t, err)
	assert.Equal(t, 30, got.DaysGranted)

	repo.AssertExpectations(t)
}

func TestPromoRedeem_UnknownCode(t *testing.T) {
	repo := new(PromoRepoMock)
	svc := NewPromoService(repo, NewNoopLogger())

	repo.On("GetPromoCode", mock.Anything, "GHOST").Return(nil, sql.ErrNoRows)

	_, err := svc.Redeem(context.Background(), "user-uid", "GHOST")
	assert.ErrorIs(t, err, ErrPromoCodeInvalid)
}

func TestPromoRedeem_InactiveOrExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	tests := []struct {
		name  string
		promo *models.PromoCode
	}{
		{"inactive", &models.PromoCode{ID: "p1", IsActive: false}},
		{"expired", &models.PromoCode{ID: "p2", IsActive: true, ExpiresAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(PromoRepoMock)
			svc := NewPromoService(repo, NewNoopLogger())

			repo.On("GetPromoCode", mock.Anything, "CODE").Return(tt.promo, nil)

			_, err := svc.Redeem(context.Background(), "user-uid", "CODE")
			assert.ErrorIs(t, err, ErrPromoCodeInvalid)
			repo.AssertNotCalled(t, "BumpPromoCodeUsage")
		})
	}
}

func TestPromoRedeem_ExhaustedCode(t *testing.T) {
	repo := new(PromoRepoMock)
	svc := NewPromoService(repo, NewNoopLogger())

	promo := &models.PromoCode{ID: "promo-id", IsActive: true, MaxUsages: 10, UsageCount: 10}
	repo.On("GetPromoCode", mock.Anything, "FULL").Return(promo, nil)
	repo.On("BumpPromoCodeUsage", mock.Anything, "promo-id").Return(repository.ErrPromoCodeExhausted)

	_, err := svc.Redeem(context.Background(), "user-uid", "FULL")
	assert.ErrorIs(t, err, repository.ErrPromoCodeExhausted)
	repo.AssertNotCalled(t, "ExtendSubscription")
}
