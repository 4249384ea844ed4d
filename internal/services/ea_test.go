package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/models"
)

type EaRepoMock struct{ mock.Mock }

func (m *EaRepoMock) CreateEa(ctx context.Context, ea models.ExpertAdvisor) (string, error) {
	args := m.Called(ctx, ea)
	return args.String(0), args.Error(1)
}

func (m *EaRepoMock) GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error) {
	args := m.Called(ctx, eaCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExpertAdvisor), args.Error(1)
}

func (m *EaRepoMock) ListActiveEas(ctx context.Context) ([]*models.ExpertAdvisor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExpertAdvisor), args.Error(1)
}

func (m *EaRepoMock) UpdateEa(ctx context.Context, eaID string, currentVersion *string, isActive *bool, description *string) error {
	return m.Called(ctx, eaID, currentVersion, isActive, description).Error(0)
}

func (m *EaRepoMock) UpsertGrant(ctx context.Context, userUID, eaID string, expiresAt *time.Time) (string, error) {
	args := m.Called(ctx, userUID, eaID, expiresAt)
	return args.String(0), args.Error(1)
}

func (m *EaRepoMock) DisableGrant(ctx context.Context, userUID, eaID string) error {
	return m.Called(ctx, userUID, eaID).Error(0)
}

func (m *EaRepoMock) ListGrantsForUser(ctx context.Context, userUID string) ([]*models.EaGrant, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EaGrant), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func TestEaListActive_CacheMiss(t *testing.T) {
	repo := new(EaRepoMock)
	cache := new(CacheMock)
	svc := NewEaService(repo, cache, NewNoopLogger())

	eas := []*models.ExpertAdvisor{{ID: "ea-1", EaCode: "trend_rider_ea", IsActive: true}}
	cache.On("Get", activeEasCacheKey, mock.Anything).Return(false, nil)
	repo.On("ListActiveEas", mock.Anything).Return(eas, nil)
	cache.On("Set", activeEasCacheKey, eas, 5*time.Minute).Return(nil)

	got, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestEaListActive_CacheHitSkipsRepo(t *testing.T) {
	repo := new(EaRepoMock)
	cache := new(CacheMock)
	svc := NewEaService(repo, cache, NewNoopLogger())

	cache.On("Get", activeEasCacheKey, mock.Anything).Return(true, nil)

	_, err := svc.ListActive(context.Background())
	require.NoError(t, err)

	repo.AssertNotCalled(t, "ListActiveEas")
}

func TestEaListActive_CacheErrorFallsThrough(t *testing.T) {
	repo := new(EaRepoMock)
	cache := new(CacheMock)
	svc := NewEaService(repo, cache, NewNoopLogger())

	cache.On("Get", activeEasCacheKey, mock.Anything).Return(false, assert.AnError)
	repo.On("ListActiveEas", mock.Anything).Return([]*models.ExpertAdvisor{}, nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.ListActive(context.Background())
	require.NoError(t, err)
}

func TestEaCheckVersion(t *testing.T) {
	tests := []struct {
		name            string
		current         string
		client          string
		updateAvailable bool
	}{
		{"client is behind", "1.3.0", "1.2.0", true},
		{"client is current", "1.3.0", "1.3.0", false},
		{"client is ahead", "1.3.0", "1.4.0", false},
		{"patch update", "1.3.1", "1.3.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(EaRepoMock)
			svc := NewEaService(repo, new(CacheMock), NewNoopLogger())

			repo.On("GetEaByCode", mock.Anything, "trend_rider_ea").Return(&models.ExpertAdvisor{
				EaCode:         "trend_rider_ea",
				CurrentVersion: tt.current,
			}, nil)

			info, err := svc.CheckVersion(context.Background(), "trend_rider_ea", tt.client)
			require.NoError(t, err)
			assert.Equal(t, tt.updateAvailable, info.UpdateAvailable)
			assert.Equal(t, tt.current, info.CurrentVersion)
		})
	}
}

func TestEaCreate_InvalidatesCache(t *testing.T) {
	repo := new(EaRepoMock)
	cache := new(CacheMock)
	svc := NewEaService(repo, cache, NewNoopLogger())

	repo.On("CreateEa", mock.Anything, mock.MatchedBy(func(ea models.ExpertAdvisor) bool {
		return ea.EaCode == "trend_rider_ea" && ea.IsActive
	})).Return("ea-id", nil)
	cache.On("Invalidate", activeEasCacheKey).Return(nil)

	id, err := svc.CreateEa(context.Background(), models.DummyEa{
		EaCode:         "trend_rider_ea",
		Name:           "Trend Rider",
		CurrentVersion: "1.0.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "ea-id", id)

	cache.AssertExpectations(t)
}

func TestEaGrant_ParsesExpiry(t *testing.T) {
	repo := new(EaRepoMock)
	svc := NewEaService(repo, new(CacheMock), NewNoopLogger())

	expires := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	repo.On("UpsertGrant", mock.Anything, "user-uid", "ea-id", mock.MatchedBy(func(at *time.Time) bool {
		return at != nil && at.Equal(expires)
	})).Return("grant-id", nil)

	id, err := svc.Grant(context.Background(), "user-uid", models.DummyGrant{
		EaID:      "ea-id",
		ExpiresAt: "2026-12-31T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "grant-id", id)
}

func TestEaGrant_EmptyExpiryIsUnlimited(t *testing.T) {
	repo := new(EaRepoMock)
	svc := NewEaService(repo, new(CacheMock), NewNoopLogger())

	repo.On("UpsertGrant", mock.Anything, "user-uid", "ea-id", (*time.Time)(nil)).Return("grant-id", nil)

	_, err := svc.Grant(context.Background(), "user-uid", models.DummyGrant{EaID: "ea-id"})
	require.NoError(t, err)
}

func TestEaGrant_BadExpiryRejected(t *testing.T) {
	repo := new(EaRepoMock)
	svc := NewEaService(repo, new(CacheMock), NewNoopLogger())

	_, err := svc.Grant(context.Background(), "user-uid", models.DummyGrant{
		EaID:      "ea-id",
		ExpiresAt: "31-12-2026",
	})
	require.Error(t, err)
	repo.AssertNotCalled(t, "UpsertGrant")
}

func TestEaRevoke(t *testing.T) {
	repo := new(EaRepoMock)
	svc := NewEaService(repo, new(CacheMock), NewNoopLogger())

	repo.On("DisableGrant", mock.Anything, "user-uid", "ea-id").Return(nil)

	err := svc.Revoke(context.Background(), "user-uid", "ea-id")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
