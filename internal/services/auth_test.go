package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/lib/jwt"
	"github.com/myalgostack/license-server/internal/lib/password"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/rabbitmq"
)

type AuthRepoMock struct{ mock.Mock }

func (m *AuthRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *AuthRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthRepoMock) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthRepoMock) CreateReferral(ctx context.Context, referrerUID, referredUID, code string) (string, error) {
	args := m.Called(ctx, referrerUID, referredUID, code)
	return args.String(0), args.Error(1)
}

func (m *AuthRepoMock) UpdateUserCredentials(ctx context.Context, userUID, apiKey, apiSecret string) error {
	return m.Called(ctx, userUID, apiKey, apiSecret).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func newAuthService(repo *AuthRepoMock, publisher *PublisherMock) *AuthService {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(repo, maker, publisher, 14, NewNoopLogger())
}

func TestAuthRegister_CreatesTrialUser(t *testing.T) {
	repo := new(AuthRepoMock)
	publisher := new(PublisherMock)
	svc := newAuthService(repo, publisher)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "trader" && u.Email == "trader@example.com" &&
			u.Role == models.RoleUser && u.SubscriptionTier == models.TierOne &&
			u.IsApproved && u.IsActive &&
			strings.HasPrefix(u.APIKey, "eak_") &&
			u.ReferralCode != "" && u.ReferredByCode == nil &&
			u.TrialEndsAt != nil && u.TrialEndsAt.After(time.Now().AddDate(0, 0, 13))
	})).Return("new-uid", nil)
	publisher.On("Publish", rabbitmq.UserRegisteredKey, mock.MatchedBy(func(e models.UserRegisteredEvent) bool {
		return e.Email == "trader@example.com" && e.TrialDays == 14
	})).Return(nil)

	uid, err := svc.Register(context.Background(), "trader", "trader@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
	repo.AssertNotCalled(t, "GetUserByReferralCode")
	repo.AssertNotCalled(t, "CreateReferral")
}

func TestAuthRegister_WithReferralCode(t *testing.T) {
	repo := new(AuthRepoMock)
	publisher := new(PublisherMock)
	svc := newAuthService(repo, publisher)

	referrer := &models.User{UID: "referrer-uid", ReferralCode: "ABCD1234"}
	repo.On("GetUserByReferralCode", mock.Anything, "ABCD1234").Return(referrer, nil)
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.ReferredByCode != nil && *u.ReferredByCode == "ABCD1234"
	})).Return("new-uid", nil)
	repo.On("CreateReferral", mock.Anything, "referrer-uid", "new-uid", "ABCD1234").Return("ref-id", nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Register(context.Background(), "trader", "trader@example.com", "password123", "ABCD1234")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestAuthRegister_UnknownReferralCodeIgnored(t *testing.T) {
	repo := new(AuthRepoMock)
	publisher := new(PublisherMock)
	svc := newAuthService(repo, publisher)

	repo.On("GetUserByReferralCode", mock.Anything, "NOPE").Return(nil, sql.ErrNoRows)
	repo.On("RegisterUser", mock.Anything, mock.Anything).Return("new-uid", nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	uid, err := svc.Register(context.Background(), "trader", "trader@example.com", "password123", "NOPE")
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)

	repo.AssertNotCalled(t, "CreateReferral")
}

func TestAuthRegister_PublishFailureDoesNotBlock(t *testing.T) {
	repo := new(AuthRepoMock)
	publisher := new(PublisherMock)
	svc := newAuthService(repo, publisher)

	repo.On("RegisterUser", mock.Anything, mock.Anything).Return("new-uid", nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	uid, err := svc.Register(context.Background(), "trader", "trader@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)
}

func TestAuthLogin_Success(t *testing.T) {
	repo := new(AuthRepoMock)
	svc := newAuthService(repo, new(PublisherMock))

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "trader").Return(&models.User{
		UID:          "user-uid",
		Username:     "trader",
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     true,
	}, nil)

	token, role, err := svc.Login(context.Background(), "trader", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleUser, role)

	claims, err := jwt.NewJWTMaker("test-secret", time.Hour).ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "trader", claims.Username)
	assert.Equal(t, "user-uid", claims.UserUID)
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	repo := new(AuthRepoMock)
	svc := newAuthService(repo, new(PublisherMock))

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "trader").Return(&models.User{
		PasswordHash: hashed,
		IsActive:     true,
	}, nil)

	_, _, err = svc.Login(context.Background(), "trader", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLogin_UnknownUser(t *testing.T) {
	repo := new(AuthRepoMock)
	svc := newAuthService(repo, new(PublisherMock))

	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

	_, _, err := svc.Login(context.Background(), "ghost", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLogin_InactiveUser(t *testing.T) {
	repo := new(AuthRepoMock)
	svc := newAuthService(repo, new(PublisherMock))

	hashed, err := password.GetHash("password123")
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "trader").Return(&models.User{
		PasswordHash: hashed,
		IsActive:     false,
	}, nil)

	_, _, err = svc.Login(context.Background(), "trader", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRegenerateCredentials(t *testing.T) {
	repo := new(AuthRepoMock)
	svc := newAuthService(repo, new(PublisherMock))

	repo.On("UpdateUserCredentials", mock.Anything, "user-uid",
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "eak_") }),
		mock.MatchedBy(func(secret string) bool { return strings.HasPrefix(secret, "eak_") }),
	).Return(nil)

	key, secret, err := svc.RegenerateCredentials(context.Background(), "user-uid")
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.NotEmpty(t, secret)
	assert.NotEqual(t, key, secret)
}
