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
	"github.com/myalgostack/license-server/internal/rabbitmq"
	"github.com/myalgostack/license-server/internal/ratelimit"
)

type TradeRepoMock struct{ mock.Mock }

func (m *TradeRepoMock) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *TradeRepoMock) GetAccountByNumber(ctx context.Context, userUID, accountNumber string) (*models.MtAccount, error) {
	args := m.Called(ctx, userUID, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MtAccount), args.Error(1)
}

func (m *TradeRepoMock) GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error) {
	args := m.Called(ctx, eaCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExpertAdvisor), args.Error(1)
}

func (m *TradeRepoMock) UpsertTrade(ctx context.Context, trade models.Trade) (string, bool, error) {
	args := m.Called(ctx, trade)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *TradeRepoMock) ListTrades(ctx context.Context, userUID string, filter models.TradeFilter) ([]*models.Trade, int, error) {
	args := m.Called(ctx, userUID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Trade), args.Int(1), args.Error(2)
}

func newTradeService(repo *TradeRepoMock, limiter *LimiterMock, publisher *PublisherMock) *TradeService {
	cfg := ratelimit.Config{MaxRequests: 100, Window: time.Minute}
	return NewTradeService(repo, limiter, cfg, publisher, NewNoopLogger())
}

func dummyTrade(status string) models.DummyTrade {
	trade := models.DummyTrade{
		AccountNumber: "7000001",
		Ticket:        555001,
		Symbol:        "EURUSD",
		Type:          "BUY",
		Lots:          0.5,
		OpenPrice:     1.0825,
		OpenTime:      "2026-08-29T10:00:00Z",
		Status:        status,
	}
	if status == models.TradeClosed {
		profit := 41.5
		closePrice := 1.0866
		trade.CloseTime = "2026-08-29T15:30:00Z"
		trade.ClosePrice = &closePrice
		trade.Profit = &profit
	}
	return trade
}

func TestTradeSubmit_OpensTrade(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	publisher := new(PublisherMock)
	svc := newTradeService(repo, limiter, publisher)

	limiter.On("Check", mock.Anything, "trades:eak_test", mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(activeUser(), nil)
	repo.On("GetAccountByNumber", mock.Anything, "user-uid", "7000001").
		Return(&models.MtAccount{ID: "acc-id", AccountNumber: "7000001"}, nil)
	repo.On("UpsertTrade", mock.Anything, mock.MatchedBy(func(tr models.Trade) bool {
		return tr.UserUID == "user-uid" && tr.MtAccountID == "acc-id" &&
			tr.Ticket == 555001 && tr.Status == models.TradeOpen && tr.EaID == nil
	})).Return("trade-id", false, nil)

	res, err := svc.Submit(context.Background(), "eak_test", dummyTrade(models.TradeOpen))
	require.NoError(t, err)
	assert.Equal(t, "trade-id", res.TradeID)
	assert.False(t, res.Updated)

	// Открытие сделки не порождает событие
	publisher.AssertNotCalled(t, "Publish")
}

func TestTradeSubmit_CloseBindsEaAndPublishes(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	publisher := new(PublisherMock)
	svc := newTradeService(repo, limiter, publisher)

	req := dummyTrade(models.TradeClosed)
	req.EaCode = "trend_rider_ea"

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(activeUser(), nil)
	repo.On("GetAccountByNumber", mock.Anything, "user-uid", "7000001").
		Return(&models.MtAccount{ID: "acc-id", AccountNumber: "7000001"}, nil)
	repo.On("GetEaByCode", mock.Anything, "trend_rider_ea").Return(activeEa(), nil)
	repo.On("UpsertTrade", mock.Anything, mock.MatchedBy(func(tr models.Trade) bool {
		return tr.EaID != nil && *tr.EaID == "ea-id" && tr.Status == models.TradeClosed &&
			tr.CloseTime != nil && tr.Profit != nil
	})).Return("trade-id", true, nil)
	publisher.On("Publish", rabbitmq.TradeClosedKey, mock.MatchedBy(func(e models.TradeClosedEvent) bool {
		return e.Ticket == 555001 && e.AccountNumber == "7000001" &&
			e.Email == "trader@example.com" && e.Profit != nil && *e.Profit == 41.5
	})).Return(nil)

	res, err := svc.Submit(context.Background(), "eak_test", req)
	require.NoError(t, err)
	assert.True(t, res.Updated)

	publisher.AssertExpectations(t)
}

func TestTradeSubmit_UnknownEaCodeIgnored(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	svc := newTradeService(repo, limiter, new(PublisherMock))

	req := dummyTrade(models.TradeOpen)
	req.EaCode = "ghost_ea"

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(activeUser(), nil)
	repo.On("GetAccountByNumber", mock.Anything, "user-uid", "7000001").
		Return(&models.MtAccount{ID: "acc-id"}, nil)
	repo.On("GetEaByCode", mock.Anything, "ghost_ea").Return(nil, sql.ErrNoRows)
	repo.On("UpsertTrade", mock.Anything, mock.MatchedBy(func(tr models.Trade) bool {
		return tr.EaID == nil
	})).Return("trade-id", false, nil)

	_, err := svc.Submit(context.Background(), "eak_test", req)
	require.NoError(t, err)
}

func TestTradeSubmit_MissingAPIKey(t *testing.T) {
	svc := newTradeService(new(TradeRepoMock), new(LimiterMock), new(PublisherMock))

	_, err := svc.Submit(context.Background(), "", dummyTrade(models.TradeOpen))
	assert.ErrorIs(t, err, ErrTradeUnauthorized)
}

func TestTradeSubmit_RateLimited(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	svc := newTradeService(repo, limiter, new(PublisherMock))

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).
		Return(ratelimit.Result{Allowed: false}, nil)

	_, err := svc.Submit(context.Background(), "eak_test", dummyTrade(models.TradeOpen))
	assert.ErrorIs(t, err, ErrTradeRateLimited)
	repo.AssertNotCalled(t, "GetUserByAPIKey")
}

func TestTradeSubmit_InactiveUserRejected(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	svc := newTradeService(repo, limiter, new(PublisherMock))

	user := activeUser()
	user.IsActive = false

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(user, nil)

	_, err := svc.Submit(context.Background(), "eak_test", dummyTrade(models.TradeOpen))
	assert.ErrorIs(t, err, ErrTradeUnauthorized)
}

func TestTradeSubmit_UnregisteredAccount(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	svc := newTradeService(repo, limiter, new(PublisherMock))

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(activeUser(), nil)
	repo.On("GetAccountByNumber", mock.Anything, "user-uid", "7000001").Return(nil, sql.ErrNoRows)

	_, err := svc.Submit(context.Background(), "eak_test", dummyTrade(models.TradeOpen))
	assert.ErrorIs(t, err, ErrTradeAccountNotRegistered)
}

func TestTradeSubmit_BadOpenTime(t *testing.T) {
	repo := new(TradeRepoMock)
	limiter := new(LimiterMock)
	svc := newTradeService(repo, limiter, new(PublisherMock))

	req := dummyTrade(models.TradeOpen)
	req.OpenTime = "29.08.2026 10:00"

	limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(allowedResult(), nil)
	repo.On("GetUserByAPIKey", mock.Anything, "eak_test").Return(activeUser(), nil)
	repo.On("GetAccountByNumber", mock.Anything, "user-uid", "7000001").
		Return(&models.MtAccount{ID: "acc-id"}, nil)

	_, err := svc.Submit(context.Background(), "eak_test", req)
	assert.ErrorIs(t, err, ErrTradeInvalid)
	repo.AssertNotCalled(t, "UpsertTrade")
}

func TestTradeList_DefaultsLimit(t *testing.T) {
	repo := new(TradeRepoMock)
	svc := newTradeService(repo, new(LimiterMock), new(PublisherMock))

	repo.On("ListTrades", mock.Anything, "user-uid", mock.MatchedBy(func(f models.TradeFilter) bool {
		return f.Limit == 50 && f.Status == models.TradeOpen
	})).Return([]*models.Trade{}, 0, nil)

	_, total, err := svc.List(context.Background(), "user-uid", models.TradeFilter{Status: models.TradeOpen})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	repo.AssertExpectations(t)
}
