package submit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/http/handlers/trade/submit"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/services"
)

type TradeServiceMock struct {
	mock.Mock
}

func (m *TradeServiceMock) Submit(ctx context.Context, apiKey string, req models.DummyTrade) (*services.SubmitResult, error) {
	args := m.Called(ctx, apiKey, req)
	result, _ := args.Get(0).(*services.SubmitResult)
	return result, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const tradeBody = `{
	"account_number": "7000001",
	"ticket": 555001,
	"symbol": "EURUSD",
	"type": "BUY",
	"lots": 0.1,
	"open_price": 1.0865,
	"open_time": "2026-03-14T09:30:00Z",
	"status": "OPEN"
}`

func TestSubmitHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockResult     *services.SubmitResult
		mockErr        error
		wantStatusCode int
		wantCall       bool
	}{
		{
			name:           "stores trade",
			body:           tradeBody,
			mockResult:     &services.SubmitResult{TradeID: "trade-id", Updated: false},
			wantStatusCode: http.StatusOK,
			wantCall:       true,
		},
		{
			name:           "updates trade",
			body:           tradeBody,
			mockResult:     &services.SubmitResult{TradeID: "trade-id", Updated: true},
			wantStatusCode: http.StatusOK,
			wantCall:       true,
		},
		{
			name:           "unauthorized",
			body:           tradeBody,
			mockErr:        services.ErrTradeUnauthorized,
			wantStatusCode: http.StatusUnauthorized,
			wantCall:       true,
		},
		{
			name:           "rate limited",
			body:           tradeBody,
			mockErr:        services.ErrTradeRateLimited,
			wantStatusCode: http.StatusTooManyRequests,
			wantCall:       true,
		},
		{
			name:           "account not registered",
			body:           tradeBody,
			mockErr:        services.ErrTradeAccountNotRegistered,
			wantStatusCode: http.StatusForbidden,
			wantCall:       true,
		},
		{
			name:           "invalid json",
			body:           `{broken`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(TradeServiceMock)
			if tt.wantCall {
				serviceMock.On("Submit", mock.Anything, "eak_test", mock.Anything).
					Return(tt.mockResult, tt.mockErr).Once()
			}
			handler := submit.New(newNoopLogger(), serviceMock)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/trades", strings.NewReader(tt.body))
			req.Header.Set("X-API-Key", "eak_test")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.mockResult != nil {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, true, resp["success"])
				assert.Equal(t, tt.mockResult.TradeID, resp["tradeId"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
