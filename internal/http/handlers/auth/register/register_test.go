package register_test

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

	"github.com/myalgostack/license-server/internal/http/handlers/auth/register"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, username, email, rawPassword, referredByCode string) (string, error) {
	args := m.Called(ctx, username, email, rawPassword, referredByCode)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockUID        string
		mockErr        error
		wantStatusCode int
		wantCall       bool
	}{
		{
			name:           "success",
			body:           `{"username":"trader1","password":"secret12","email":"trader1@example.com"}`,
			mockUID:        "user-uid",
			wantStatusCode: http.StatusOK,
			wantCall:       true,
		},
		{
			name:           "success with referral code",
			body:           `{"username":"trader2","password":"secret12","email":"trader2@example.com","referral_code":"REF12345"}`,
			mockUID:        "other-uid",
			wantStatusCode: http.StatusOK,
			wantCall:       true,
		},
		{
			name:           "duplicate user",
			body:           `{"username":"trader1","password":"secret12","email":"trader1@example.com"}`,
			mockErr:        repository.ErrUserExists,
			wantStatusCode: http.StatusConflict,
			wantCall:       true,
		},
		{
			name:           "invalid json",
			body:           `{broken`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing email",
			body:           `{"username":"trader1","password":"secret12"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "short password",
			body:           `{"username":"trader1","password":"abc","email":"trader1@example.com"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(AuthServiceMock)
			if tt.wantCall {
				serviceMock.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(tt.mockUID, tt.mockErr).Once()
			}
			handler := register.New(newNoopLogger(), serviceMock)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantStatusCode == http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "OK", resp["status"])
				data := resp["data"].(map[string]any)
				assert.Equal(t, tt.mockUID, data["user_uid"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
