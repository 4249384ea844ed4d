// Package profile реализует HTTP-обработчик профиля пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс получения профиля пользователя.
type Service interface {
	Profile(ctx context.Context, userUID string) (*models.User, error)
}

// Handler управляет HTTP-запросами на получение профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает данные учетной записи, мягкие сроки подписки и учетные данные API.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load profile"))
		return
	}

	data := map[string]any{
		"username":          user.Username,
		"email":             user.Email,
		"role":              user.Role,
		"subscription_tier": user.SubscriptionTier,
		"is_approved":       user.IsApproved,
		"is_active":         user.IsActive,
		"api_key":           user.APIKey,
		"api_secret":        user.APISecret,
		"referral_code":     user.ReferralCode,
		"created_at":        user.CreatedAt.Format(time.RFC3339),
	}
	if user.TrialEndsAt != nil {
		data["trial_ends_at"] = user.TrialEndsAt.Format(time.RFC3339)
	}
	if user.SubscriptionExpiry != nil {
		data["subscription_expiry"] = user.SubscriptionExpiry.Format(time.RFC3339)
	}

	render.JSON(w, r, response.StatusOKWithData(data))
}
