// Package stats реализует HTTP-обработчик реферальной статистики пользователя.
//
// Имена приглашенных анонимизируются до первой буквы.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/services"
)

// Service описывает интерфейс реферальной статистики.
type Service interface {
	Overview(ctx context.Context, userUID string) (*services.ReferralOverview, error)
}

// Handler управляет HTTP-запросами на получение реферальной статистики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Реферальная статистика
// @Description Возвращает реферальный код пользователя, статистику и список приглашенных с анонимизированными именами.
// @Tags Referrals
// @Produce  json
// @Success 200 {object} response.Response "Реферальная статистика"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /referrals/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.referral.stats"
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

	overview, err := h.service.Overview(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load referral stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load referral stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"referral_code": overview.ReferralCode,
		"was_referred":  overview.WasReferred,
		"stats":         overview.Stats,
		"referrals":     overview.Referrals,
	}))
}
