// Package promolist реализует HTTP-обработчик списка промокодов.
package promolist

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс списка промокодов.
type Service interface {
	List(ctx context.Context) ([]*models.PromoCode, error)
}

// Handler управляет HTTP-запросами на получение промокодов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// promoView — представление промокода в админ-панели.
type promoView struct {
	ID               string  `json:"id"`
	Code             string  `json:"code"`
	Description      string  `json:"description"`
	DaysGranted      int     `json:"days_granted"`
	SubscriptionTier *string `json:"subscription_tier,omitempty"`
	MaxUsages        int     `json:"max_usages"`
	UsageCount       int     `json:"usage_count"`
	IsActive         bool    `json:"is_active"`
	ExpiresAt        *string `json:"expires_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ServeHTTP godoc
// @Summary Список промокодов
// @Description Возвращает все промокоды со счетчиками использований.
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response "Список промокодов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/promocodes [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promolist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	promos, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list promo codes", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list promo codes"))
		return
	}

	views := make([]promoView, 0, len(promos))
	for _, promo := range promos {
		view := promoView{
			ID:               promo.ID,
			Code:             promo.Code,
			Description:      promo.Description,
			DaysGranted:      promo.DaysGranted,
			SubscriptionTier: promo.SubscriptionTier,
			MaxUsages:        promo.MaxUsages,
			UsageCount:       promo.UsageCount,
			IsActive:         promo.IsActive,
			CreatedAt:        promo.CreatedAt.Format(time.RFC3339),
		}
		if promo.ExpiresAt != nil {
			formatted := promo.ExpiresAt.Format(time.RFC3339)
			view.ExpiresAt = &formatted
		}
		views = append(views, view)
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"promocodes": views,
	}))
}
