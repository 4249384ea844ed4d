// Package promoupdate реализует HTTP-обработчик изменения промокода.
package promoupdate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
)

// Request — изменяемые поля промокода. Не переданные поля не меняются.
type Request struct {
	IsActive    *bool `json:"is_active"`
	DaysGranted *int  `json:"days_granted"`
	MaxUsages   *int  `json:"max_usages"`
}

// Service описывает интерфейс изменения промокода.
type Service interface {
	Update(ctx context.Context, promoID string, isActive *bool, daysGranted, maxUsages *int) error
}

// Handler управляет HTTP-запросами на изменение промокодов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменить промокод
// @Description Меняет активность, число дней или лимит использований промокода.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор промокода"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Промокод обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/promocodes/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promoupdate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	promoID := chi.URLParam(r, "id")
	if promoID == "" {
		log.Error("promo id missing in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("promo id is required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	err := h.service.Update(r.Context(), promoID, req.IsActive, req.DaysGranted, req.MaxUsages)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("promo code not found", slog.String("promo_id", promoID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("promo code not found"))
			return
		}
		log.Error("failed to update promo code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update promo code"))
		return
	}

	log.Info("promo code updated", slog.String("promo_id", promoID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": true,
	}))
}
