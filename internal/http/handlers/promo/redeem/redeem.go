// Package redeem реализует HTTP-обработчик активации промокода.
//
// Успешная активация продлевает подписку пользователя на число дней
// промокода и, при наличии, переводит на указанный тариф.
package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/services"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

// Request — входные данные для активации промокода
type Request struct {
	Code string `json:"code" validate:"required"`
}

// Service описывает интерфейс бизнес-логики активации промокода.
type Service interface {
	Redeem(ctx context.Context, userUID, code string) (*models.PromoCode, error)
}

// Handler управляет HTTP-запросами на активацию промокодов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активация промокода
// @Description Активирует промокод и продлевает подписку на число дней промокода.
// @Tags Promo
// @Accept  json
// @Produce  json
// @Param request body Request true "Промокод"
// @Success 200 {object} response.Response "Промокод активирован"
// @Failure 400 {object} response.ErrorResponse "Промокод недействителен или исчерпан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /promo/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.redeem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	promo, err := h.service.Redeem(r.Context(), userUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPromoCodeInvalid):
			log.Error("invalid promo code", slog.String("code", req.Code))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("promo code is invalid or expired"))
		case errors.Is(err, repository.ErrPromoCodeExhausted):
			log.Error("promo code exhausted", slog.String("code", req.Code))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("promo code usage limit reached"))
		default:
			log.Error("failed to redeem promo code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not redeem promo code"))
		}
		return
	}

	log.Info("promo code redeemed",
		slog.String("user_uid", userUID),
		slog.String("code", req.Code))
	data := map[string]any{
		"days_granted": promo.DaysGranted,
	}
	if promo.SubscriptionTier != nil {
		data["subscription_tier"] = *promo.SubscriptionTier
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
