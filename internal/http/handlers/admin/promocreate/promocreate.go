// Package promocreate реализует HTTP-обработчик создания промокода.
package promocreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

// Service описывает интерфейс создания промокода.
type Service interface {
	Create(ctx context.Context, req models.DummyPromoCode) (string, error)
}

// Handler управляет HTTP-запросами на создание промокодов.
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
// @Summary Создать промокод
// @Description Создает промокод, выдающий дни подписки и, опционально, тариф.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyPromoCode true "Данные промокода"
// @Success 200 {object} response.Response "Промокод создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата"
// @Failure 409 {object} response.ErrorResponse "Промокод уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/promocodes [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promocreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPromoCode
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

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrPromoCodeExists) {
			log.Error("promo code already exists", slog.String("code", req.Code))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("promo code already exists"))
			return
		}
		log.Error("failed to create promo code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create promo code"))
		return
	}

	log.Info("promo code created", slog.String("promo_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"promo_id": id,
	}))
}
