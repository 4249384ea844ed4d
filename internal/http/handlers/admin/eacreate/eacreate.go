// Package eacreate реализует HTTP-обработчик добавления советника в каталог.
package eacreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс добавления советника.
type Service interface {
	CreateEa(ctx context.Context, req models.DummyEa) (string, error)
}

// Handler управляет HTTP-запросами на добавление советников.
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
// @Summary Добавить советника в каталог
// @Description Создает запись советника. Код советника глобально уникален.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyEa true "Данные советника"
// @Success 200 {object} response.Response "Советник создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/eas [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.eacreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEa
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

	id, err := h.service.CreateEa(r.Context(), req)
	if err != nil {
		log.Error("failed to create ea", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create expert advisor"))
		return
	}

	log.Info("ea created", slog.String("ea_id", id), slog.String("ea_code", req.EaCode))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"ea_id": id,
	}))
}
