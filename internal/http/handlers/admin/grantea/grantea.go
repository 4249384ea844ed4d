// Package grantea реализует HTTP-обработчик выдачи доступа к советнику.
//
// Повторная выдача тому же пользователю обновляет срок действия
// существующего доступа.
package grantea

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс выдачи доступа к советнику.
type Service interface {
	Grant(ctx context.Context, userUID string, req models.DummyGrant) (string, error)
}

// Handler управляет HTTP-запросами на выдачу доступов.
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
// @Summary Выдать доступ к советнику
// @Description Выдает пользователю доступ к советнику, опционально со сроком действия. Повторная выдача обновляет срок.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body models.DummyGrant true "Советник и срок доступа"
// @Success 200 {object} response.Response "Доступ выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid}/grants [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grantea"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if userUID == "" {
		log.Error("user uid missing in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user uid is required"))
		return
	}

	var req models.DummyGrant
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

	grantID, err := h.service.Grant(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to grant ea access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant ea access"))
		return
	}

	log.Info("ea access granted",
		slog.String("user_uid", userUID),
		slog.String("ea_id", req.EaID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"grant_id": grantID,
	}))
}
