// Package create реализует HTTP-обработчик привязки торгового счета.
//
// Handler принимает JSON-запрос с данными счета, валидирует их, извлекает
// UID пользователя из контекста и привязывает счет через сервис счетов.
// Лимит счетов определяется тарифом подписки пользователя.
package create

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

// Service описывает интерфейс бизнес-логики привязки счета.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummyAccount) (string, error)
}

// Handler управляет HTTP-запросами на привязку торговых счетов.
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
// @Summary Привязать торговый счет
// @Description Привязывает торговый счет к пользователю. Лимит счетов определяется тарифом подписки.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Param request body models.DummyAccount true "Данные торгового счета"
// @Success 200 {object} response.Response "Счет привязан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Счет уже привязан или лимит исчерпан"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /accounts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAccount
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

	id, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountLimitReached):
			log.Error("account limit reached", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("account limit for your subscription tier reached"))
		case errors.Is(err, repository.ErrAccountExists):
			log.Error("account already registered", slog.String("account_number", req.AccountNumber))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("account already registered"))
		default:
			log.Error("failed to link account", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not link account"))
		}
		return
	}

	log.Info("account linked", slog.String("account_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"account_id": id,
	}))
}
