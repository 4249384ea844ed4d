// Package remove реализует HTTP-обработчик отвязки торгового счета.
//
// Счет удаляется мягко: запись остается в базе, а номер счета можно
// привязать заново.
package remove

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отвязки счета.
type Service interface {
	Remove(ctx context.Context, userUID, accountID string) error
}

// Handler управляет HTTP-запросами на отвязку торговых счетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отвязать торговый счет
// @Description Мягко удаляет счет пользователя. Валидация лицензий с этого счета прекращается.
// @Tags Accounts
// @Produce  json
// @Param id path string true "Идентификатор счета"
// @Success 200 {object} response.Response "Счет отвязан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Счет не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.remove"
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

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		log.Error("account id missing in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("account id is required"))
		return
	}

	if err := h.service.Remove(r.Context(), userUID, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("account not found", slog.String("account_id", accountID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to remove account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove account"))
		return
	}

	log.Info("account removed", slog.String("account_id", accountID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"removed": true,
	}))
}
