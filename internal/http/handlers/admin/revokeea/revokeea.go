// Package revokeea реализует HTTP-обработчик отзыва доступа к советнику.
//
// Отзыв отключает доступ, не удаляя запись: повторная выдача включит его
// снова.
package revokeea

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
)

// Service описывает интерфейс отзыва доступа к советнику.
type Service interface {
	Revoke(ctx context.Context, userUID, eaID string) error
}

// Handler управляет HTTP-запросами на отзыв доступов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отозвать доступ к советнику
// @Description Отключает доступ пользователя к советнику. Следующая валидация лицензии получит отказ.
// @Tags Admin
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param ea_id path string true "Идентификатор советника"
// @Success 200 {object} response.Response "Доступ отозван"
// @Failure 404 {object} response.ErrorResponse "Доступ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid}/grants/{ea_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revokeea"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	eaID := chi.URLParam(r, "ea_id")
	if userUID == "" || eaID == "" {
		log.Error("path parameters missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user uid and ea id are required"))
		return
	}

	if err := h.service.Revoke(r.Context(), userUID, eaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("grant not found",
				slog.String("user_uid", userUID),
				slog.String("ea_id", eaID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("grant not found"))
			return
		}
		log.Error("failed to revoke ea access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not revoke ea access"))
		return
	}

	log.Info("ea access revoked",
		slog.String("user_uid", userUID),
		slog.String("ea_id", eaID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"revoked": true,
	}))
}
