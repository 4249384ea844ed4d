// Package regenerate реализует HTTP-обработчик перевыпуска учетных данных API.
//
// Перевыпуск немедленно инвалидирует старый ключ: советники с прежним
// ключом начнут получать отказ INVALID_CREDENTIALS.
package regenerate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
)

// Service описывает интерфейс перевыпуска учетных данных API.
type Service interface {
	RegenerateCredentials(ctx context.Context, userUID string) (apiKey, apiSecret string, err error)
}

// Handler управляет HTTP-запросами на перевыпуск учетных данных.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Перевыпуск учетных данных API
// @Description Генерирует новые ключ и секрет API. Старый ключ перестает действовать немедленно.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Новые учетные данные"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /credentials/regenerate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credentials.regenerate"
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

	apiKey, apiSecret, err := h.service.RegenerateCredentials(r.Context(), userUID)
	if err != nil {
		log.Error("failed to regenerate credentials", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not regenerate credentials"))
		return
	}

	log.Info("credentials regenerated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}))
}
