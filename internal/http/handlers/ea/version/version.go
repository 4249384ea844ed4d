// Package version реализует HTTP-обработчик проверки версии советника.
//
// Советник передает свой код и текущую версию в query-параметрах и
// узнает, доступно ли обновление. Сравнение версий семантическое.
package version

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/services"
)

// Service описывает интерфейс проверки версии советника.
type Service interface {
	CheckVersion(ctx context.Context, eaCode, clientVersion string) (*services.VersionInfo, error)
}

// Handler управляет HTTP-запросами на проверку версии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка версии советника
// @Description Сравнивает версию советника клиента с текущей версией каталога.
// @Tags EAs
// @Produce  json
// @Param ea_code query string true "Код советника"
// @Param version query string true "Версия советника у клиента"
// @Success 200 {object} response.Response "Информация о версии"
// @Failure 400 {object} response.ErrorResponse "Не переданы параметры"
// @Failure 404 {object} response.ErrorResponse "Советник не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /eas/version [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ea.version"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	eaCode := r.URL.Query().Get("ea_code")
	clientVersion := r.URL.Query().Get("version")
	if eaCode == "" || clientVersion == "" {
		log.Error("missing query parameters")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("ea_code and version are required"))
		return
	}

	info, err := h.service.CheckVersion(r.Context(), eaCode, clientVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("ea not found", slog.String("ea_code", eaCode))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("expert advisor not found"))
			return
		}
		log.Error("failed to check version", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check version"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"ea_code":          info.EaCode,
		"current_version":  info.CurrentVersion,
		"update_available": info.UpdateAvailable,
	}))
}
