// Package eaupdate реализует HTTP-обработчик изменения советника в каталоге.
//
// Смена текущей версии каталога включает флаг updateAvailable у клиентов
// со старыми версиями.
package eaupdate

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

// Request — изменяемые поля советника. Не переданные поля не меняются.
type Request struct {
	CurrentVersion *string `json:"current_version"`
	IsActive       *bool   `json:"is_active"`
	Description    *string `json:"description"`
}

// Service описывает интерфейс изменения советника.
type Service interface {
	UpdateEa(ctx context.Context, eaID string, currentVersion *string, isActive *bool, description *string) error
}

// Handler управляет HTTP-запросами на изменение советников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменить советника
// @Description Меняет версию, активность или описание советника каталога.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор советника"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Советник обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Советник не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/eas/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.eaupdate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	eaID := chi.URLParam(r, "id")
	if eaID == "" {
		log.Error("ea id missing in path")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("ea id is required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	err := h.service.UpdateEa(r.Context(), eaID, req.CurrentVersion, req.IsActive, req.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Error("ea not found", slog.String("ea_id", eaID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("expert advisor not found"))
			return
		}
		log.Error("failed to update ea", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update expert advisor"))
		return
	}

	log.Info("ea updated", slog.String("ea_id", eaID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": true,
	}))
}
