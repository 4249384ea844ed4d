// Package list реализует HTTP-обработчик каталога активных советников.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс каталога советников.
type Service interface {
	ListActive(ctx context.Context) ([]*models.ExpertAdvisor, error)
}

// Handler управляет HTTP-запросами на получение каталога советников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// eaView — представление советника в каталоге.
type eaView struct {
	ID             string `json:"id"`
	EaCode         string `json:"ea_code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CurrentVersion string `json:"current_version"`
}

// ServeHTTP godoc
// @Summary Каталог активных советников
// @Description Возвращает активных советников каталога. Результат кэшируется.
// @Tags EAs
// @Produce  json
// @Success 200 {object} response.Response "Список советников"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /eas [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ea.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	eas, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list eas", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list expert advisors"))
		return
	}

	views := make([]eaView, 0, len(eas))
	for _, ea := range eas {
		views = append(views, eaView{
			ID:             ea.ID,
			EaCode:         ea.EaCode,
			Name:           ea.Name,
			Description:    ea.Description,
			CurrentVersion: ea.CurrentVersion,
		})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"eas": views,
	}))
}
