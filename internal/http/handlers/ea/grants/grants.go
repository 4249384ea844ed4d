// Package grants реализует HTTP-обработчик списка доступов пользователя
// к советникам.
package grants

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс списка доступов к советникам.
type Service interface {
	ListGrants(ctx context.Context, userUID string) ([]*models.EaGrant, error)
}

// Handler управляет HTTP-запросами на получение доступов пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// grantView — представление доступа к советнику в ответе кабинета.
type grantView struct {
	ID        string  `json:"id"`
	EaID      string  `json:"ea_id"`
	IsEnabled bool    `json:"is_enabled"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ServeHTTP godoc
// @Summary Доступы пользователя к советникам
// @Description Возвращает выданные пользователю доступы к советникам вместе со сроками действия.
// @Tags EAs
// @Produce  json
// @Success 200 {object} response.Response "Список доступов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /eas/grants [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ea.grants"
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

	grants, err := h.service.ListGrants(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list grants", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list grants"))
		return
	}

	views := make([]grantView, 0, len(grants))
	for _, grant := range grants {
		view := grantView{
			ID:        grant.ID,
			EaID:      grant.EaID,
			IsEnabled: grant.IsEnabled,
			CreatedAt: grant.CreatedAt.Format(time.RFC3339),
		}
		if grant.ExpiresAt != nil {
			formatted := grant.ExpiresAt.Format(time.RFC3339)
			view.ExpiresAt = &formatted
		}
		views = append(views, view)
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"grants": views,
	}))
}
