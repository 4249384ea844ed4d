// Package logs реализует HTTP-обработчик журнала валидаций для админ-панели.
package logs

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

// Service описывает интерфейс выборки журнала валидаций.
type Service interface {
	ListLogs(ctx context.Context, filter repository.ValidationLogFilter) ([]*models.ValidationLog, int, error)
}

// Handler управляет HTTP-запросами на получение журнала валидаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// logView — представление записи журнала в админ-панели.
type logView struct {
	ID            string  `json:"id"`
	UserUID       string  `json:"user_uid"`
	AccountNumber string  `json:"account_number"`
	BrokerName    string  `json:"broker_name"`
	EaCode        string  `json:"ea_code"`
	EaVersion     string  `json:"ea_version"`
	TerminalType  string  `json:"terminal_type"`
	IPAddress     string  `json:"ip_address"`
	Result        string  `json:"result"`
	FailureReason *string `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ServeHTTP godoc
// @Summary Журнал валидаций лицензий
// @Description Возвращает страницу журнала валидаций с поиском по счету, брокеру или коду советника.
// @Tags Admin
// @Produce  json
// @Param search query string false "Подстрока в номере счета, брокере или коде советника"
// @Param result query string false "Фильтр по результату: SUCCESS или FAILED"
// @Param limit query int false "Размер страницы, по умолчанию 50"
// @Param offset query int false "Смещение страницы"
// @Success 200 {object} response.Response "Записи журнала и общее количество"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/validation-logs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logs"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	filter := repository.ValidationLogFilter{
		Search: query.Get("search"),
		Result: query.Get("result"),
	}
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))

	entries, total, err := h.service.ListLogs(r.Context(), filter)
	if err != nil {
		log.Error("failed to list validation logs", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list validation logs"))
		return
	}

	views := make([]logView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, logView{
			ID:            entry.ID,
			UserUID:       entry.UserUID,
			AccountNumber: entry.AccountNumber,
			BrokerName:    entry.BrokerName,
			EaCode:        entry.EaCode,
			EaVersion:     entry.EaVersion,
			TerminalType:  entry.TerminalType,
			IPAddress:     entry.IPAddress,
			Result:        entry.Result,
			FailureReason: entry.FailureReason,
			CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"logs":  views,
		"total": total,
	}))
}
