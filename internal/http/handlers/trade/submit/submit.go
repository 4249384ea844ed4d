// Package submit реализует HTTP-обработчик приёма торговой телеметрии.
//
// Советник отправляет сделки с ключом API в заголовке X-API-Key. Повторная
// отправка того же тикета обновляет запись, так советник закрывает сделку.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/services"
)

// Service описывает интерфейс бизнес-логики приёма телеметрии.
type Service interface {
	Submit(ctx context.Context, apiKey string, req models.DummyTrade) (*services.SubmitResult, error)
}

// Handler управляет HTTP-запросами на приём телеметрии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// submitResponse — проводной формат ответа на телеметрию.
type submitResponse struct {
	Success bool   `json:"success"`
	TradeID string `json:"tradeId,omitempty"`
	Updated bool   `json:"updated,omitempty"`
	Message string `json:"message,omitempty"`
}

// ServeHTTP godoc
// @Summary Приём торговой телеметрии
// @Description Сохраняет сделку советника. Повторная отправка тикета обновляет запись.
// @Tags Trades
// @Accept  json
// @Produce  json
// @Param X-API-Key header string true "Ключ API пользователя"
// @Param request body models.DummyTrade true "Данные сделки"
// @Success 200 {object} submitResponse "Сделка сохранена"
// @Failure 400 {object} submitResponse "Некорректные данные сделки"
// @Failure 401 {object} submitResponse "Неверный ключ API"
// @Failure 403 {object} submitResponse "Счет не привязан"
// @Failure 429 {object} submitResponse "Превышен лимит запросов"
// @Router /trades [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trade.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	apiKey := r.Header.Get("X-API-Key")

	var req models.DummyTrade
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, submitResponse{Success: false, Message: "Invalid request body"})
		return
	}

	result, err := h.service.Submit(r.Context(), apiKey, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTradeUnauthorized):
			log.Error("unauthorized trade submission")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, submitResponse{Success: false, Message: "Unauthorized"})
		case errors.Is(err, services.ErrTradeRateLimited):
			log.Error("trade submission rate limited")
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, submitResponse{Success: false, Message: "Rate limit exceeded. Please try again later."})
		case errors.Is(err, services.ErrTradeAccountNotRegistered):
			log.Error("account not registered", slog.String("account_number", req.AccountNumber))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, submitResponse{Success: false, Message: "Account not registered"})
		case errors.Is(err, services.ErrTradeInvalid):
			log.Error("invalid trade payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, submitResponse{Success: false, Message: tradeErrorMessage(err)})
		default:
			log.Error("failed to store trade", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, submitResponse{Success: false, Message: "Internal server error"})
		}
		return
	}

	log.Info("trade stored",
		slog.String("trade_id", result.TradeID),
		slog.Bool("updated", result.Updated))
	render.JSON(w, r, submitResponse{
		Success: true,
		TradeID: result.TradeID,
		Updated: result.Updated,
	})
}

// tradeErrorMessage отрезает префикс сентинельной ошибки, оставляя
// детали валидации для клиента.
func tradeErrorMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
