// Package list реализует HTTP-обработчик истории сделок пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/http/middlewarectx"
	"github.com/myalgostack/license-server/internal/http/response"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

// Service описывает интерфейс выборки истории сделок.
type Service interface {
	List(ctx context.Context, userUID string, filter models.TradeFilter) ([]*models.Trade, int, error)
}

// Handler управляет HTTP-запросами на получение истории сделок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// tradeView — представление сделки в ответе кабинета.
type tradeView struct {
	ID          string   `json:"id"`
	MtAccountID string   `json:"mt_account_id"`
	EaID        *string  `json:"ea_id,omitempty"`
	Ticket      int64    `json:"ticket"`
	Symbol      string   `json:"symbol"`
	Type        string   `json:"type"`
	Lots        float64  `json:"lots"`
	OpenPrice   float64  `json:"open_price"`
	ClosePrice  *float64 `json:"close_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	TakeProfit  *float64 `json:"take_profit,omitempty"`
	OpenTime    string   `json:"open_time"`
	CloseTime   *string  `json:"close_time,omitempty"`
	Profit      *float64 `json:"profit,omitempty"`
	Pips        *float64 `json:"pips,omitempty"`
	Swap        float64  `json:"swap"`
	Commission  float64  `json:"commission"`
	Status      string   `json:"status"`
}

// ServeHTTP godoc
// @Summary История сделок
// @Description Возвращает сделки пользователя с фильтрами по статусу, счету и советнику.
// @Tags Trades
// @Produce  json
// @Param status query string false "Фильтр по статусу: OPEN или CLOSED"
// @Param account_id query string false "Фильтр по идентификатору счета"
// @Param ea_id query string false "Фильтр по идентификатору советника"
// @Param limit query int false "Размер страницы, по умолчанию 50"
// @Param offset query int false "Смещение страницы"
// @Success 200 {object} response.Response "Сделки и общее количество"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /trades [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trade.list"
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

	query := r.URL.Query()
	filter := models.TradeFilter{
		Status:      query.Get("status"),
		MtAccountID: query.Get("account_id"),
		EaID:        query.Get("ea_id"),
	}
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))

	trades, total, err := h.service.List(r.Context(), userUID, filter)
	if err != nil {
		log.Error("failed to list trades", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list trades"))
		return
	}

	views := make([]tradeView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, toView(trade))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"trades": views,
		"total":  total,
	}))
}

func toView(trade *models.Trade) tradeView {
	view := tradeView{
		ID:          trade.ID,
		MtAccountID: trade.MtAccountID,
		EaID:        trade.EaID,
		Ticket:      trade.Ticket,
		Symbol:      trade.Symbol,
		Type:        trade.Type,
		Lots:        trade.Lots,
		OpenPrice:   trade.OpenPrice,
		ClosePrice:  trade.ClosePrice,
		StopLoss:    trade.StopLoss,
		TakeProfit:  trade.TakeProfit,
		OpenTime:    trade.OpenTime.Format(time.RFC3339),
		Profit:      trade.Profit,
		Pips:        trade.Pips,
		Swap:        trade.Swap,
		Commission:  trade.Commission,
		Status:      trade.Status,
	}
	if trade.CloseTime != nil {
		formatted := trade.CloseTime.Format(time.RFC3339)
		view.CloseTime = &formatted
	}
	return view
}
