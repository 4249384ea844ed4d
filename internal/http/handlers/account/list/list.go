// Package list реализует HTTP-обработчик списка торговых счетов пользователя.
package list

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
	"github.com/myalgostack/license-server/internal/services"
)

// Service описывает интерфейс бизнес-логики списка счетов.
type Service interface {
	List(ctx context.Context, userUID string) (*services.AccountListing, error)
}

// Handler управляет HTTP-запросами на получение списка счетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// accountView — представление счета в ответе кабинета.
type accountView struct {
	ID              string  `json:"id"`
	AccountNumber   string  `json:"account_number"`
	BrokerName      string  `json:"broker_name"`
	AccountType     string  `json:"account_type"`
	TerminalType    string  `json:"terminal_type"`
	Nickname        *string `json:"nickname,omitempty"`
	IsActive        bool    `json:"is_active"`
	LastValidatedAt *string `json:"last_validated_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ServeHTTP godoc
// @Summary Список торговых счетов
// @Description Возвращает живые счета пользователя и занятость слотов тарифа.
// @Tags Accounts
// @Produce  json
// @Success 200 {object} response.Response "Счета и слоты тарифа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /accounts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.list"
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

	listing, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list accounts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list accounts"))
		return
	}

	views := make([]accountView, 0, len(listing.Accounts))
	for _, account := range listing.Accounts {
		views = append(views, toView(account))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"accounts":   views,
		"slots_used": listing.Used,
		"slots_max":  listing.Max,
	}))
}

func toView(account *models.MtAccount) accountView {
	view := accountView{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		BrokerName:    account.BrokerName,
		AccountType:   account.AccountType,
		TerminalType:  account.TerminalType,
		Nickname:      account.Nickname,
		IsActive:      account.IsActive,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	}
	if account.LastValidatedAt != nil {
		formatted := account.LastValidatedAt.Format(time.RFC3339)
		view.LastValidatedAt = &formatted
	}
	return view
}
