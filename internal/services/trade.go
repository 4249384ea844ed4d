package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/metrics"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/rabbitmq"
	"github.com/myalgostack/license-server/internal/ratelimit"
)

// Ошибки приема телеметрии. Хендлер транслирует их в статусы HTTP.
var (
	ErrTradeUnauthorized         = errors.New("invalid or inactive user")
	ErrTradeRateLimited          = errors.New("rate limit exceeded")
	ErrTradeAccountNotRegistered = errors.New("account not registered")
	ErrTradeInvalid              = errors.New("invalid trade payload")
)

// Интерфейс репозитория телеметрии сделок
type TradeRepository interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	GetAccountByNumber(ctx context.Context, userUID, accountNumber string) (*models.MtAccount, error)
	GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error)
	UpsertTrade(ctx context.Context, trade models.Trade) (string, bool, error)
	ListTrades(ctx context.Context, userUID string, filter models.TradeFilter) ([]*models.Trade, int, error)
}

// TradeService принимает телеметрию от советников и отдает историю
// сделок в кабинет. Советники аутентифицируются ключом API, как при
// валидации лицензии.
type TradeService struct {
	repo      TradeRepository
	limiter   ratelimit.Limiter
	limitCfg  ratelimit.Config
	publisher EventPublisher
	validate  *validator.Validate
	log       *slog.Logger
}

func NewTradeService(repo TradeRepository, limiter ratelimit.Limiter, limitCfg ratelimit.Config, publisher EventPublisher, log *slog.Logger) *TradeService {
	return &TradeService{
		repo:      repo,
		limiter:   limiter,
		limitCfg:  limitCfg,
		publisher: publisher,
		validate:  validator.New(),
		log:       log,
	}
}

// SubmitResult — итог приема одной сделки.
type SubmitResult struct {
	TradeID string
	Updated bool
}

// Submit сохраняет сделку. Повторная отправка тикета обновляет запись:
// так советник закрывает сделку. Закрытие публикует событие для
// рассылки уведомлений.
func (s *TradeService) Submit(ctx context.Context, apiKey string, req models.DummyTrade) (*SubmitResult, error) {
	const op = "services.TradeService.Submit"

	if apiKey == "" {
		return nil, ErrTradeUnauthorized
	}

	rl, err := s.limiter.Check(ctx, "trades:"+apiKey, s.limitCfg)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing request", sl.Err(err))
	}
	if !rl.Allowed {
		metrics.RecordRateLimitRejection("trades")
		return nil, ErrTradeRateLimited
	}

	user, err := s.repo.GetUserByAPIKey(ctx, apiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTradeUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive || !user.IsApproved {
		return nil, ErrTradeUnauthorized
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeInvalid, err.Error())
	}

	account, err := s.repo.GetAccountByNumber(ctx, user.UID, req.AccountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTradeAccountNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	trade, err := buildTrade(user.UID, account.ID, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeInvalid, err.Error())
	}

	// Неизвестный код советника не мешает приему сделки
	if req.EaCode != "" {
		ea, err := s.repo.GetEaByCode(ctx, req.EaCode)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ea != nil {
			trade.EaID = &ea.ID
		}
	}

	tradeID, updated, err := s.repo.UpsertTrade(ctx, *trade)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	operation := "open"
	if updated {
		operation = "update"
	}
	metrics.RecordTrade(operation)

	if req.Status == models.TradeClosed {
		s.publishEvent(user, account, req)
	}

	s.log.Info("trade recorded",
		slog.String("user_uid", user.UID),
		slog.Int64("ticket", req.Ticket),
		slog.Bool("updated", updated))
	return &SubmitResult{TradeID: tradeID, Updated: updated}, nil
}

// List возвращает сделки пользователя с фильтрами кабинета.
func (s *TradeService) List(ctx context.Context, userUID string, filter models.TradeFilter) ([]*models.Trade, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListTrades(ctx, userUID, filter)
}

func (s *TradeService) publishEvent(user *models.User, account *models.MtAccount, req models.DummyTrade) {
	if s.publisher == nil {
		return
	}
	event := models.TradeClosedEvent{
		Email:         user.Email,
		Username:      user.Username,
		AccountNumber: account.AccountNumber,
		Symbol:        req.Symbol,
		Ticket:        req.Ticket,
		Profit:        req.Profit,
	}
	if err := s.publisher.Publish(rabbitmq.TradeClosedKey, event); err != nil {
		s.log.Error("failed to publish trade closed event", sl.Err(err))
	}
}

func buildTrade(userUID, accountID string, req models.DummyTrade) (*models.Trade, error) {
	openTime, err := time.Parse(time.RFC3339, req.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("invalid open_time: %w", err)
	}

	var closeTime *time.Time
	if req.CloseTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.CloseTime)
		if err != nil {
			return nil, fmt.Errorf("invalid close_time: %w", err)
		}
		closeTime = &parsed
	}

	return &models.Trade{
		UserUID:     userUID,
		MtAccountID: accountID,
		Ticket:      req.Ticket,
		Symbol:      req.Symbol,
		Type:        req.Type,
		Lots:        req.Lots,
		OpenPrice:   req.OpenPrice,
		ClosePrice:  req.ClosePrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		OpenTime:    openTime,
		CloseTime:   closeTime,
		Profit:      req.Profit,
		Pips:        req.Pips,
		Swap:        req.Swap,
		Commission:  req.Commission,
		Status:      req.Status,
	}, nil
}
