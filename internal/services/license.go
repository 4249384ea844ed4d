package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/metrics"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/ratelimit"
)

// Интерфейс репозитория для валидации лицензий
type LicenseRepository interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error)
	GetEnabledGrant(ctx context.Context, userUID, eaID string) (*models.EaGrant, error)
	GetAccountByNumber(ctx context.Context, userUID, accountNumber string) (*models.MtAccount, error)
	TouchAccountValidation(ctx context.Context, accountID string, at time.Time) error
	CreateValidationLog(ctx context.Context, entry models.ValidationLog) error
}

// LicenseService выполняет цепочку проверок лицензии советника.
// Порядок проверок фиксирован: лимит запросов, ключ API, статус
// пользователя, тело запроса, советник, доступ, срок доступа, счет,
// статус счета. Каждый отказ соответствует ровно одному коду ошибки.
type LicenseService struct {
	repo             LicenseRepository
	limiter          ratelimit.Limiter
	limitCfg         ratelimit.Config
	gracePeriodHours int
	validate         *validator.Validate
	log              *slog.Logger
}

// ValidationResult — терминальное состояние цепочки проверок.
// RateLimit заполняется только при отказе по лимиту запросов.
type ValidationResult struct {
	Valid            bool
	StatusCode       int
	ErrorCode        string
	Message          string
	GracePeriodHours int
	ServerTime       time.Time
	RateLimit        *ratelimit.Result
}

func NewLicenseService(repo LicenseRepository, limiter ratelimit.Limiter, limitCfg ratelimit.Config, gracePeriodHours int, log *slog.Logger) *LicenseService {
	return &LicenseService{
		repo:             repo,
		limiter:          limiter,
		limitCfg:         limitCfg,
		gracePeriodHours: gracePeriodHours,
		validate:         validator.New(),
		log:              log,
	}
}

// Validate проверяет лицензию советника и журналирует попытку.
// Ошибка возвращается только при сбое хранилища; все отказы по бизнес-
// правилам приходят в ValidationResult. Попытки с неизвестным ключом API
// не журналируются, чтобы не засорять журнал сканом ключей.
func (s *LicenseService) Validate(ctx context.Context, apiKey, ipAddress string, req *models.LicenseRequest) (*ValidationResult, error) {
	const op = "services.LicenseService.Validate"

	if apiKey == "" {
		return s.fail(http.StatusUnauthorized, models.CodeInvalidCredentials, "Missing API Key"), nil
	}

	rl, err := s.limiter.Check(ctx, "validate:"+apiKey, s.limitCfg)
	if err != nil {
		// Бэкенд лимитера недоступен: запрос пропускается
		s.log.Warn("rate limiter unavailable, allowing request", sl.Err(err))
	}
	if !rl.Allowed {
		metrics.RecordRateLimitRejection("validation")
		res := s.fail(http.StatusTooManyRequests, models.CodeRateLimitExceeded, "Rate limit exceeded. Please try again later.")
		res.RateLimit = &rl
		return res, nil
	}

	user, err := s.repo.GetUserByAPIKey(ctx, apiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return s.fail(http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid API Key"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsApproved {
		s.logAttempt(ctx, user.UID, nil, nil, nil, ipAddress, models.CodeUserNotApproved)
		return s.fail(http.StatusForbidden, models.CodeUserNotApproved, "User not approved"), nil
	}
	if !user.IsActive {
		s.logAttempt(ctx, user.UID, nil, nil, nil, ipAddress, models.CodeUserInactive)
		return s.fail(http.StatusForbidden, models.CodeUserInactive, "User account inactive"), nil
	}

	// Тело запроса проверяется только после проверок пользователя,
	// поэтому отказы выше журналируются с полями "unknown"
	if err := s.validate.Struct(req); err != nil {
		return s.fail(http.StatusBadRequest, models.CodeServerError, fmt.Sprintf("Invalid request body: %s", err.Error())), nil
	}

	ea, err := s.repo.GetEaByCode(ctx, req.EaCode)
	if errors.Is(err, sql.ErrNoRows) {
		s.logAttempt(ctx, user.UID, nil, nil, req, ipAddress, models.CodeEaNotFound)
		return s.fail(http.StatusNotFound, models.CodeEaNotFound, "EA not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ea.IsActive {
		s.logAttempt(ctx, user.UID, nil, &ea.ID, req, ipAddress, models.CodeEaInactive)
		return s.fail(http.StatusForbidden, models.CodeEaInactive, "EA is inactive"), nil
	}

	grant, err := s.repo.GetEnabledGrant(ctx, user.UID, ea.ID)
	if errors.Is(err, sql.ErrNoRows) {
		s.logAttempt(ctx, user.UID, nil, &ea.ID, req, ipAddress, models.CodeEaAccessDenied)
		return s.fail(http.StatusForbidden, models.CodeEaAccessDenied, "No access to this EA"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	if grant.ExpiresAt != nil && !grant.ExpiresAt.After(now) {
		s.logAttempt(ctx, user.UID, nil, &ea.ID, req, ipAddress, models.CodeEaAccessExpired)
		return s.fail(http.StatusForbidden, models.CodeEaAccessExpired, "EA access has expired"), nil
	}

	// Счет ищется только по номеру: имя брокера в терминале может
	// отличаться от сохраненного в кабинете
	account, err := s.repo.GetAccountByNumber(ctx, user.UID, req.AccountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		s.logAttempt(ctx, user.UID, nil, &ea.ID, req, ipAddress, models.CodeAccountNotFound)
		return s.fail(http.StatusForbidden, models.CodeAccountNotFound,
			"Account not registered. Add account "+req.AccountNumber+" in your dashboard first."), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !account.IsActive {
		s.logAttempt(ctx, user.UID, &account.ID, &ea.ID, req, ipAddress, models.CodeAccountInactive)
		return s.fail(http.StatusForbidden, models.CodeAccountInactive, "Account is inactive"), nil
	}

	if err := s.repo.TouchAccountValidation(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logSuccess(ctx, user.UID, &account.ID, &ea.ID, req, ipAddress)
	metrics.RecordValidation(models.ValidationSuccess, "")

	return &ValidationResult{
		Valid:            true,
		StatusCode:       http.StatusOK,
		Message:          "License valid",
		GracePeriodHours: s.gracePeriodHours,
		ServerTime:       now,
	}, nil
}

func (s *LicenseService) fail(status int, code, message string) *ValidationResult {
	metrics.RecordValidation(models.ValidationFailed, code)
	return &ValidationResult{
		Valid:      false,
		StatusCode: status,
		ErrorCode:  code,
		Message:    message,
		ServerTime: time.Now(),
	}
}

// logAttempt записывает неуспешную попытку в журнал. Ошибка записи
// логируется и не влияет на ответ клиенту.
func (s *LicenseService) logAttempt(ctx context.Context, userUID string, accountID, eaID *string, req *models.LicenseRequest, ipAddress, failureReason string) {
	s.writeLog(ctx, userUID, accountID, eaID, req, ipAddress, models.ValidationFailed, &failureReason)
}

func (s *LicenseService) logSuccess(ctx context.Context, userUID string, accountID, eaID *string, req *models.LicenseRequest, ipAddress string) {
	s.writeLog(ctx, userUID, accountID, eaID, req, ipAddress, models.ValidationSuccess, nil)
}

func (s *LicenseService) writeLog(ctx context.Context, userUID string, accountID, eaID *string, req *models.LicenseRequest, ipAddress, result string, failureReason *string) {
	entry := models.ValidationLog{
		UserUID:       userUID,
		MtAccountID:   accountID,
		EaID:          eaID,
		AccountNumber: "unknown",
		BrokerName:    "unknown",
		EaCode:        "unknown",
		EaVersion:     "unknown",
		TerminalType:  models.TerminalMT5,
		IPAddress:     ipAddress,
		Result:        result,
		FailureReason: failureReason,
	}
	if req != nil {
		entry.AccountNumber = req.AccountNumber
		entry.BrokerName = req.BrokerName
		entry.EaCode = req.EaCode
		entry.EaVersion = req.EaVersion
		entry.TerminalType = req.TerminalType
	}
	if err := s.repo.CreateValidationLog(ctx, entry); err != nil {
		s.log.Error("failed to write validation log", sl.Err(err))
	}
}
