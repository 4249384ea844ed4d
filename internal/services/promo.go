package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myalgostack/license-server/internal/models"
)

// ErrPromoCodeInvalid возвращается для несуществующего, отключенного
// или истекшего промокода.
var ErrPromoCodeInvalid = errors.New("promo code is invalid or expired")

// Интерфейс репозитория промокодов
type PromoRepository interface {
	CreatePromoCode(ctx context.Context, promo models.PromoCode) (string, error)
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
	BumpPromoCodeUsage(ctx context.Context, promoID string) error
	UpdatePromoCode(ctx context.Context, promoID string, isActive *bool, daysGranted, maxUsages *int) error
	ExtendSubscription(ctx context.Context, userUID string, days int, tier *string) error
}

// PromoService управляет промокодами и их применением к подпискам.
type PromoService struct {
	repo PromoRepository
	log  *slog.Logger
}

func NewPromoService(repo PromoRepository, log *slog.Logger) *PromoService {
	return &PromoService{repo: repo, log: log}
}

// Create добавляет промокод. Пустой expires_at означает бессрочный код.
func (s *PromoService) Create(ctx context.Context, req models.DummyPromoCode) (string, error) {
	const op = "services.PromoService.Create"

	promo := models.PromoCode{
		Code:        req.Code,
		Description: req.Description,
		DaysGranted: req.DaysGranted,
		MaxUsages:   req.MaxUsages,
		IsActive:    true,
	}
	if req.SubscriptionTier != "" {
		promo.SubscriptionTier = &req.SubscriptionTier
	}
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("%s: invalid expires_at: %w", op, err)
		}
		promo.ExpiresAt = &parsed
	}

	id, err := s.repo.CreatePromoCode(ctx, promo)
	if err != nil {
		return "", err
	}

	s.log.Info("created promo code", slog.String("code", req.Code))
	return id, nil
}

// List возвращает все промокоды для админ-панели.
func (s *PromoService) List(ctx context.Context) ([]*models.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

// Update изменяет атрибуты промокода; nil-поля не трогаются.
func (s *PromoService) Update(ctx context.Context, promoID string, isActive *bool, daysGranted, maxUsages *int) error {
	return s.repo.UpdatePromoCode(ctx, promoID, isActive, daysGranted, maxUsages)
}

// Redeem применяет промокод: продлевает подписку на daysGranted дней и,
// если код задает тариф, переводит пользователя на него. Счетчик
// использований увеличивается атомарно, гонка за последний слот
// безопасна.
func (s *PromoService) Redeem(ctx context.Context, userUID, code string) (*models.PromoCode, error) {
	const op = "services.PromoService.Redeem"

	promo, err := s.repo.GetPromoCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromoCodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !promo.IsActive {
		return nil, ErrPromoCodeInvalid
	}
	if promo.ExpiresAt != nil && !promo.ExpiresAt.After(time.Now()) {
		return nil, ErrPromoCodeInvalid
	}

	if err := s.repo.BumpPromoCodeUsage(ctx, promo.ID); err != nil {
		return nil, err
	}

	if err := s.repo.ExtendSubscription(ctx, userUID, promo.DaysGranted, promo.SubscriptionTier); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("redeemed promo code",
		slog.String("user_uid", userUID),
		slog.String("code", code))
	return promo, nil
}
