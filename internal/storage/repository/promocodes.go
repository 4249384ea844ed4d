package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/myalgostack/license-server/internal/models"
)

// ErrPromoCodeExists возвращается при попытке создать промокод с уже
// занятым кодом.
var ErrPromoCodeExists = errors.New("promo code already exists")

// ErrPromoCodeExhausted возвращается, когда лимит использований
// промокода исчерпан.
var ErrPromoCodeExhausted = errors.New("promo code usage limit reached")

func scanPromoCode(row *sql.Row) (*models.PromoCode, error) {
	p := &models.PromoCode{}
	var tier sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Code, &p.Description, &p.DaysGranted, &tier,
		&p.MaxUsages, &p.UsageCount, &p.IsActive, &expiresAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if tier.Valid {
		p.SubscriptionTier = &tier.String
	}
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	return p, nil
}

// CreatePromoCode сохраняет новый промокод и возвращает его ID.
func (s *Storage) CreatePromoCode(ctx context.Context, promo models.PromoCode) (string, error) {
	const op = "storage.CreatePromoCode"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO promo_codes (code, description, days_granted, subscription_tier,
			      max_usages, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query, promo.Code, promo.Description,
		promo.DaysGranted, promo.SubscriptionTier, promo.MaxUsages, promo.ExpiresAt).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrPromoCodeExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPromoCode возвращает промокод по коду.
func (s *Storage) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const op = "storage.GetPromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, code, description, days_granted, subscription_tier, max_usages,
			      usage_count, is_active, expires_at, created_at
			  FROM promo_codes
			  WHERE code = $1`
	p, err := scanPromoCode(s.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPromoCodes возвращает все промокоды, новые сверху.
func (s *Storage) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	const op = "storage.ListPromoCodes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, code, description, days_granted, subscription_tier, max_usages,
			      usage_count, is_active, expires_at, created_at
			  FROM promo_codes
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.PromoCode
	for rows.Next() {
		var p models.PromoCode
		var tier sql.NullString
		var expiresAt sql.NullTime
		if err = rows.Scan(&p.ID, &p.Code, &p.Description, &p.DaysGranted, &tier,
			&p.MaxUsages, &p.UsageCount, &p.IsActive, &expiresAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if tier.Valid {
			p.SubscriptionTier = &tier.String
		}
		if expiresAt.Valid {
			p.ExpiresAt = &expiresAt.Time
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// BumpPromoCodeUsage атомарно увеличивает счетчик использований,
// уважая лимит MaxUsages (0 — без лимита).
func (s *Storage) BumpPromoCodeUsage(ctx context.Context, promoID string) error {
	const op = "storage.BumpPromoCodeUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE promo_codes SET usage_count = usage_count + 1
			  WHERE id = $1 AND (max_usages = 0 OR usage_count < max_usages)`
	res, err := s.DB.ExecContext(ctx, query, promoID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrPromoCodeExhausted)
	}
	return nil
}

// UpdatePromoCode обновляет атрибуты промокода.
func (s *Storage) UpdatePromoCode(ctx context.Context, promoID string, isActive *bool, daysGranted, maxUsages *int) error {
	const op = "storage.UpdatePromoCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE promo_codes
			  SET is_active = COALESCE($1, is_active),
			      days_granted = COALESCE($2, days_granted),
			      max_usages = COALESCE($3, max_usages)
			  WHERE id = $4`
	if _, err := s.DB.ExecContext(ctx, query, isActive, daysGranted, maxUsages, promoID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
