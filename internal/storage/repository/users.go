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

// ErrUserExists возвращается при регистрации с занятым email или
// username.
var ErrUserExists = errors.New("user already registered")

const userColumns = `uid, email, username, password_hash, role, subscription_tier,
			      is_approved, is_active, api_key, api_secret, referral_code,
			      referred_by_code, trial_ends_at, subscription_expiry, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var referredBy sql.NullString
	var trialEndsAt, subscriptionExpiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.SubscriptionTier, &u.IsApproved, &u.IsActive, &u.APIKey, &u.APISecret,
		&u.ReferralCode, &referredBy, &trialEndsAt, &subscriptionExpiry,
		&u.CreatedAt); err != nil {
		return nil, err
	}
	if referredBy.Valid {
		u.ReferredByCode = &referredBy.String
	}
	if trialEndsAt.Valid {
		u.TrialEndsAt = &trialEndsAt.Time
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash, role, subscription_tier,
			      is_approved, is_active, api_key, api_secret, referral_code,
			      referred_by_code, trial_ends_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.SubscriptionTier,
		user.IsApproved, user.IsActive, user.APIKey, user.APISecret, user.ReferralCode,
		user.ReferredByCode, user.TrialEndsAt).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByAPIKey возвращает владельца ключа API. Ключ отображается
// максимум на одного пользователя (уникальный индекс).
func (s *Storage) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	const op = "storage.GetUserByAPIKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, apiKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByReferralCode возвращает пользователя по реферальному коду.
func (s *Storage) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.GetUserByReferralCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserFlags обновляет административные атрибуты пользователя:
// одобрение, активность, тариф и роль.
func (s *Storage) UpdateUserFlags(ctx context.Context, userUID string, isApproved, isActive *bool, tier, role *string) error {
	const op = "storage.UpdateUserFlags"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_approved = COALESCE($1, is_approved),
			      is_active = COALESCE($2, is_active),
			      subscription_tier = COALESCE($3, subscription_tier),
			      role = COALESCE($4, role)
			  WHERE uid = $5`
	res, err := s.DB.ExecContext(ctx, query, isApproved, isActive, tier, role, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// UpdateUserCredentials заменяет ключ и секрет API пользователя.
func (s *Storage) UpdateUserCredentials(ctx context.Context, userUID, apiKey, apiSecret string) error {
	const op = "storage.UpdateUserCredentials"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET api_key = $1, api_secret = $2 WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, apiKey, apiSecret, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExtendSubscription продлевает подписку пользователя на days дней от
// текущей даты истечения (или от настоящего момента, если подписки нет)
// и опционально меняет тариф. Используется при активации промокода.
func (s *Storage) ExtendSubscription(ctx context.Context, userUID string, days int, tier *string) error {
	const op = "storage.ExtendSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_expiry = GREATEST(COALESCE(subscription_expiry, NOW()), NOW()) + make_interval(days => $1),
			      subscription_tier = COALESCE($2, subscription_tier)
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, days, tier, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers возвращает количество пользователей и число ожидающих
// одобрения. Используется административной статистикой.
func (s *Storage) CountUsers(ctx context.Context) (total, pending int, err error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT is_approved) FROM users`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total, &pending); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, pending, nil
}
