package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/myalgostack/license-server/internal/models"
)

// GetEnabledGrant возвращает включённый доступ пользователя к советнику.
// Отключённый доступ неотличим от отсутствующего: обе ситуации дают
// sql.ErrNoRows. Истечение срока проверяет вызывающая сторона.
func (s *Storage) GetEnabledGrant(ctx context.Context, userUID, eaID string) (*models.EaGrant, error) {
	const op = "storage.GetEnabledGrant"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, ea_id, is_enabled, expires_at, created_at
			  FROM user_ea_access
			  WHERE user_uid = $1 AND ea_id = $2 AND is_enabled`
	g := &models.EaGrant{}
	var expiresAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, userUID, eaID).Scan(&g.ID, &g.UserUID,
		&g.EaID, &g.IsEnabled, &expiresAt, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expiresAt.Valid {
		g.ExpiresAt = &expiresAt.Time
	}
	return g, nil
}

// UpsertGrant выдаёт доступ к советнику: существующая запись включается
// заново с новым сроком, отсутствующая создаётся. На пару
// (пользователь, советник) приходится не более одной записи.
func (s *Storage) UpsertGrant(ctx context.Context, userUID, eaID string, expiresAt *time.Time) (string, error) {
	const op = "storage.UpsertGrant"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id string
	query := `INSERT INTO user_ea_access (user_uid, ea_id, expires_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, ea_id)
			  DO UPDATE SET is_enabled = TRUE, expires_at = EXCLUDED.expires_at
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query, userUID, eaID, expiresAt).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// DisableGrant отзывает доступ пользователя к советнику.
func (s *Storage) DisableGrant(ctx context.Context, userUID, eaID string) error {
	const op = "storage.DisableGrant"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_ea_access SET is_enabled = FALSE WHERE user_uid = $1 AND ea_id = $2`
	res, err := s.DB.ExecContext(ctx, query, userUID, eaID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// ListGrantsForUser возвращает все доступы пользователя.
func (s *Storage) ListGrantsForUser(ctx context.Context, userUID string) ([]*models.EaGrant, error) {
	const op = "storage.ListGrantsForUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, ea_id, is_enabled, expires_at, created_at
			  FROM user_ea_access
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.EaGrant
	for rows.Next() {
		var g models.EaGrant
		var expiresAt sql.NullTime
		if err = rows.Scan(&g.ID, &g.UserUID, &g.EaID, &g.IsEnabled, &expiresAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if expiresAt.Valid {
			g.ExpiresAt = &expiresAt.Time
		}
		result = append(result, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
