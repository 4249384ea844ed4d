package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/myalgostack/license-server/internal/models"
)

// CreateReferral связывает пригласившего и приглашенного пользователей.
func (s *Storage) CreateReferral(ctx context.Context, referrerUID, referredUID, code string) (string, error) {
	const op = "storage.CreateReferral"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO referrals (referrer_uid, referred_uid, referral_code)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query, referrerUID, referredUID, code).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReferralRow — строка выборки рефералов вместе с данными приглашенного.
type ReferralRow struct {
	Referral     models.Referral
	ReferredName string
	JoinedAt     time.Time
	IsApproved   bool
}

// ListReferrals возвращает рефералов пользователя, новые сверху.
func (s *Storage) ListReferrals(ctx context.Context, referrerUID string) ([]*ReferralRow, error) {
	const op = "storage.ListReferrals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT r.id, r.referrer_uid, r.referred_uid, r.referral_code, r.status,
			      r.reward_given, r.created_at, u.username, u.created_at, u.is_approved
			  FROM referrals r
			  JOIN users u ON u.uid = r.referred_uid
			  WHERE r.referrer_uid = $1
			  ORDER BY r.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, referrerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*ReferralRow
	for rows.Next() {
		var row ReferralRow
		if err = rows.Scan(&row.Referral.ID, &row.Referral.ReferrerUID,
			&row.Referral.ReferredUID, &row.Referral.ReferralCode, &row.Referral.Status,
			&row.Referral.RewardGiven, &row.Referral.CreatedAt, &row.ReferredName,
			&row.JoinedAt, &row.IsApproved); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
