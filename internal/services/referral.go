package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

// Интерфейс репозитория рефералов
type ReferralRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListReferrals(ctx context.Context, referrerUID string) ([]*repository.ReferralRow, error)
}

// ReferralService отдает реферальную статистику в кабинет пользователя.
type ReferralService struct {
	repo ReferralRepository
	log  *slog.Logger
}

func NewReferralService(repo ReferralRepository, log *slog.Logger) *ReferralService {
	return &ReferralService{repo: repo, log: log}
}

// ReferralOverview — реферальный код пользователя, список приглашенных
// и агрегированная статистика.
type ReferralOverview struct {
	ReferralCode string
	WasReferred  bool
	Stats        models.ReferralStats
	Referrals    []models.ReferralEntry
}

// Overview собирает реферальную сводку. Имена приглашенных
// анонимизируются до первой буквы.
func (s *ReferralService) Overview(ctx context.Context, userUID string) (*ReferralOverview, error) {
	const op = "services.ReferralService.Overview"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.repo.ListReferrals(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	overview := &ReferralOverview{
		ReferralCode: user.ReferralCode,
		WasReferred:  user.ReferredByCode != nil,
		Referrals:    make([]models.ReferralEntry, 0, len(rows)),
	}

	for _, row := range rows {
		overview.Stats.Total++
		switch row.Referral.Status {
		case models.ReferralApproved, models.ReferralRewarded:
			overview.Stats.Approved++
		case models.ReferralPending:
			overview.Stats.Pending++
		}
		if row.Referral.RewardGiven {
			overview.Stats.Rewarded++
		}

		overview.Referrals = append(overview.Referrals, models.ReferralEntry{
			ID:           row.Referral.ID,
			ReferredName: anonymizeName(row.ReferredName),
			Status:       row.Referral.Status,
			RewardGiven:  row.Referral.RewardGiven,
			JoinedAt:     row.JoinedAt,
			IsApproved:   row.IsApproved,
		})
	}

	return overview, nil
}

func anonymizeName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return "***"
	}
	return string(runes[0]) + "***"
}
