package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/storage/repository"
)

// Интерфейс репозитория для административных операций
type AdminRepository interface {
	UpdateUserFlags(ctx context.Context, userUID string, isApproved, isActive *bool, tier, role *string) error
	ListValidationLogs(ctx context.Context, filter repository.ValidationLogFilter) ([]*models.ValidationLog, int, error)
	CountUsers(ctx context.Context) (total, pending int, err error)
	CountEas(ctx context.Context) (int, error)
	CountValidationLogs(ctx context.Context) (total, failed int, err error)
}

// AdminService реализует операции админ-панели.
type AdminService struct {
	repo AdminRepository
	log  *slog.Logger
}

func NewAdminService(repo AdminRepository, log *slog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// UpdateUser меняет флаги пользователя; nil-поля не трогаются.
// Так администратор одобряет, блокирует и тарифицирует пользователей.
func (s *AdminService) UpdateUser(ctx context.Context, userUID string, isApproved, isActive *bool, tier, role *string) error {
	if err := s.repo.UpdateUserFlags(ctx, userUID, isApproved, isActive, tier, role); err != nil {
		return err
	}
	s.log.Info("updated user flags", slog.String("user_uid", userUID))
	return nil
}

// ListLogs возвращает страницу журнала валидаций с фильтрами.
func (s *AdminService) ListLogs(ctx context.Context, filter repository.ValidationLogFilter) ([]*models.ValidationLog, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListValidationLogs(ctx, filter)
}

// Stats — сводные показатели для главной страницы админ-панели.
type Stats struct {
	TotalUsers        int `json:"total_users"`
	PendingUsers      int `json:"pending_users"`
	TotalEas          int `json:"total_eas"`
	TotalValidations  int `json:"total_validations"`
	FailedValidations int `json:"failed_validations"`
}

// GetStats собирает сводку по пользователям, советникам и валидациям.
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	const op = "services.AdminService.GetStats"

	totalUsers, pendingUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	totalEas, err := s.repo.CountEas(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	totalLogs, failedLogs, err := s.repo.CountValidationLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Stats{
		TotalUsers:        totalUsers,
		PendingUsers:      pendingUsers,
		TotalEas:          totalEas,
		TotalValidations:  totalLogs,
		FailedValidations: failedLogs,
	}, nil
}
