package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
)

const activeEasCacheKey = "eas:active"

// Интерфейс репозитория каталога советников
type EaRepository interface {
	CreateEa(ctx context.Context, ea models.ExpertAdvisor) (string, error)
	GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error)
	ListActiveEas(ctx context.Context) ([]*models.ExpertAdvisor, error)
	UpdateEa(ctx context.Context, eaID string, currentVersion *string, isActive *bool, description *string) error
	UpsertGrant(ctx context.Context, userUID, eaID string, expiresAt *time.Time) (string, error)
	DisableGrant(ctx context.Context, userUID, eaID string) error
	ListGrantsForUser(ctx context.Context, userUID string) ([]*models.EaGrant, error)
}

// Cache — кэш для публичного каталога советников.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// EaService управляет каталогом советников и доступами пользователей.
type EaService struct {
	repo  EaRepository
	cache Cache
	log   *slog.Logger
}

func NewEaService(repo EaRepository, cache Cache, log *slog.Logger) *EaService {
	return &EaService{repo: repo, cache: cache, log: log}
}

// VersionInfo — ответ проверки версии советника.
type VersionInfo struct {
	EaCode          string
	CurrentVersion  string
	UpdateAvailable bool
}

// ListActive возвращает активные советники каталога. Результат кэшируется;
// недоступный кэш не мешает чтению из базы.
func (s *EaService) ListActive(ctx context.Context) ([]*models.ExpertAdvisor, error) {
	const op = "services.EaService.ListActive"

	var cached []*models.ExpertAdvisor
	found, err := s.cache.Get(activeEasCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read ea catalog cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	eas, err := s.repo.ListActiveEas(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(activeEasCacheKey, eas, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache ea catalog", sl.Err(err))
	}
	return eas, nil
}

// CheckVersion сравнивает версию советника у клиента с текущей версией
// каталога и сообщает о доступном обновлении.
func (s *EaService) CheckVersion(ctx context.Context, eaCode, clientVersion string) (*VersionInfo, error) {
	const op = "services.EaService.CheckVersion"

	ea, err := s.repo.GetEaByCode(ctx, eaCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &VersionInfo{
		EaCode:          ea.EaCode,
		CurrentVersion:  ea.CurrentVersion,
		UpdateAvailable: semver.Compare(canonicalVersion(ea.CurrentVersion), canonicalVersion(clientVersion)) > 0,
	}, nil
}

// CreateEa добавляет советника в каталог и сбрасывает кэш.
func (s *EaService) CreateEa(ctx context.Context, req models.DummyEa) (string, error) {
	ea := models.ExpertAdvisor{
		EaCode:         req.EaCode,
		Name:           req.Name,
		Description:    req.Description,
		CurrentVersion: req.CurrentVersion,
		IsActive:       true,
	}

	id, err := s.repo.CreateEa(ctx, ea)
	if err != nil {
		return "", err
	}

	s.invalidateCatalog()
	s.log.Info("created expert advisor", slog.String("ea_code", req.EaCode))
	return id, nil
}

// UpdateEa изменяет советника; nil-поля не трогаются.
func (s *EaService) UpdateEa(ctx context.Context, eaID string, currentVersion *string, isActive *bool, description *string) error {
	if err := s.repo.UpdateEa(ctx, eaID, currentVersion, isActive, description); err != nil {
		return err
	}
	s.invalidateCatalog()
	return nil
}

// Grant выдает пользователю доступ к советнику. Повторная выдача
// включает отключенный доступ и обновляет срок действия.
func (s *EaService) Grant(ctx context.Context, userUID string, req models.DummyGrant) (string, error) {
	const op = "services.EaService.Grant"

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("%s: invalid expires_at: %w", op, err)
		}
		expiresAt = &parsed
	}

	id, err := s.repo.UpsertGrant(ctx, userUID, req.EaID, expiresAt)
	if err != nil {
		return "", err
	}

	s.log.Info("granted ea access",
		slog.String("user_uid", userUID),
		slog.String("ea_id", req.EaID))
	return id, nil
}

// Revoke отключает доступ пользователя к советнику.
func (s *EaService) Revoke(ctx context.Context, userUID, eaID string) error {
	if err := s.repo.DisableGrant(ctx, userUID, eaID); err != nil {
		return err
	}
	s.log.Info("revoked ea access",
		slog.String("user_uid", userUID),
		slog.String("ea_id", eaID))
	return nil
}

// ListGrants возвращает доступы пользователя к советникам.
func (s *EaService) ListGrants(ctx context.Context, userUID string) ([]*models.EaGrant, error) {
	return s.repo.ListGrantsForUser(ctx, userUID)
}

func (s *EaService) invalidateCatalog() {
	if err := s.cache.Invalidate(activeEasCacheKey); err != nil {
		s.log.Warn("failed to invalidate ea catalog cache", sl.Err(err))
	}
}

// canonicalVersion приводит версию к виду, понятному пакету semver.
// Советники сообщают версии без префикса v.
func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
