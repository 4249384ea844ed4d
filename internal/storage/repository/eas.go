package repository

import (
	"context"
	"fmt"

	"github.com/myalgostack/license-server/internal/models"
)

// CreateEa сохраняет нового советника в каталог и возвращает его ID.
func (s *Storage) CreateEa(ctx context.Context, ea models.ExpertAdvisor) (string, error) {
	const op = "storage.CreateEa"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO expert_advisors (ea_code, name, description, current_version, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		ea.EaCode, ea.Name, ea.Description, ea.CurrentVersion, ea.IsActive).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetEaByCode возвращает советника по его уникальному коду.
func (s *Storage) GetEaByCode(ctx context.Context, eaCode string) (*models.ExpertAdvisor, error) {
	const op = "storage.GetEaByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, ea_code, name, description, current_version, is_active, created_at
			  FROM expert_advisors
			  WHERE ea_code = $1`
	ea := &models.ExpertAdvisor{}
	if err := s.DB.QueryRowContext(ctx, query, eaCode).Scan(&ea.ID, &ea.EaCode, &ea.Name,
		&ea.Description, &ea.CurrentVersion, &ea.IsActive, &ea.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ea, nil
}

// ListActiveEas возвращает всех активных советников каталога.
func (s *Storage) ListActiveEas(ctx context.Context) ([]*models.ExpertAdvisor, error) {
	const op = "storage.ListActiveEas"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, ea_code, name, description, current_version, is_active, created_at
			  FROM expert_advisors
			  WHERE is_active
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.ExpertAdvisor
	for rows.Next() {
		var ea models.ExpertAdvisor
		if err = rows.Scan(&ea.ID, &ea.EaCode, &ea.Name, &ea.Description,
			&ea.CurrentVersion, &ea.IsActive, &ea.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &ea)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateEa обновляет атрибуты советника по ID.
func (s *Storage) UpdateEa(ctx context.Context, eaID string, currentVersion *string, isActive *bool, description *string) error {
	const op = "storage.UpdateEa"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE expert_advisors
			  SET current_version = COALESCE($1, current_version),
			      is_active = COALESCE($2, is_active),
			      description = COALESCE($3, description)
			  WHERE id = $4`
	if _, err := s.DB.ExecContext(ctx, query, currentVersion, isActive, description, eaID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountEas возвращает число советников в каталоге.
func (s *Storage) CountEas(ctx context.Context) (int, error) {
	const op = "storage.CountEas"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM expert_advisors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
