package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/myalgostack/license-server/internal/models"
)

// CreateValidationLog добавляет запись в журнал валидаций. Журнал
// только для добавления: путь валидации записи не изменяет и не удаляет.
func (s *Storage) CreateValidationLog(ctx context.Context, entry models.ValidationLog) error {
	const op = "storage.CreateValidationLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO validation_logs (user_uid, mt_account_id, ea_id, account_number,
			      broker_name, ea_code, ea_version, terminal_type, ip_address, result, failure_reason)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := s.DB.ExecContext(ctx, query,
		entry.UserUID, entry.MtAccountID, entry.EaID, entry.AccountNumber,
		entry.BrokerName, entry.EaCode, entry.EaVersion, entry.TerminalType,
		entry.IPAddress, entry.Result, entry.FailureReason); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidationLogFilter задает фильтры административной выборки журнала.
type ValidationLogFilter struct {
	Search string // подстрока в номере счета, брокере или коде советника
	Result string // SUCCESS или FAILED, пустая строка — без фильтра
	Limit  int
	Offset int
}

// ListValidationLogs возвращает страницу журнала и общее число записей
// под фильтром, новые сверху.
func (s *Storage) ListValidationLogs(ctx context.Context, filter ValidationLogFilter) ([]*models.ValidationLog, int, error) {
	const op = "storage.ListValidationLogs"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := ` WHERE ($1 = '' OR account_number ILIKE '%' || $1 || '%'
			      OR broker_name ILIKE '%' || $1 || '%'
			      OR ea_code ILIKE '%' || $1 || '%')
			  AND ($2 = '' OR result = $2)`

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM validation_logs`+where, filter.Search, filter.Result).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT id, user_uid, mt_account_id, ea_id, account_number, broker_name,
			      ea_code, ea_version, terminal_type, ip_address, result, failure_reason, created_at
			  FROM validation_logs` + where + `
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, filter.Search, filter.Result, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.ValidationLog
	for rows.Next() {
		var entry models.ValidationLog
		var mtAccountID, eaID, failureReason sql.NullString
		if err = rows.Scan(&entry.ID, &entry.UserUID, &mtAccountID, &eaID,
			&entry.AccountNumber, &entry.BrokerName, &entry.EaCode, &entry.EaVersion,
			&entry.TerminalType, &entry.IPAddress, &entry.Result, &failureReason,
			&entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		if mtAccountID.Valid {
			entry.MtAccountID = &mtAccountID.String
		}
		if eaID.Valid {
			entry.EaID = &eaID.String
		}
		if failureReason.Valid {
			entry.FailureReason = &failureReason.String
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// CountValidationLogs возвращает общее число записей журнала и число
// отказов. Используется административной статистикой.
func (s *Storage) CountValidationLogs(ctx context.Context) (total, failed int, err error) {
	const op = "storage.CountValidationLogs"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE result = 'FAILED') FROM validation_logs`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total, &failed); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, failed, nil
}
