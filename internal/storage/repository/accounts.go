package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/myalgostack/license-server/internal/models"
)

// ErrAccountExists возвращается при попытке привязать уже
// зарегистрированный счет. Дубликаты ловятся через уникальный индекс,
// а не предварительным запросом, поэтому проверка безопасна при гонках.
var ErrAccountExists = errors.New("account already registered")

const accountColumns = `id, user_uid, account_number, broker_name, account_type,
			      terminal_type, nickname, is_active, last_validated_at, deleted_at, created_at`

func scanAccountRow(scan func(dest ...any) error) (*models.MtAccount, error) {
	a := &models.MtAccount{}
	var nickname sql.NullString
	var lastValidatedAt, deletedAt sql.NullTime
	if err := scan(&a.ID, &a.UserUID, &a.AccountNumber, &a.BrokerName, &a.AccountType,
		&a.TerminalType, &nickname, &a.IsActive, &lastValidatedAt, &deletedAt,
		&a.CreatedAt); err != nil {
		return nil, err
	}
	if nickname.Valid {
		a.Nickname = &nickname.String
	}
	if lastValidatedAt.Valid {
		a.LastValidatedAt = &lastValidatedAt.Time
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Time
	}
	return a, nil
}

// CreateAccount привязывает торговый счет к пользователю и возвращает
// его ID. Нарушение уникальности (23505) транслируется в ErrAccountExists.
func (s *Storage) CreateAccount(ctx context.Context, account models.MtAccount) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO mt_accounts (user_uid, account_number, broker_name, account_type,
			      terminal_type, nickname)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		account.UserUID, account.AccountNumber, account.BrokerName, account.AccountType,
		account.TerminalType, account.Nickname).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrAccountExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetAccountByNumber возвращает живой счет пользователя по номеру.
// Брокер намеренно не участвует в поиске: терминалы сообщают его имя
// в разных написаниях.
func (s *Storage) GetAccountByNumber(ctx context.Context, userUID, accountNumber string) (*models.MtAccount, error) {
	const op = "storage.GetAccountByNumber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM mt_accounts
			  WHERE user_uid = $1 AND account_number = $2 AND deleted_at IS NULL`
	a, err := scanAccountRow(s.DB.QueryRowContext(ctx, query, userUID, accountNumber).Scan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// ListAccounts возвращает живые счета пользователя, новые сверху.
func (s *Storage) ListAccounts(ctx context.Context, userUID string) ([]*models.MtAccount, error) {
	const op = "storage.ListAccounts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM mt_accounts
			  WHERE user_uid = $1 AND deleted_at IS NULL
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.MtAccount
	for rows.Next() {
		a, err := scanAccountRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAccounts возвращает число живых счетов пользователя.
func (s *Storage) CountAccounts(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountAccounts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM mt_accounts WHERE user_uid = $1 AND deleted_at IS NULL`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SoftDeleteAccount помечает счет удалённым, не трогая историю сделок
// и журнал валидаций.
func (s *Storage) SoftDeleteAccount(ctx context.Context, userUID, accountID string) error {
	const op = "storage.SoftDeleteAccount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE mt_accounts SET deleted_at = NOW()
			  WHERE id = $1 AND user_uid = $2 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, accountID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// TouchAccountValidation обновляет last_validated_at после успешной
// валидации лицензии. Единственная запись на пути валидации.
func (s *Storage) TouchAccountValidation(ctx context.Context, accountID string, at time.Time) error {
	const op = "storage.TouchAccountValidation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE mt_accounts SET last_validated_at = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, at, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
