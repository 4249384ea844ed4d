package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myalgostack/license-server/internal/models"
)

// ErrAccountLimitReached возвращается, когда тариф пользователя не
// позволяет привязать еще один счет.
var ErrAccountLimitReached = errors.New("account limit for subscription tier reached")

// Интерфейс репозитория торговых счетов
type AccountRepository interface {
	CreateAccount(ctx context.Context, account models.MtAccount) (string, error)
	ListAccounts(ctx context.Context, userUID string) ([]*models.MtAccount, error)
	CountAccounts(ctx context.Context, userUID string) (int, error)
	SoftDeleteAccount(ctx context.Context, userUID, accountID string) error
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// AccountService управляет привязкой торговых счетов к пользователям.
type AccountService struct {
	repo AccountRepository
	log  *slog.Logger
}

func NewAccountService(repo AccountRepository, log *slog.Logger) *AccountService {
	return &AccountService{repo: repo, log: log}
}

// AccountListing — счета пользователя вместе с занятыми и доступными
// слотами тарифа.
type AccountListing struct {
	Accounts []*models.MtAccount
	Used     int
	Max      int
}

// Create привязывает счет, если лимит тарифа не исчерпан. Дубликат
// обнаруживается уникальным индексом базы, а не предварительным
// запросом.
func (s *AccountService) Create(ctx context.Context, userUID string, req models.DummyAccount) (string, error) {
	const op = "services.AccountService.Create"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	used, err := s.repo.CountAccounts(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if used >= models.MaxAccountsForTier(user.SubscriptionTier) {
		return "", ErrAccountLimitReached
	}

	account := models.MtAccount{
		UserUID:       userUID,
		AccountNumber: req.AccountNumber,
		BrokerName:    req.BrokerName,
		AccountType:   req.AccountType,
		TerminalType:  req.TerminalType,
	}
	if req.Nickname != "" {
		account.Nickname = &req.Nickname
	}

	id, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return "", err
	}

	s.log.Info("linked trading account",
		slog.String("user_uid", userUID),
		slog.String("account_number", req.AccountNumber))
	return id, nil
}

// List возвращает живые счета пользователя и занятость слотов тарифа.
func (s *AccountService) List(ctx context.Context, userUID string) (*AccountListing, error) {
	const op = "services.AccountService.List"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accounts, err := s.repo.ListAccounts(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AccountListing{
		Accounts: accounts,
		Used:     len(accounts),
		Max:      models.MaxAccountsForTier(user.SubscriptionTier),
	}, nil
}

// Remove мягко удаляет счет пользователя. Освобожденный номер можно
// привязать заново благодаря частичному уникальному индексу.
func (s *AccountService) Remove(ctx context.Context, userUID, accountID string) error {
	if err := s.repo.SoftDeleteAccount(ctx, userUID, accountID); err != nil {
		return err
	}
	s.log.Info("removed trading account",
		slog.String("user_uid", userUID),
		slog.String("account_id", accountID))
	return nil
}
