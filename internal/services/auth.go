package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myalgostack/license-server/internal/lib/apikey"
	"github.com/myalgostack/license-server/internal/lib/jwt"
	"github.com/myalgostack/license-server/internal/lib/password"
	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/rabbitmq"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Интерфейс репозитория пользователей
type AuthRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	CreateReferral(ctx context.Context, referrerUID, referredUID, code string) (string, error)
	UpdateUserCredentials(ctx context.Context, userUID, apiKey, apiSecret string) error
}

// EventPublisher публикует события в обмен уведомлений.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// AuthService реализует регистрацию, вход и управление ключами API.
type AuthService struct {
	repo      AuthRepository
	jwtMaker  jwt.Maker
	publisher EventPublisher
	trialDays int
	log       *slog.Logger
}

func NewAuthService(repo AuthRepository, jwtMaker jwt.Maker, publisher EventPublisher, trialDays int, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtMaker:  jwtMaker,
		publisher: publisher,
		trialDays: trialDays,
		log:       log,
	}
}

// Register создает пользователя с пробным периодом и сгенерированными
// учетными данными API. Пользователь одобряется автоматически: пробный
// период не требует ручной модерации. Неизвестный реферальный код
// молча игнорируется, чтобы не блокировать регистрацию.
func (s *AuthService) Register(ctx context.Context, username, email, rawPassword, referredByCode string) (string, error) {
	const op = "services.AuthService.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key, err := apikey.New()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	secret, err := apikey.New()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	referralCode, err := apikey.NewReferralCode()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var referrer *models.User
	if referredByCode != "" {
		referrer, err = s.repo.GetUserByReferralCode(ctx, referredByCode)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	trialEndsAt := time.Now().AddDate(0, 0, s.trialDays)
	user := models.User{
		Email:            email,
		Username:         username,
		PasswordHash:     hashed,
		Role:             models.RoleUser,
		SubscriptionTier: models.TierOne,
		IsApproved:       true,
		IsActive:         true,
		APIKey:           key,
		APISecret:        secret,
		ReferralCode:     referralCode,
		TrialEndsAt:      &trialEndsAt,
	}
	if referredByCode != "" {
		user.ReferredByCode = &referredByCode
	}

	uid, err := s.repo.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}

	if referrer != nil {
		if _, err := s.repo.CreateReferral(ctx, referrer.UID, uid, referredByCode); err != nil {
			s.log.Error("failed to create referral record", sl.Err(err))
		}
	}

	s.publishEvent(rabbitmq.UserRegisteredKey, models.UserRegisteredEvent{
		Email:        email,
		Username:     username,
		TrialDays:    s.trialDays,
		ReferralCode: referralCode,
	})

	s.log.Info("registered new user", slog.String("uid", uid))
	return uid, nil
}

// Login проверяет пароль и возвращает JWT вместе с ролью пользователя.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "services.AuthService.Login"

	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", ErrInvalidCredentials
	}

	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// RegenerateCredentials выпускает новую пару ключ/секрет API.
// Старые учетные данные перестают действовать немедленно.
func (s *AuthService) RegenerateCredentials(ctx context.Context, userUID string) (apiKey, apiSecret string, err error) {
	const op = "services.AuthService.RegenerateCredentials"

	apiKey, err = apikey.New()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	apiSecret, err = apikey.New()
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateUserCredentials(ctx, userUID, apiKey, apiSecret); err != nil {
		return "", "", err
	}

	s.log.Info("regenerated api credentials", slog.String("uid", userUID))
	return apiKey, apiSecret, nil
}

// Profile возвращает данные пользователя для кабинета.
func (s *AuthService) Profile(ctx context.Context, userUID string) (*models.User, error) {
	return s.repo.GetUser(ctx, userUID)
}

// publishEvent отправляет событие, не блокируя бизнес-операцию.
func (s *AuthService) publishEvent(routingKey string, message any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, message); err != nil {
		s.log.Error("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}
