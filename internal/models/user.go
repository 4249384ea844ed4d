// Package models содержит доменные структуры сервиса лицензирования:
// пользователей, торговых советников, выданные доступы, привязанные
// торговые счета и журнал валидаций.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Тарифные планы подписки.
const (
	TierOne   = "TIER_1"
	TierTwo   = "TIER_2"
	TierThree = "TIER_3"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                string     // Уникальный идентификатор пользователя
	Email              string     // Электронная почта
	Username           string     // Имя пользователя (уникальное)
	PasswordHash       string     // Хэш пароля пользователя
	Role               string     // Роль пользователя, USER или ADMIN
	SubscriptionTier   string     // Тариф подписки, определяет лимит торговых счетов
	IsApproved         bool       // Одобрен ли пользователь администратором
	IsActive           bool       // Активна ли учетная запись (не заблокирована)
	APIKey             string     // Ключ API, используемый советниками при валидации
	APISecret          string     // Секрет API (для подписи запросов телеметрии)
	ReferralCode       string     // Реферальный код пользователя
	ReferredByCode     *string    // Реферальный код, по которому пользователь пришел
	TrialEndsAt        *time.Time // Дата окончания пробного периода
	SubscriptionExpiry *time.Time // Дата истечения оплаченной подписки
	CreatedAt          time.Time
}

// MaxAccountsForTier возвращает максимальное число привязанных торговых
// счетов для тарифа. Неизвестный тариф трактуется как TIER_1.
func MaxAccountsForTier(tier string) int {
	switch tier {
	case TierThree:
		return 10
	case TierTwo:
		return 5
	default:
		return 1
	}
}
