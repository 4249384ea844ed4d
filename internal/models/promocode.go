package models

import "time"

// PromoCode — промокод, выдающий дни подписки и, опционально, тариф.
// MaxUsages = 0 означает отсутствие лимита использований.
type PromoCode struct {
	ID               string
	Code             string
	Description      string
	DaysGranted      int
	SubscriptionTier *string
	MaxUsages        int
	UsageCount       int
	IsActive         bool
	ExpiresAt        *time.Time
	CreatedAt        time.Time
}

// DummyPromoCode используется для приёма данных из JSON-запроса
// при создании промокода администратором.
type DummyPromoCode struct {
	Code             string `json:"code" validate:"required,min=3,max=50"`
	Description      string `json:"description"`
	DaysGranted      int    `json:"days_granted" validate:"gte=0"`
	SubscriptionTier string `json:"subscription_tier" validate:"omitempty,oneof=TIER_1 TIER_2 TIER_3"`
	MaxUsages        int    `json:"max_usages" validate:"gte=0"`
	ExpiresAt        string `json:"expires_at"`
}
