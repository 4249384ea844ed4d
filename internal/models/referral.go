package models

import "time"

// Статусы реферала.
const (
	ReferralPending  = "PENDING"
	ReferralApproved = "APPROVED"
	ReferralRewarded = "REWARDED"
)

// Referral связывает пригласившего и приглашенного пользователей.
type Referral struct {
	ID           string
	ReferrerUID  string
	ReferredUID  string
	ReferralCode string
	Status       string
	RewardGiven  bool
	CreatedAt    time.Time
}

// ReferralEntry — строка списка рефералов для кабинета пользователя.
// Имя приглашенного анонимизируется до первой буквы.
type ReferralEntry struct {
	ID           string    `json:"id"`
	ReferredName string    `json:"referred_name"`
	Status       string    `json:"status"`
	RewardGiven  bool      `json:"reward_given"`
	JoinedAt     time.Time `json:"joined_at"`
	IsApproved   bool      `json:"is_approved"`
}

// ReferralStats — агрегированная статистика рефералов пользователя.
type ReferralStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rewarded int `json:"rewarded"`
}
