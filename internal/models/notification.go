package models

// TradeClosedEvent - событие закрытия сделки, публикуемое в очередь
// уведомлений. Потребляется сервисом-отправителем писем.
type TradeClosedEvent struct {
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	AccountNumber string   `json:"account_number"`
	Symbol        string   `json:"symbol"`
	Ticket        int64    `json:"ticket"`
	Profit        *float64 `json:"profit"`
}

// UserRegisteredEvent - событие регистрации нового пользователя.
type UserRegisteredEvent struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	TrialDays    int    `json:"trial_days"`
	ReferralCode string `json:"referral_code"`
}
