package models

import "time"

// Статусы сделок.
const (
	TradeOpen   = "OPEN"
	TradeClosed = "CLOSED"
)

// Trade — запись телеметрии о сделке, присланная советником.
// Сделка уникальна по тройке (пользователь, счет, тикет): повторная
// отправка того же тикета обновляет запись (закрытие сделки).
type Trade struct {
	ID          string
	UserUID     string
	MtAccountID string
	EaID        *string
	Ticket      int64
	Symbol      string
	Type        string // BUY или SELL
	Lots        float64
	OpenPrice   float64
	ClosePrice  *float64
	StopLoss    *float64
	TakeProfit  *float64
	OpenTime    time.Time
	CloseTime   *time.Time
	Profit      *float64
	Pips        *float64
	Swap        float64
	Commission  float64
	Status      string // OPEN или CLOSED
	CreatedAt   time.Time
}

// DummyTrade используется для приёма телеметрии из JSON-запроса.
// Времена приходят строками RFC3339 и парсятся вручную.
type DummyTrade struct {
	AccountNumber string   `json:"account_number" validate:"required,numeric"`
	Ticket        int64    `json:"ticket" validate:"required,gt=0"`
	Symbol        string   `json:"symbol" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=BUY SELL"`
	Lots          float64  `json:"lots" validate:"required,gt=0"`
	OpenPrice     float64  `json:"open_price" validate:"required,gt=0"`
	ClosePrice    *float64 `json:"close_price"`
	StopLoss      *float64 `json:"stop_loss"`
	TakeProfit    *float64 `json:"take_profit"`
	OpenTime      string   `json:"open_time" validate:"required"`
	CloseTime     string   `json:"close_time"`
	Profit        *float64 `json:"profit"`
	Pips          *float64 `json:"pips"`
	Swap          float64  `json:"swap"`
	Commission    float64  `json:"commission"`
	Status        string   `json:"status" validate:"required,oneof=OPEN CLOSED"`
	EaCode        string   `json:"ea_code"`
}

// TradeFilter задает фильтры выборки сделок для кабинета пользователя.
type TradeFilter struct {
	Status      string
	MtAccountID string
	EaID        string
	Limit       int
	Offset      int
}
