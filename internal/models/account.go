package models

import "time"

// Типы терминалов MetaTrader.
const (
	TerminalMT4 = "MT4"
	TerminalMT5 = "MT5"
)

// MtAccount представляет торговый счет, привязанный пользователем.
// Пара (пользователь, номер счета, брокер) уникальна среди живых
// записей; удаление мягкое, через DeletedAt.
type MtAccount struct {
	ID              string
	UserUID         string
	AccountNumber   string
	BrokerName      string
	AccountType     string // DEMO или LIVE
	TerminalType    string // MT4 или MT5
	Nickname        *string
	IsActive        bool
	LastValidatedAt *time.Time // Время последней успешной валидации лицензии
	DeletedAt       *time.Time
	CreatedAt       time.Time
}

// DummyAccount используется для приёма данных из JSON-запроса
// на привязку торгового счета.
type DummyAccount struct {
	AccountNumber string `json:"account_number" validate:"required,numeric"`
	BrokerName    string `json:"broker_name" validate:"required"`
	AccountType   string `json:"account_type" validate:"required,oneof=DEMO LIVE"`
	TerminalType  string `json:"terminal_type" validate:"required,oneof=MT4 MT5"`
	Nickname      string `json:"nickname"`
}
