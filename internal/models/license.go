package models

import "time"

// Результаты попытки валидации лицензии.
const (
	ValidationSuccess = "SUCCESS"
	ValidationFailed  = "FAILED"
)

// Коды ошибок валидации лицензии. Каждый код соответствует ровно
// одной проверке в цепочке, порядок проверок фиксирован.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeUserNotApproved    = "USER_NOT_APPROVED"
	CodeUserInactive       = "USER_INACTIVE"
	CodeEaNotFound         = "EA_NOT_FOUND"
	CodeEaInactive         = "EA_INACTIVE"
	CodeEaAccessDenied     = "EA_ACCESS_DENIED"
	CodeEaAccessExpired    = "EA_ACCESS_EXPIRED"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeServerError        = "SERVER_ERROR"
)

// LicenseRequest — тело запроса валидации лицензии от советника.
type LicenseRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required,numeric"`
	BrokerName    string `json:"brokerName" validate:"required"`
	EaCode        string `json:"eaCode" validate:"required"`
	EaVersion     string `json:"eaVersion" validate:"required"`
	TerminalType  string `json:"terminalType" validate:"required,oneof=MT4 MT5"`
}

// ValidationLog — запись журнала о единичной попытке валидации.
// Записи создаются по одной на попытку и никогда не изменяются.
// Поля MtAccountID и EaID равны nil, если соответствующая сущность
// не была разрешена к моменту отказа; строковые поля в этом случае
// хранят значения из запроса как есть либо "unknown".
type ValidationLog struct {
	ID            string
	UserUID       string
	MtAccountID   *string
	EaID          *string
	AccountNumber string
	BrokerName    string
	EaCode        string
	EaVersion     string
	TerminalType  string
	IPAddress     string
	Result        string  // SUCCESS или FAILED
	FailureReason *string // Код ошибки при FAILED
	CreatedAt     time.Time
}
