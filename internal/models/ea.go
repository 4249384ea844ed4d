package models

import "time"

// ExpertAdvisor представляет торгового советника в каталоге.
// EaCode — глобально уникальный строковый код советника (например,
// ma_crossover_ea), по нему советник идентифицирует себя при валидации.
type ExpertAdvisor struct {
	ID             string
	EaCode         string
	Name           string
	Description    string
	CurrentVersion string
	IsActive       bool
	CreatedAt      time.Time
}

// EaGrant связывает пользователя с советником и определяет, разрешена ли
// валидация. Грант с истекшим ExpiresAt считается отсутствующим,
// даже если IsEnabled установлен.
type EaGrant struct {
	ID        string
	UserUID   string
	EaID      string
	IsEnabled bool
	ExpiresAt *time.Time // nil — бессрочный доступ
	CreatedAt time.Time
}

// DummyEa используется для приёма данных из JSON-запроса при создании
// советника администратором.
type DummyEa struct {
	EaCode         string `json:"ea_code" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	CurrentVersion string `json:"current_version" validate:"required"`
}

// DummyGrant используется для приёма данных из JSON-запроса при выдаче
// доступа к советнику. Дата приходит строкой RFC3339, пустая строка
// означает бессрочный доступ.
type DummyGrant struct {
	EaID      string `json:"ea_id" validate:"required,uuid"`
	ExpiresAt string `json:"expires_at"`
}
