// Package ratelimit реализует ограничение частоты запросов по ключу
// с фиксированным окном. Поддерживаются два бэкенда: Redis для
// многоэкземплярного развертывания и in-memory для одиночного процесса.
package ratelimit

import (
	"context"
	"time"
)

// Config задает параметры лимита: максимальное число запросов в окне.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Result описывает исход проверки лимита для одного запроса.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Limiter проверяет и инкрементирует счетчик запросов для ключа.
// Каждый вызов Check учитывает один запрос.
type Limiter interface {
	Check(ctx context.Context, key string, cfg Config) (Result, error)
}

// windowIndex возвращает порядковый номер текущего окна.
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixMilli() / window.Milliseconds()
}

// windowReset возвращает момент начала следующего окна.
func windowReset(idx int64, window time.Duration) time.Time {
	return time.UnixMilli((idx + 1) * window.Milliseconds())
}
