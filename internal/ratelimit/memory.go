package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int
	windowIdx int64
}

// MemoryLimiter хранит счетчики в памяти процесса. Подходит только для
// одиночного инстанса: счетчики не разделяются между процессами и
// теряются при перезапуске.
type MemoryLimiter struct {
	mu            sync.Mutex
	entries       map[string]*memoryEntry
	cleanupChance float64
}

// NewMemoryLimiter создает in-memory лимитер.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries:       make(map[string]*memoryEntry),
		cleanupChance: 0.01,
	}
}

// Check инкрементирует счетчик текущего окна и сравнивает его с лимитом.
// Ошибка всегда nil, сигнатура общая с Redis-бэкендом.
func (l *MemoryLimiter) Check(ctx context.Context, key string, cfg Config) (Result, error) {
	now := time.Now()
	idx := windowIndex(now, cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.windowIdx != idx {
		e = &memoryEntry{windowIdx: idx}
		l.entries[key] = e
	}
	e.count++

	// Изредка выбрасываем счетчики прошедших окон, чтобы карта не росла
	if rand.Float64() < l.cleanupChance {
		for k, v := range l.entries {
			if v.windowIdx < idx {
				delete(l.entries, k)
			}
		}
	}

	remaining := cfg.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   e.count <= cfg.MaxRequests,
		Remaining: remaining,
		ResetTime: windowReset(idx, cfg.Window),
	}, nil
}
