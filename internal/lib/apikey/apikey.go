// Package apikey генерирует непрозрачные учетные данные: ключи API для
// советников и реферальные коды пользователей.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// New возвращает ключ API: 32 случайных байта в hex с префиксом "eak_".
func New() (string, error) {
	const op = "apikey.New"
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return "eak_" + hex.EncodeToString(buf), nil
}

// NewReferralCode возвращает короткий реферальный код, 8 hex-символов
// в верхнем регистре.
func NewReferralCode() (string, error) {
	const op = "apikey.NewReferralCode"
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
