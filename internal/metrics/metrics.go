// Package metrics регистрирует счетчики Prometheus в реестре по умолчанию,
// их отдает хендлер promhttp на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationsTotal считает проверки лицензий по результату и коду ошибки.
	// Для успешной проверки error_code пустой.
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "license_server",
			Name:      "validations_total",
			Help:      "Total number of license validation attempts",
		},
		[]string{"result", "error_code"},
	)

	// TradesTotal считает принятые сделки по типу операции.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "license_server",
			Name:      "trades_total",
			Help:      "Total number of trade submissions",
		},
		[]string{"operation"},
	)

	// RateLimitRejections считает запросы, отклоненные лимитером.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "license_server",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

// RecordValidation инкрементирует счетчик проверок лицензии.
func RecordValidation(result, errorCode string) {
	ValidationsTotal.WithLabelValues(result, errorCode).Inc()
}

// RecordTrade инкрементирует счетчик принятых сделок.
func RecordTrade(operation string) {
	TradesTotal.WithLabelValues(operation).Inc()
}

// RecordRateLimitRejection инкрементирует счетчик отклоненных запросов.
func RecordRateLimitRejection(scope string) {
	RateLimitRejections.WithLabelValues(scope).Inc()
}
