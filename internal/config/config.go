// Package config предоставляет структуры и функцию для загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RateLimits              `yaml:"rate_limits"`
	License                 `yaml:"license"`
	RabbitMQURL             string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
	SMTPHost                string        `yaml:"smtp_host"`
	SMTPPort                string        `yaml:"smtp_port" env-default:"587"`
	SMTPUser                string        `yaml:"smtp_user"`
	SMTPPass                string        `yaml:"smtp_pass"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RateLimit задает пределы одного фиксированного окна.
type RateLimit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window" env-default:"1m"`
}

// RateLimits объединяет настройки лимитера: выбор бэкенда и окна для
// валидации лицензий, общего API и аутентификации.
type RateLimits struct {
	Backend    string    `yaml:"backend" env-default:"memory"` // redis или memory
	Validation RateLimit `yaml:"validation"`
	API        RateLimit `yaml:"api"`
	Auth       RateLimit `yaml:"auth"`
}

// License параметры лицензирования.
type License struct {
	GracePeriodHours int `yaml:"grace_period_hours" env-default:"24"`
	TrialDays        int `yaml:"trial_days" env-default:"14"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH, при ошибке завершает
// процесс.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	applyLimitDefaults(&cfg)
	return &cfg
}

// applyLimitDefaults подставляет окна по умолчанию: 100 запросов в
// минуту на валидацию, 60 на общий API, 10 на аутентификацию.
func applyLimitDefaults(cfg *Config) {
	if cfg.RateLimits.Validation.MaxRequests == 0 {
		cfg.RateLimits.Validation.MaxRequests = 100
	}
	if cfg.RateLimits.API.MaxRequests == 0 {
		cfg.RateLimits.API.MaxRequests = 60
	}
	if cfg.RateLimits.Auth.MaxRequests == 0 {
		cfg.RateLimits.Auth.MaxRequests = 10
	}
}
