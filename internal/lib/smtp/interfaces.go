// Package smtp предоставляет транспорт для отправки писем пользователям.
package smtp

import "io"

// Client интерфейс поверх *smtp.Client, чтобы сервис-отправитель
// можно было тестировать без реального соединения.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface интерфейс для SMTP транспорта.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
