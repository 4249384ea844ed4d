// Package sender собирает сервис отправки почтовых уведомлений:
// подключение к RabbitMQ и консьюмеры очередей событий.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/myalgostack/license-server/internal/config"
	"github.com/myalgostack/license-server/internal/lib/smtp"
	"github.com/myalgostack/license-server/internal/rabbitmq"
	"github.com/myalgostack/license-server/internal/services"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *services.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg, logger)
	senderService := services.NewSenderService(newTransport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.TradesQueue, a.senderService.SendTradeClosedNotification)
	if err != nil {
		a.logger.Error("failed to start trades consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.RegistrationQueue, a.senderService.SendWelcomeNotification)
	if err != nil {
		a.logger.Error("failed to start registrations consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
