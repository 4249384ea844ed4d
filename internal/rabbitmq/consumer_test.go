package rabbitmq

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myalgostack/license-server/internal/models"
)

func TestConsumerMessage_HandlesTradeClosedEvents(t *testing.T) {
	if os.Getenv("SKIP_RABBITMQ_TESTS") != "" {
		t.Skip("Skipping RabbitMQ tests in CI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	amqpURI := setupAmqpURI(t, ctx)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close connection: %v", err)
		}
	}()

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	defer func() {
		if err := ch.Close(); err != nil {
			t.Errorf("failed to close channel: %v", err)
		}
	}()

	var mu sync.Mutex
	var received []models.TradeClosedEvent

	err = ConsumerMessage(ctx, ch, TradesQueue, func(body []byte) error {
		var event models.TradeClosedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	profit := 41.5
	event := models.TradeClosedEvent{
		Email:         "trader@example.com",
		Username:      "trader",
		Symbol:        "EURUSD",
		Ticket:        123456,
		Profit:        &profit,
		AccountNumber: "7000001",
	}
	err = PublishMessage(ch, NotificationsExchange, TradeClosedKey, event)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 10*time.Second, 100*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, event.Ticket, received[0].Ticket)
	assert.Equal(t, event.Symbol, received[0].Symbol)
}

func TestConsumerMessage_NacksFailedMessages(t *testing.T) {
	if os.Getenv("SKIP_RABBITMQ_TESTS") != "" {
		t.Skip("Skipping RabbitMQ tests in CI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	amqpURI := setupAmqpURI(t, ctx)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	queueName := "test.nack"
	_, err = ch.QueueDeclare(queueName, false, true, false, false, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	attempts := 0

	err = ConsumerMessage(ctx, ch, queueName, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)

	err = ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        []byte(`{}`),
	})
	require.NoError(t, err)

	// Первая попытка падает, сообщение возвращается и обрабатывается повторно
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 2
	}, 10*time.Second, 100*time.Millisecond)
}
