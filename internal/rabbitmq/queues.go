package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации, которым она
// привязана к обмену уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очереди и ключи маршрутизации обмена уведомлений.
const (
	TradesQueue       = "notifications.trades"
	TradeClosedKey    = "trade.closed"
	RegistrationQueue = "notifications.registrations"
	UserRegisteredKey = "user.registered"
)

// GetNotificationQueues возвращает очереди, которые потребляет
// notification-sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TradesQueue, RoutingKey: TradeClosedKey},
		{QueueName: RegistrationQueue, RoutingKey: UserRegisteredKey},
	}
}
