package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

const DefaultExchange = "entitlements.notices"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes notices to a topic exchange with routing key
// "entitlement.<kind>".
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   logrus.FieldLogger
	mu       sync.Mutex
}

func NewAMQPNotifier(url, exchange string, logger logrus.FieldLogger) (*AMQPNotifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger.WithField("exchange", exchange).Info("RabbitMQ notifier connected")
	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, notice entity.Notice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx, n.exchange, RoutingKey(notice.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		n.logger.WithError(err).WithField("payer_id", notice.PayerID).Warn("Failed to publish notice")
		return err
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			n.logger.WithError(err).Warn("Failed to close rabbitmq channel")
		}
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

func RoutingKey(kind entity.NoticeKind) string {
	return "entitlement." + string(kind)
}
