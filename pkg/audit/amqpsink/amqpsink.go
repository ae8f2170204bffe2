// Package amqpsink streams operation logs to a RabbitMQ topic exchange.
package amqpsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
)

// DefaultExchange receives operation logs when no exchange is configured.
const DefaultExchange = "operation_logs"

// Publisher is the subset of *amqp.Channel used by Sink.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Sink publishes each log as a persistent JSON message routed by
// "operation.<operation type>". It implements audit.BatchWriter.
type Sink struct {
	pub      Publisher
	exchange string
}

// New creates a sink on top of pub. It panics if pub is nil.
func New(pub Publisher, exchange string) *Sink {
	if pub == nil {
		panic("amqpsink: publisher cannot be nil")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Sink{pub: pub, exchange: exchange}
}

// RoutingKey returns the routing key of l.
func RoutingKey(l audit.OperationLog) string {
	return "operation." + string(l.OperationType)
}

// WriteBatch implements audit.BatchWriter.
// Publishing stops at the first failure; earlier messages are not withdrawn.
func (s *Sink) WriteBatch(ctx context.Context, logs []audit.OperationLog) error {
	for _, l := range logs {
		body, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to encode operation log: %w", err)
		}
		msg := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    l.ID.String(),
			Timestamp:    l.CreatedAt,
			Type:         string(l.Status),
			Body:         body,
		}
		if err := s.pub.PublishWithContext(ctx, s.exchange, RoutingKey(l), false, false, msg); err != nil {
			return fmt.Errorf("failed to publish operation log: %w", err)
		}
	}
	return nil
}

// Dial connects to url, declares a durable topic exchange and returns a sink
// publishing to it together with a function releasing the connection.
func Dial(url, exchange string) (*Sink, func() error, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	closeFn := func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
	return New(ch, exchange), closeFn, nil
}
