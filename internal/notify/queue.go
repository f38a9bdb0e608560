package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue is a durable RabbitMQ queue carrying Message values as JSON.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
}

func DialQueue(url, name string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &Queue{conn: conn, channel: ch, name: q.Name}, nil
}

// Dispatch publishes msg for cmd/mailer to deliver.
func (q *Queue) Dispatch(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	err = q.channel.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume hands every queued message to d until ctx is done. A failed
// delivery is requeued once; a second failure drops it.
func (q *Queue) Consume(ctx context.Context, d Dispatcher, lg *zap.SugaredLogger) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := q.channel.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume messages: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := Deliver(ctx, d, m.Body); err != nil {
				lg.Errorw("mail delivery failed", "error", err, "redelivered", m.Redelivered)
				_ = m.Nack(false, !m.Redelivered)
				continue
			}
			_ = m.Ack(false)
		}
	}
}

func (q *Queue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Deliver decodes one queued payload and passes it to d.
func Deliver(ctx context.Context, d Dispatcher, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}
	return d.Dispatch(ctx, msg)
}
