package queue

import (
    "context"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/shopverse/internal/model"
)

// RabbitPublisher publishes domain events to a durable RabbitMQ queue.
// It dials per publish and holds no connection state.
type RabbitPublisher struct {
    URL      string
    Queue    string
    Producer string
}

// NewRabbitPublisher returns a publisher for the order.placed queue.
func NewRabbitPublisher(url string) *RabbitPublisher {
    return &RabbitPublisher{URL: url, Queue: TopicOrderPlaced, Producer: "shopverse-api"}
}

// PublishOrderPlaced sends a persistent order.placed envelope through
// the default exchange, declaring the durable queue first.
func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, o model.Order) error {
    body, err := NewOrderPlacedEnvelope(p.Producer, o)
    if err != nil {
        return fmt.Errorf("encode order.placed: %w", err)
    }
    return p.withChannel(func(ch *amqp.Channel) error {
        if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
            return fmt.Errorf("declare %s: %w", p.Queue, err)
        }
        return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
            ContentType:   "application/json",
            DeliveryMode:  amqp.Persistent,
            Timestamp:     time.Now().UTC(),
            MessageId:     o.ID,
            CorrelationId: o.ID,
            Type:          EventOrderPlaced,
            Body:          body,
        })
    })
}

// withChannel dials, opens a channel and runs fn, closing both after.
func (p *RabbitPublisher) withChannel(fn func(*amqp.Channel) error) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("dial rabbitmq: %w", err)
    }
    defer conn.Close()
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer ch.Close()
    return fn(ch)
}

// Close is a no-op; connections do not outlive a publish.
func (p *RabbitPublisher) Close() error { return nil }
