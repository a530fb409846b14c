package queue

import (
    "context"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// OrderConsumer listens to the order.placed queue and appends one
// human-friendly line per order to an audit log.
type OrderConsumer struct {
    URL     string
    Queue   string
    LogPath string
}

// NewOrderConsumer returns a consumer writing to logPath, or to
// logs/orders.log when logPath is empty.
func NewOrderConsumer(url, logPath string) *OrderConsumer {
    if logPath == "" {
        logPath = filepath.Join("logs", "orders.log")
    }
    return &OrderConsumer{URL: url, Queue: TopicOrderPlaced, LogPath: logPath}
}

const (
    minBackoff = time.Second
    maxBackoff = 30 * time.Second
    prefetch   = 50
)

// Run consumes until ctx is cancelled, redialling the broker with
// exponential backoff whenever the connection or channel drops.  A
// message that cannot be handled is rejected without requeue.
func (c *OrderConsumer) Run(ctx context.Context) error {
    wait := minBackoff
    for ctx.Err() == nil {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Printf("order-consumer: dial: %v; retrying in %s", err, wait)
            if !sleepCtx(ctx, wait) {
                break
            }
            wait = min(wait*2, maxBackoff)
            continue
        }
        wait = minBackoff

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            break
        }
        log.Printf("order-consumer: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            break
        }
    }
    return nil
}

// sleepCtx waits for d and reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *OrderConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer ch.Close()

    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare %s: %w", c.Queue, err)
    }
    if err := ch.Qos(prefetch, 0, false); err != nil {
        log.Printf("order-consumer: qos: %v", err)
    }
    deliveries, err := ch.ConsumeWithContext(ctx, c.Queue, "order-audit", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", c.Queue, err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-deliveries:
            if !ok {
                return errors.New("delivery channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                log.Printf("order-consumer: drop message %s: %v", d.MessageId, err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *OrderConsumer) handleMessage(body []byte) error {
    _, p, err := DecodeOrderPlaced(body)
    if err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatOrderLine(p)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatOrderLine(p OrderPlacedPayload) string {
    items := make([]string, 0, len(p.Items))
    for _, it := range p.Items {
        items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
    }
    return fmt.Sprintf("[%s] Order placed | order_id=%s | user_id=%s | items=[%s] | total=%s %s | payment=%q | ship_to=\"%s, %s\"\n",
        p.PlacedAt, p.OrderID, p.UserID, strings.Join(items, ","), p.TotalPrice.StringFixed(2), p.Currency,
        p.PaymentMethod, p.City, p.Country)
}
