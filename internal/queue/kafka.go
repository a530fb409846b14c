package queue

import (
    "context"
    "errors"
    "log"
    "sync"
    "time"

    "github.com/segmentio/kafka-go"

    "github.com/iliyamo/shopverse/internal/model"
)

// ErrPublisherClosed is returned by a KafkaPublisher after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
    WriteMessages(ctx context.Context, msgs ...kafka.Message) error
    Close() error
}

// KafkaPublisher buffers order.placed messages in an inbox drained by a
// single goroutine, keyed by order id so every event of an order lands
// on the same partition.
type KafkaPublisher struct {
    w        messageWriter
    producer string
    inbox    chan kafka.Message

    mu      sync.Mutex
    started bool
    closed  bool
    done    chan struct{}  // closed by Close; wakes blocked publishers
    senders sync.WaitGroup // publishers between the closed check and their send
    closeCh chan struct{}  // closed once the drain loop has finished
}

// NewKafkaPublisher returns a publisher writing to brokers.  Call Start
// before publishing and Close on shutdown.
func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
    if topic == "" {
        topic = TopicOrderPlaced
    }
    return newKafkaPublisher(&kafka.Writer{
        Addr:                   kafka.TCP(brokers...),
        Topic:                  topic,
        Balancer:               &kafka.Hash{},
        RequiredAcks:           kafka.RequireAll,
        AllowAutoTopicCreation: true,
    }, buf)
}

func newKafkaPublisher(w messageWriter, buf int) *KafkaPublisher {
    if buf <= 0 {
        buf = 64
    }
    return &KafkaPublisher{
        w:        w,
        producer: "shopverse-api",
        inbox:    make(chan kafka.Message, buf),
        done:     make(chan struct{}),
        closeCh:  make(chan struct{}),
    }
}

// Start launches the drain loop.  It flushes whatever is queued and
// closes the writer once Close is called.
func (p *KafkaPublisher) Start() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.started || p.closed {
        return
    }
    p.started = true
    go func() {
        defer close(p.closeCh)
        for m := range p.inbox {
            ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
            if err := p.w.WriteMessages(ctx, m); err != nil {
                log.Printf("kafka: write %s failed: %v", m.Key, err)
            }
            cancel()
        }
        if err := p.w.Close(); err != nil {
            log.Printf("kafka: writer close: %v", err)
        }
    }()
}

// PublishOrderPlaced enqueues an order.placed envelope.  It blocks while
// the inbox is full, until ctx is done or the publisher is closed.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o model.Order) error {
    body, err := NewOrderPlacedEnvelope(p.producer, o)
    if err != nil {
        return err
    }
    msg := kafka.Message{
        Key:     []byte(o.ID),
        Value:   body,
        Time:    time.Now().UTC(),
        Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventOrderPlaced)}},
    }
    p.mu.Lock()
    if p.closed {
        p.mu.Unlock()
        return ErrPublisherClosed
    }
    p.senders.Add(1)
    p.mu.Unlock()
    defer p.senders.Done()

    select {
    case p.inbox <- msg:
        return nil
    case <-p.done:
        return ErrPublisherClosed
    case <-ctx.Done():
        return ctx.Err()
    }
}

// Close stops accepting messages and waits for the inbox to drain.
func (p *KafkaPublisher) Close() error {
    p.mu.Lock()
    if p.closed {
        p.mu.Unlock()
        return nil
    }
    p.closed = true
    close(p.done)
    started := p.started
    p.mu.Unlock()

    // inbox is only closed once no publisher can still send on it
    p.senders.Wait()
    close(p.inbox)
    if !started {
        return p.w.Close()
    }
    <-p.closeCh
    return nil
}
