package queue

import (
    "context"
    "os"
    "path/filepath"
    "sync"
    "testing"
    "time"

    "github.com/segmentio/kafka-go"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/shopverse/internal/model"
)

func sampleOrder() model.Order {
    return model.Order{
        ID:     "order-1",
        UserID: "user-1",
        OrderItems: []model.OrderItem{
            {ProductID: "p1", Name: "Kente Shirt", Price: decimal.NewFromInt(180), Quantity: 2},
        },
        ShippingAddress: model.ShippingAddress{Address: "1 Oxford St", City: "Accra", PostalCode: "GA-1", Country: "Ghana"},
        PaymentMethod:   "Mobile Money",
        ItemsPrice:      decimal.NewFromInt(360),
        TaxPrice:        decimal.NewFromInt(45),
        ShippingPrice:   decimal.NewFromInt(25),
        TotalPrice:      decimal.NewFromInt(430),
        Status:          model.OrderPending,
        CreatedAt:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
    }
}

func TestOrderPlacedEnvelope(t *testing.T) {
    body, err := NewOrderPlacedEnvelope("test", sampleOrder())
    require.NoError(t, err)

    env, p, err := DecodeOrderPlaced(body)
    require.NoError(t, err)
    assert.Equal(t, EventOrderPlaced, env.EventType)
    assert.Equal(t, 1, env.EventVersion)
    assert.Equal(t, "order-1", env.CorrelationID)
    assert.NotEmpty(t, env.EventID)

    assert.Equal(t, "user-1", p.UserID)
    require.Len(t, p.Items, 1)
    assert.Equal(t, 2, p.Items[0].Quantity)
    assert.True(t, p.TotalPrice.Equal(decimal.NewFromInt(430)))
    assert.Equal(t, "2024-03-01T10:00:00Z", p.PlacedAt)
}

func TestConsumerHandleMessageAppendsLine(t *testing.T) {
    path := filepath.Join(t.TempDir(), "audit", "orders.log")
    c := NewOrderConsumer("amqp://unused", path)

    body, err := NewOrderPlacedEnvelope("test", sampleOrder())
    require.NoError(t, err)
    require.NoError(t, c.handleMessage(body))
    require.NoError(t, c.handleMessage(body))

    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := string(raw)
    assert.Contains(t, lines, "order_id=order-1")
    assert.Contains(t, lines, "items=[Kente Shirt x2]")
    assert.Contains(t, lines, "total=430.00 GHS")
    assert.Equal(t, 2, countLines(lines))

    assert.Error(t, c.handleMessage([]byte("{not json")))
}

func countLines(s string) int {
    n := 0
    for _, r := range s {
        if r == '\n' {
            n++
        }
    }
    return n
}

type recordingWriter struct {
    mu     sync.Mutex
    msgs   []kafka.Message
    closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
    w.mu.Lock()
    defer w.mu.Unlock()
    w.msgs = append(w.msgs, msgs...)
    return nil
}

func (w *recordingWriter) Close() error {
    w.mu.Lock()
    defer w.mu.Unlock()
    w.closed = true
    return nil
}

func TestKafkaPublisherFlushesOnClose(t *testing.T) {
    w := &recordingWriter{}
    p := newKafkaPublisher(w, 4)
    p.Start()

    ctx := context.Background()
    for i := 0; i < 3; i++ {
        require.NoError(t, p.PublishOrderPlaced(ctx, sampleOrder()))
    }
    require.NoError(t, p.Close())

    w.mu.Lock()
    defer w.mu.Unlock()
    assert.True(t, w.closed)
    require.Len(t, w.msgs, 3)
    assert.Equal(t, []byte("order-1"), w.msgs[0].Key)

    assert.ErrorIs(t, p.PublishOrderPlaced(ctx, sampleOrder()), ErrPublisherClosed)
}

func TestKafkaPublisherCloseReleasesBlockedPublisher(t *testing.T) {
    w := &recordingWriter{}
    p := newKafkaPublisher(w, 1)
    ctx := context.Background()
    require.NoError(t, p.PublishOrderPlaced(ctx, sampleOrder())) // fills the inbox

    blocked := make(chan error, 1)
    go func() { blocked <- p.PublishOrderPlaced(ctx, sampleOrder()) }()

    // a second publisher must not be held up by the blocked one
    other, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
    defer cancel()
    assert.ErrorIs(t, p.PublishOrderPlaced(other, sampleOrder()), context.DeadlineExceeded)

    closed := make(chan error, 1)
    go func() { closed <- p.Close() }()
    select {
    case err := <-closed:
        require.NoError(t, err)
    case <-time.After(2 * time.Second):
        t.Fatal("Close waited on a blocked publisher")
    }
    assert.ErrorIs(t, <-blocked, ErrPublisherClosed)
    assert.True(t, w.closed)
}

func TestKafkaPublisherCloseWithoutStart(t *testing.T) {
    w := &recordingWriter{}
    p := newKafkaPublisher(w, 1)
    require.NoError(t, p.Close())
    assert.True(t, w.closed)
}
