// Package queue defines message payloads exchanged over the message
// broker, the publishers that emit them and the audit consumer.
package queue

import (
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/shopverse/internal/model"
)

const (
    EventOrderPlaced = "OrderPlaced"

    // TopicOrderPlaced is both the RabbitMQ queue name and the Kafka topic.
    TopicOrderPlaced = "order.placed"
)

// Envelope wraps every event with routing and tracing metadata.
type Envelope struct {
    EventID       string          `json:"event_id"`
    EventType     string          `json:"event_type"`
    EventVersion  int             `json:"event_version"`
    OccurredAt    time.Time       `json:"occurred_at"`
    Producer      string          `json:"producer"`
    CorrelationID string          `json:"correlation_id,omitempty"` // order id
    Payload       json.RawMessage `json:"payload"`
}

// OrderPlacedItem is one line of a placed order.
type OrderPlacedItem struct {
    ProductID string          `json:"product_id"`
    Name      string          `json:"name"`
    Quantity  int             `json:"quantity"`
    Price     decimal.Decimal `json:"price"`
}

// OrderPlacedPayload is published once an order has been committed.  It
// carries enough information for downstream consumers to log, notify
// or trigger fulfilment without querying the store.
type OrderPlacedPayload struct {
    OrderID       string            `json:"order_id"`
    UserID        string            `json:"user_id"`
    Items         []OrderPlacedItem `json:"items"`
    ItemsPrice    decimal.Decimal   `json:"items_price"`
    TaxPrice      decimal.Decimal   `json:"tax_price"`
    ShippingPrice decimal.Decimal   `json:"shipping_price"`
    TotalPrice    decimal.Decimal   `json:"total_price"`
    Currency      string            `json:"currency"`
    PaymentMethod string            `json:"payment_method"`
    City          string            `json:"city"`
    Country       string            `json:"country"`
    PlacedAt      string            `json:"placed_at"`
}

// NewOrderPlacedPayload snapshots an order for publishing.
func NewOrderPlacedPayload(o model.Order) OrderPlacedPayload {
    items := make([]OrderPlacedItem, 0, len(o.OrderItems))
    for _, it := range o.OrderItems {
        items = append(items, OrderPlacedItem{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
    }
    return OrderPlacedPayload{
        OrderID:       o.ID,
        UserID:        o.UserID,
        Items:         items,
        ItemsPrice:    o.ItemsPrice,
        TaxPrice:      o.TaxPrice,
        ShippingPrice: o.ShippingPrice,
        TotalPrice:    o.TotalPrice,
        Currency:      model.Currency,
        PaymentMethod: o.PaymentMethod,
        City:          o.ShippingAddress.City,
        Country:       o.ShippingAddress.Country,
        PlacedAt:      o.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// NewOrderPlacedEnvelope builds the JSON body sent to either broker.
func NewOrderPlacedEnvelope(producer string, o model.Order) ([]byte, error) {
    payload, err := json.Marshal(NewOrderPlacedPayload(o))
    if err != nil {
        return nil, err
    }
    return json.Marshal(Envelope{
        EventID:       uuid.NewString(),
        EventType:     EventOrderPlaced,
        EventVersion:  1,
        OccurredAt:    time.Now().UTC(),
        Producer:      producer,
        CorrelationID: o.ID,
        Payload:       payload,
    })
}

// DecodeOrderPlaced unwraps an envelope and its order payload.
func DecodeOrderPlaced(body []byte) (Envelope, OrderPlacedPayload, error) {
    var env Envelope
    var p OrderPlacedPayload
    if err := json.Unmarshal(body, &env); err != nil {
        return env, p, err
    }
    if err := json.Unmarshal(env.Payload, &p); err != nil {
        return env, p, err
    }
    return env, p, nil
}
