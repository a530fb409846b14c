package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
    OrderPending    OrderStatus = "pending"
    OrderProcessing OrderStatus = "processing"
    OrderShipped    OrderStatus = "shipped"
    OrderDelivered  OrderStatus = "delivered"
    OrderCancelled  OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
    OrderPending:    {OrderProcessing: true, OrderShipped: true, OrderDelivered: true, OrderCancelled: true},
    OrderProcessing: {OrderShipped: true, OrderDelivered: true, OrderCancelled: true},
    OrderShipped:    {OrderDelivered: true, OrderCancelled: true},
    OrderDelivered:  {OrderCancelled: true},
    OrderCancelled:  {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
    _, ok := validNext[s]
    return ok
}

// CanTransition reports whether an order may move from one status to
// another.  Staying in the same status is always allowed.
func CanTransition(from, to OrderStatus) bool {
    if from == to {
        return true
    }
    return validNext[from][to]
}

// OrderItem is a snapshot of a product taken when the order was placed.
// Later edits to the product never change it.
type OrderItem struct {
    ProductID string          `json:"productId"`
    Name      string          `json:"name"`
    Image     string          `json:"image"`
    Price     decimal.Decimal `json:"price"`
    Quantity  int             `json:"quantity"`
}

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
    Address    string `json:"address"`
    City       string `json:"city"`
    PostalCode string `json:"postalCode"`
    Country    string `json:"country"`
}

// PaymentResult records what the (simulated) payment step reported.
type PaymentResult struct {
    ID           string `json:"id"`
    Status       string `json:"status"`
    UpdateTime   string `json:"updateTime"`
    EmailAddress string `json:"emailAddress"`
}

// Order is an immutable record of a checkout plus its mutable
// fulfilment state.  TotalPrice always equals ItemsPrice + TaxPrice +
// ShippingPrice.
type Order struct {
    ID              string          `json:"id"`
    UserID          string          `json:"userId"`
    OrderItems      []OrderItem     `json:"orderItems"`
    ShippingAddress ShippingAddress `json:"shippingAddress"`
    PaymentMethod   string          `json:"paymentMethod"`
    PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
    ItemsPrice      decimal.Decimal `json:"itemsPrice"`
    TaxPrice        decimal.Decimal `json:"taxPrice"`
    ShippingPrice   decimal.Decimal `json:"shippingPrice"`
    TotalPrice      decimal.Decimal `json:"totalPrice"`
    IsPaid          bool            `json:"isPaid"`
    PaidAt          *time.Time      `json:"paidAt,omitempty"`
    IsDelivered     bool            `json:"isDelivered"`
    DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
    Status          OrderStatus     `json:"status"`
    CreatedAt       time.Time       `json:"createdAt"`
    UpdatedAt       time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices or pointers
// with the store.
func (o Order) Clone() Order {
    out := o
    out.OrderItems = append([]OrderItem(nil), o.OrderItems...)
    if o.PaymentResult != nil {
        pr := *o.PaymentResult
        out.PaymentResult = &pr
    }
    if o.PaidAt != nil {
        t := *o.PaidAt
        out.PaidAt = &t
    }
    if o.DeliveredAt != nil {
        t := *o.DeliveredAt
        out.DeliveredAt = &t
    }
    return out
}
