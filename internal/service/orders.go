package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
)

// Pricing holds the charges applied at checkout.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricing is 12.5% VAT, free shipping above GHS 500, else GHS 25.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.125"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(25),
	}
}

// Totals prices an items subtotal.  Tax is rounded to cents so that the
// stored total is exactly the sum of its parts.
func (p Pricing) Totals(items decimal.Decimal) (tax, shipping, total decimal.Decimal) {
	tax = items.Mul(p.TaxRate).Round(2)
	shipping = p.ShippingFee
	if items.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return tax, shipping, items.Add(tax).Add(shipping)
}

// EventPublisher receives committed orders.  Implementations live in
// the queue package.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o model.Order) error
}

// PlaceOrderInput is the checkout request.
type PlaceOrderInput struct {
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
}

// OrderUpdate is an admin change to an order.  Nil fields are left
// untouched.
type OrderUpdate struct {
	Status          *model.OrderStatus     `json:"status"`
	IsPaid          *bool                  `json:"isPaid"`
	IsDelivered     *bool                  `json:"isDelivered"`
	PaymentResult   *model.PaymentResult   `json:"paymentResult"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   *string                `json:"paymentMethod"`
}

// OrderService converts carts into orders and administers them.
type OrderService struct {
	store   repository.Store
	pricing Pricing
	events  EventPublisher
	now     func() time.Time
}

// NewOrderService returns an OrderService.  events may be nil.
func NewOrderService(store repository.Store, pricing Pricing, events EventPublisher) *OrderService {
	return &OrderService{
		store:   store,
		pricing: pricing,
		events:  events,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Place checks out the user's cart.  Validation, pricing, the stock
// decrement, the insert and the cart clear happen as one store step;
// on any error nothing changes.
func (s *OrderService) Place(ctx context.Context, userID string, in PlaceOrderInput) (model.Order, error) {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	addr := &in.ShippingAddress
	addr.Address = strings.TrimSpace(addr.Address)
	addr.City = strings.TrimSpace(addr.City)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.TrimSpace(addr.Country)
	if in.PaymentMethod == "" || addr.Address == "" || addr.City == "" || addr.Country == "" {
		return model.Order{}, ErrInvalidInput
	}

	order, err := s.store.PlaceOrder(ctx, userID, func(cart []model.CartItem, products map[string]model.Product) (model.Order, error) {
		return s.build(in, cart, products)
	})
	if err != nil {
		return model.Order{}, err
	}

	if s.events != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.events.PublishOrderPlaced(pctx, order); err != nil {
			log.Printf("orders: publish order.placed %s: %v", order.ID, err)
		}
	}
	return order, nil
}

func (s *OrderService) build(in PlaceOrderInput, cart []model.CartItem, products map[string]model.Product) (model.Order, error) {
	if len(cart) == 0 {
		return model.Order{}, ErrEmptyCart
	}
	items := make([]model.OrderItem, 0, len(cart))
	subtotal := decimal.Zero
	for _, it := range cart {
		p, ok := products[it.ProductID]
		if !ok {
			return model.Order{}, &ProductGoneError{ProductID: it.ProductID}
		}
		if it.Quantity > p.CountInStock {
			return model.Order{}, &StockError{ProductID: p.ID, Requested: it.Quantity, Available: p.CountInStock}
		}
		items = append(items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax, shipping, total := s.pricing.Totals(subtotal)
	return model.Order{
		OrderItems:      items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      subtotal,
		TaxPrice:        tax,
		ShippingPrice:   shipping,
		TotalPrice:      total,
		Status:          model.OrderPending,
	}, nil
}

// Get returns an order visible to viewer.
func (s *OrderService) Get(ctx context.Context, viewer model.AuthUser, id string) (model.Order, error) {
	o, found, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !found {
		return model.Order{}, ErrOrderNotFound
	}
	if !viewer.IsAdmin() && o.UserID != viewer.ID {
		return model.Order{}, ErrForbidden
	}
	return o, nil
}

// List returns every order for an admin and the viewer's own orders
// otherwise, newest first.
func (s *OrderService) List(ctx context.Context, viewer model.AuthUser) ([]model.Order, error) {
	var (
		orders []model.Order
		err    error
	)
	if viewer.IsAdmin() {
		orders, err = s.store.ListAllOrders(ctx)
	} else {
		orders, err = s.store.ListOrdersByUser(ctx, viewer.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Update applies an admin change.  Status only moves forward; marking
// an order delivered moves its status to delivered.
func (s *OrderService) Update(ctx context.Context, id string, u OrderUpdate) (model.Order, error) {
	if u.Status != nil && !u.Status.Valid() {
		return model.Order{}, invalid("status", "invalid status %q", string(*u.Status))
	}
	if u.ShippingAddress != nil {
		a := u.ShippingAddress
		if strings.TrimSpace(a.Address) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
			return model.Order{}, invalid("shippingAddress", "complete shipping address is required")
		}
	}
	if u.PaymentMethod != nil && strings.TrimSpace(*u.PaymentMethod) == "" {
		return model.Order{}, invalid("paymentMethod", "payment method cannot be empty")
	}
	if u.Status != nil && u.IsDelivered != nil && *u.IsDelivered && *u.Status != model.OrderDelivered {
		return model.Order{}, invalid("status", "a delivered order must have status delivered")
	}

	o, found, err := s.store.UpdateOrder(ctx, id, func(o *model.Order) error {
		return s.apply(o, u)
	})
	if err != nil {
		return model.Order{}, err
	}
	if !found {
		return model.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) apply(o *model.Order, u OrderUpdate) error {
	now := s.now()
	target := o.Status
	if u.Status != nil {
		target = *u.Status
	}
	if u.IsDelivered != nil {
		switch {
		case *u.IsDelivered && !o.IsDelivered:
			target = model.OrderDelivered
			o.IsDelivered = true
			o.DeliveredAt = &now
		case !*u.IsDelivered && o.IsDelivered:
			return ErrInvalidTransition
		}
	}
	if !model.CanTransition(o.Status, target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, target)
	}
	if target == model.OrderDelivered && !o.IsDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	o.Status = target

	if u.IsPaid != nil && *u.IsPaid != o.IsPaid {
		o.IsPaid = *u.IsPaid
		if o.IsPaid {
			o.PaidAt = &now
		} else {
			o.PaidAt = nil
		}
	}
	if u.PaymentResult != nil {
		pr := *u.PaymentResult
		o.PaymentResult = &pr
	}
	if u.ShippingAddress != nil {
		o.ShippingAddress = *u.ShippingAddress
	}
	if u.PaymentMethod != nil {
		o.PaymentMethod = strings.TrimSpace(*u.PaymentMethod)
	}
	return nil
}
