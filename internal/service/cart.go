package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
)

// CartService manages per-user carts.  Read-modify-write sequences on a
// user's cart are serialised through a striped lock so concurrent adds
// for the same user never lose an increment.
type CartService struct {
	store repository.Store
	locks [32]sync.Mutex
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

func (s *CartService) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	m := &s.locks[h.Sum32()%uint32(len(s.locks))]
	m.Lock()
	return m.Unlock
}

// Add puts quantity more of a product into the cart, merging with an
// existing row.  The merged quantity must fit the current stock.
func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error) {
	if quantity < 1 {
		return model.CartItem{}, invalid("quantity", "quantity must be at least 1")
	}
	defer s.lock(userID)()
	cur, found, err := s.store.GetCartItem(ctx, userID, productID)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("get cart item: %w", err)
	}
	want := quantity
	if found {
		want += cur.Quantity
	}
	return s.put(ctx, userID, productID, want)
}

// SetQuantity replaces the quantity of a product in the cart.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error) {
	if quantity < 1 {
		return model.CartItem{}, invalid("quantity", "quantity must be at least 1")
	}
	defer s.lock(userID)()
	return s.put(ctx, userID, productID, quantity)
}

func (s *CartService) put(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error) {
	p, found, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("get product: %w", err)
	}
	if !found {
		return model.CartItem{}, ErrProductNotFound
	}
	if quantity > p.CountInStock {
		return model.CartItem{}, &StockError{ProductID: p.ID, Requested: quantity, Available: p.CountInStock}
	}
	it, err := s.store.UpsertCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return model.CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return it, nil
}

// List returns the cart joined with current product data.  Rows whose
// product has been deleted are removed from the store.
func (s *CartService) List(ctx context.Context, userID string) ([]model.CartLine, error) {
	rows, err := s.store.ListCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	lines := make([]model.CartLine, 0, len(rows))
	for _, it := range rows {
		p, found, err := s.store.GetProductByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if !found {
			if _, err := s.store.RemoveCartItem(ctx, userID, it.ProductID); err != nil {
				log.Printf("cart: remove orphan %s for %s: %v", it.ProductID, userID, err)
			}
			continue
		}
		lines = append(lines, model.CartLine{CartItem: it, Product: p})
	}
	return lines, nil
}

// CartTotals sums a cart's quantities and line prices.
func CartTotals(lines []model.CartLine) (items int, price decimal.Decimal) {
	price = decimal.Zero
	for _, l := range lines {
		items += l.Quantity
		price = price.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return items, price
}

// Remove deletes one product from the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID string) (bool, error) {
	defer s.lock(userID)()
	ok, err := s.store.RemoveCartItem(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}
	return ok, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	defer s.lock(userID)()
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
