package repository

import (
    "context"
    "time"

    "github.com/iliyamo/shopverse/internal/model"
)

// OrderBuilder turns a cart and the current state of the products it
// references into an order.  It runs inside the store's transaction
// boundary, so the products it sees are exactly the ones that will be
// decremented.  Products absent from the map no longer exist.  Any
// error aborts the placement with nothing applied.
type OrderBuilder func(cart []model.CartItem, products map[string]model.Product) (model.Order, error)

// Store is the authoritative keyed storage for every entity type.
// Lookups report absence through a found flag; the error return is
// reserved for engine failures.  Every returned value is a copy.
type Store interface {
    CreateUser(ctx context.Context, u model.User) (model.User, error)
    GetUserByEmail(ctx context.Context, email string) (model.User, bool, error)
    GetUserByID(ctx context.Context, id string) (model.User, bool, error)
    CountUsers(ctx context.Context) (int, error)

    CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
    UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (model.Product, bool, error)
    DeleteProduct(ctx context.Context, id string) (bool, error)
    GetProductByID(ctx context.Context, id string) (model.Product, bool, error)
    ListProducts(ctx context.Context) ([]model.Product, error)
    // AdjustStock applies delta to a product's stock as one atomic
    // step.  It returns ErrNotFound for an unknown product and a
    // *StockError when the result would be negative.
    AdjustStock(ctx context.Context, id string, delta int) (model.Product, error)

    CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
    GetOrderByID(ctx context.Context, id string) (model.Order, bool, error)
    ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
    ListAllOrders(ctx context.Context) ([]model.Order, error)
    // UpdateOrder runs mutate against the current order under the
    // store's lock and persists the result unless mutate fails.
    UpdateOrder(ctx context.Context, id string, mutate func(*model.Order) error) (model.Order, bool, error)

    // UpsertCartItem sets the quantity of the (userID, productID) row,
    // inserting it when absent.
    UpsertCartItem(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error)
    GetCartItem(ctx context.Context, userID, productID string) (model.CartItem, bool, error)
    ListCart(ctx context.Context, userID string) ([]model.CartItem, error)
    RemoveCartItem(ctx context.Context, userID, productID string) (bool, error)
    ClearCart(ctx context.Context, userID string) error

    CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error)
    // GetSession deletes and reports absent a session past its expiry.
    GetSession(ctx context.Context, id string) (model.Session, bool, error)
    DeleteSession(ctx context.Context, id string) (bool, error)
    SweepExpiredSessions(ctx context.Context) (int, error)

    // PlaceOrder loads the user's cart and products, calls build, then
    // decrements stock for every line, inserts the order and clears the
    // cart.  Either all of it is applied or none of it is.
    PlaceOrder(ctx context.Context, userID string, build OrderBuilder) (model.Order, error)
}

// lineTotals sums order quantities per product.
func lineTotals(items []model.OrderItem) map[string]int {
    out := make(map[string]int, len(items))
    for _, it := range items {
        out[it.ProductID] += it.Quantity
    }
    return out
}

var (
    _ Store = (*MemoryStore)(nil)
    _ Store = (*MySQLStore)(nil)
)
