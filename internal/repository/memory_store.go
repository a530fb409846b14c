package repository

import (
    "context"
    "fmt"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/shopverse/internal/model"
    "github.com/iliyamo/shopverse/internal/utils"
)

// MemoryStore is the default Store.  It keeps every entity in a map
// keyed by id, plus a secondary email index for users and a per-user
// index for carts and orders.  A single RWMutex guards all of it so
// that PlaceOrder can observe and mutate carts, products and orders as
// one step.  Values are copied on the way in and out; callers never
// hold references into the maps.
type MemoryStore struct {
    mu sync.RWMutex

    users        map[string]model.User
    usersByEmail map[string]string

    products map[string]model.Product

    orders       map[string]model.Order
    ordersByUser map[string][]string

    // carts maps user id to product id to row.
    carts map[string]map[string]model.CartItem

    sessions map[string]model.Session

    now   func() time.Time
    newID func() string
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock used for timestamps and expiry.
func WithClock(now func() time.Time) MemoryOption {
    return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator replaces the uuid generator used for new entities.
func WithIDGenerator(gen func() string) MemoryOption {
    return func(s *MemoryStore) { s.newID = gen }
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
    s := &MemoryStore{
        users:        make(map[string]model.User),
        usersByEmail: make(map[string]string),
        products:     make(map[string]model.Product),
        orders:       make(map[string]model.Order),
        ordersByUser: make(map[string][]string),
        carts:        make(map[string]map[string]model.CartItem),
        sessions:     make(map[string]model.Session),
        now:          func() time.Time { return time.Now().UTC() },
        newID:        uuid.NewString,
    }
    for _, o := range opts {
        o(s)
    }
    return s
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// ---- users ----

func (s *MemoryStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    key := emailKey(u.Email)
    if _, taken := s.usersByEmail[key]; taken {
        return model.User{}, ErrEmailExists
    }
    now := s.now()
    u.ID = s.newID()
    u.Email = key
    u.CreatedAt, u.UpdatedAt = now, now
    s.users[u.ID] = u
    s.usersByEmail[key] = u.ID
    return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (model.User, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    id, ok := s.usersByEmail[emailKey(email)]
    if !ok {
        return model.User{}, false, nil
    }
    u, ok := s.users[id]
    return u, ok, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (model.User, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    u, ok := s.users[id]
    return u, ok, nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return len(s.users), nil
}

// ---- products ----

func (s *MemoryStore) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    p.ID = s.newID()
    if p.Currency == "" {
        p.Currency = model.Currency
    }
    p.CreatedAt, p.UpdatedAt = now, now
    s.products[p.ID] = p
    return p, nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (model.Product, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.products[id]
    if !ok {
        return model.Product{}, false, nil
    }
    patch.Apply(&p)
    p.UpdatedAt = s.now()
    s.products[id] = p
    return p, true, nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.products[id]; !ok {
        return false, nil
    }
    delete(s.products, id)
    return true, nil
}

func (s *MemoryStore) GetProductByID(ctx context.Context, id string) (model.Product, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    p, ok := s.products[id]
    return p, ok, nil
}

// ListProducts returns every product ordered by creation time.
func (s *MemoryStore) ListProducts(ctx context.Context) ([]model.Product, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]model.Product, 0, len(s.products))
    for _, p := range s.products {
        out = append(out, p)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].ID < out[j].ID
        }
        return out[i].CreatedAt.Before(out[j].CreatedAt)
    })
    return out, nil
}

func (s *MemoryStore) AdjustStock(ctx context.Context, id string, delta int) (model.Product, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.products[id]
    if !ok {
        return model.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
    }
    if p.CountInStock+delta < 0 {
        return model.Product{}, &StockError{ProductID: id, Requested: -delta, Available: p.CountInStock}
    }
    p.CountInStock += delta
    p.UpdatedAt = s.now()
    s.products[id] = p
    return p, nil
}

// ---- orders ----

func (s *MemoryStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.insertOrderLocked(o), nil
}

func (s *MemoryStore) insertOrderLocked(o model.Order) model.Order {
    now := s.now()
    o = o.Clone()
    o.ID = s.newID()
    if o.Status == "" {
        o.Status = model.OrderPending
    }
    o.CreatedAt, o.UpdatedAt = now, now
    s.orders[o.ID] = o
    s.ordersByUser[o.UserID] = append(s.ordersByUser[o.UserID], o.ID)
    return o.Clone()
}

func (s *MemoryStore) GetOrderByID(ctx context.Context, id string) (model.Order, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    o, ok := s.orders[id]
    if !ok {
        return model.Order{}, false, nil
    }
    return o.Clone(), true, nil
}

// ListOrdersByUser returns the user's orders in insertion order.
func (s *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    ids := s.ordersByUser[userID]
    out := make([]model.Order, 0, len(ids))
    for _, id := range ids {
        out = append(out, s.orders[id].Clone())
    }
    return out, nil
}

func (s *MemoryStore) ListAllOrders(ctx context.Context) ([]model.Order, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]model.Order, 0, len(s.orders))
    for _, o := range s.orders {
        out = append(out, o.Clone())
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].ID < out[j].ID
        }
        return out[i].CreatedAt.Before(out[j].CreatedAt)
    })
    return out, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, id string, mutate func(*model.Order) error) (model.Order, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    cur, ok := s.orders[id]
    if !ok {
        return model.Order{}, false, nil
    }
    next := cur.Clone()
    if err := mutate(&next); err != nil {
        return model.Order{}, true, err
    }
    // identity fields are not writable
    next.ID, next.UserID, next.CreatedAt = cur.ID, cur.UserID, cur.CreatedAt
    next.UpdatedAt = s.now()
    s.orders[id] = next
    return next.Clone(), true, nil
}

// ---- cart ----

func (s *MemoryStore) UpsertCartItem(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    rows := s.carts[userID]
    if rows == nil {
        rows = make(map[string]model.CartItem)
        s.carts[userID] = rows
    }
    it, ok := rows[productID]
    if !ok {
        it = model.CartItem{ID: s.newID(), UserID: userID, ProductID: productID, CreatedAt: now}
    }
    it.Quantity = quantity
    it.UpdatedAt = now
    rows[productID] = it
    return it, nil
}

func (s *MemoryStore) GetCartItem(ctx context.Context, userID, productID string) (model.CartItem, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    it, ok := s.carts[userID][productID]
    return it, ok, nil
}

// ListCart returns the user's rows ordered by when they were added.
func (s *MemoryStore) ListCart(ctx context.Context, userID string) ([]model.CartItem, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.cartLocked(userID), nil
}

func (s *MemoryStore) cartLocked(userID string) []model.CartItem {
    rows := s.carts[userID]
    out := make([]model.CartItem, 0, len(rows))
    for _, it := range rows {
        out = append(out, it)
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].CreatedAt.Equal(out[j].CreatedAt) {
            return out[i].ID < out[j].ID
        }
        return out[i].CreatedAt.Before(out[j].CreatedAt)
    })
    return out
}

func (s *MemoryStore) RemoveCartItem(ctx context.Context, userID, productID string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    rows := s.carts[userID]
    if _, ok := rows[productID]; !ok {
        return false, nil
    }
    delete(rows, productID)
    if len(rows) == 0 {
        delete(s.carts, userID)
    }
    return true, nil
}

func (s *MemoryStore) ClearCart(ctx context.Context, userID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.carts, userID)
    return nil
}

// ---- sessions ----

func (s *MemoryStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error) {
    id, err := utils.NewSessionID()
    if err != nil {
        return model.Session{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    sess := model.Session{ID: id, UserID: userID, ExpiresAt: now.Add(ttl), CreatedAt: now}
    s.sessions[id] = sess
    return sess, nil
}

func (s *MemoryStore) GetSession(ctx context.Context, id string) (model.Session, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.sessions[id]
    if !ok {
        return model.Session{}, false, nil
    }
    if sess.Expired(s.now()) {
        delete(s.sessions, id)
        return model.Session{}, false, nil
    }
    return sess, true, nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.sessions[id]; !ok {
        return false, nil
    }
    delete(s.sessions, id)
    return true, nil
}

func (s *MemoryStore) SweepExpiredSessions(ctx context.Context) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    n := 0
    for id, sess := range s.sessions {
        if sess.Expired(now) {
            delete(s.sessions, id)
            n++
        }
    }
    return n, nil
}

// ---- placement ----

func (s *MemoryStore) PlaceOrder(ctx context.Context, userID string, build OrderBuilder) (model.Order, error) {
    if err := ctx.Err(); err != nil {
        return model.Order{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()

    cart := s.cartLocked(userID)
    products := make(map[string]model.Product, len(cart))
    for _, it := range cart {
        if p, ok := s.products[it.ProductID]; ok {
            products[p.ID] = p
        }
    }
    order, err := build(cart, products)
    if err != nil {
        return model.Order{}, err
    }

    // Check every line before touching anything.
    want := lineTotals(order.OrderItems)
    for pid, qty := range want {
        p, ok := s.products[pid]
        if !ok {
            return model.Order{}, fmt.Errorf("product %s: %w", pid, ErrNotFound)
        }
        if p.CountInStock < qty {
            return model.Order{}, &StockError{ProductID: pid, Requested: qty, Available: p.CountInStock}
        }
    }
    now := s.now()
    for pid, qty := range want {
        p := s.products[pid]
        p.CountInStock -= qty
        p.UpdatedAt = now
        s.products[pid] = p
    }
    order.UserID = userID
    placed := s.insertOrderLocked(order)
    delete(s.carts, userID)
    return placed, nil
}
