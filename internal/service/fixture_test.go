package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
	"github.com/iliyamo/shopverse/internal/utils"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingStore records session creations so tests can assert that a
// failed login opened nothing.
type countingStore struct {
	repository.Store
	sessions atomic.Int32
}

func (s *countingStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error) {
	s.sessions.Add(1)
	return s.Store.CreateSession(ctx, userID, ttl)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, o model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type fixture struct {
	clock   *testClock
	store   *countingStore
	auth    *AuthService
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
	stats   *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	store := &countingStore{Store: repository.NewMemoryStore(repository.WithClock(clk.Now))}
	f := &fixture{
		clock:   clk,
		store:   store,
		auth:    NewAuthService(store, utils.Bcrypt{Cost: bcrypt.MinCost}, "test-secret", 7*24*time.Hour),
		catalog: NewCatalogService(store),
		cart:    NewCartService(store),
		orders:  NewOrderService(store, DefaultPricing(), nil),
		stats:   NewStatsService(store),
	}
	f.orders.now = clk.Now
	return f
}

// product inserts a product and moves the clock so creation times are
// strictly increasing.
func (f *fixture) product(t *testing.T, name, category string, price int64, stock int) model.Product {
	t.Helper()
	p, err := f.store.CreateProduct(context.Background(), model.Product{
		Name:         name,
		Description:  name + " description",
		Price:        decimal.NewFromInt(price),
		Category:     category,
		CountInStock: stock,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return p
}

func (f *fixture) user(t *testing.T, email string) model.AuthUser {
	t.Helper()
	u, _, err := f.auth.Register(context.Background(), "Test User", email, "secret1")
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T) model.AuthUser {
	t.Helper()
	hash, err := utils.Bcrypt{Cost: bcrypt.MinCost}.Hash("admin123")
	require.NoError(t, err)
	u, err := f.store.CreateUser(context.Background(), model.User{Name: "Admin", Email: "admin@shopverse.com", PasswordHash: hash, Role: model.RoleAdmin})
	require.NoError(t, err)
	return u.Auth()
}

func validCheckout() PlaceOrderInput {
	return PlaceOrderInput{
		ShippingAddress: model.ShippingAddress{Address: "12 Ring Road", City: "Accra", PostalCode: "GA-123", Country: "Ghana"},
		PaymentMethod:   "Mobile Money",
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
