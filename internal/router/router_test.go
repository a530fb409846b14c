package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/shopverse/internal/handler"
	"github.com/iliyamo/shopverse/internal/middleware"
	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
	"github.com/iliyamo/shopverse/internal/service"
	"github.com/iliyamo/shopverse/internal/utils"
)

const (
	adminEmail    = "admin@shopverse.test"
	adminPassword = "admin123"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type app struct {
	t *testing.T
	e *echo.Echo
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := repository.NewMemoryStore()
	hasher := utils.Bcrypt{Cost: bcrypt.MinCost}
	require.NoError(t, service.Seed(context.Background(), store, hasher, service.SeedOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}))

	auth := service.NewAuthService(store, hasher, "router-test-secret", time.Hour)
	e := echo.New()
	Register(e, Handlers{
		Auth:     handler.NewAuthHandler(auth, false),
		Products: handler.NewProductHandler(service.NewCatalogService(store)),
		Cart:     handler.NewCartHandler(service.NewCartService(store)),
		Orders:   handler.NewOrderHandler(service.NewOrderService(store, service.DefaultPricing(), nil)),
		Stats:    handler.NewStatsHandler(service.NewStatsService(store)),
		Health:   handler.Health(nil),
	}, auth, Options{})
	return &app{t: t, e: e}
}

func (a *app) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type authData struct {
	User  model.AuthUser `json:"user"`
	Token string         `json:"token"`
}

func (a *app) login(email, password string) string {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, env.Error)
	return decode[authData](a.t, env.Data).Token
}

var checkout = map[string]any{
	"shippingAddress": map[string]string{"address": "12 Oxford St", "city": "Accra", "postalCode": "GA-123", "country": "Ghana"},
	"paymentMethod":   "MobileMoney",
}

func TestRouter_CheckoutFlow(t *testing.T) {
	a := newApp(t)

	rec, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ama Owusu", "email": "ama@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	assert.True(t, env.Success)
	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	token := decode[authData](t, env.Data).Token
	assert.Equal(t, cookie.Value, token)

	rec, env = a.do(http.MethodGet, "/api/products?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.ProductPage](t, env.Data)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 2)
	product := page.Items[0]

	rec, env = a.do(http.MethodPost, "/api/cart", token, map[string]any{"productId": product.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	rec, env = a.do(http.MethodPost, "/api/cart", token, map[string]any{"productId": product.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	cart := decode[struct {
		TotalItems int `json:"totalItems"`
	}](t, env.Data)
	assert.Equal(t, 3, cart.TotalItems)

	rec, env = a.do(http.MethodPost, "/api/orders", token, checkout)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	order := decode[model.Order](t, env.Data)
	assert.Equal(t, model.OrderPending, order.Status)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)
	assert.True(t, order.TotalPrice.Equal(order.ItemsPrice.Add(order.TaxPrice).Add(order.ShippingPrice)))

	rec, env = a.do(http.MethodGet, "/api/products/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, product.CountInStock-3, decode[model.Product](t, env.Data).CountInStock)

	_, env = a.do(http.MethodGet, "/api/cart", token, nil)
	assert.Zero(t, decode[struct {
		TotalItems int `json:"totalItems"`
	}](t, env.Data).TotalItems)

	rec, _ = a.do(http.MethodPut, "/api/orders/"+order.ID, token, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := a.login(adminEmail, adminPassword)
	rec, env = a.do(http.MethodPut, "/api/orders/"+order.ID, adminToken, map[string]any{"isDelivered": true})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Equal(t, model.OrderDelivered, decode[model.Order](t, env.Data).Status)

	rec, env = a.do(http.MethodPut, "/api/orders/"+order.ID, adminToken, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code, env.Error)

	rec, env = a.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[service.Stats](t, env.Data)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.True(t, stats.TotalRevenue.Equal(order.TotalPrice))
}

func TestRouter_ErrorStatuses(t *testing.T) {
	a := newApp(t)
	rec, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Kwame", "email": "kwame@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	token := decode[authData](t, env.Data).Token

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"duplicate email", http.MethodPost, "/api/auth/register", "", map[string]string{"name": "K", "email": "KWAME@example.com", "password": "secret1"}, http.StatusConflict},
		{"overlong password", http.MethodPost, "/api/auth/register", "", map[string]string{"name": "K", "email": "k3@example.com", "password": strings.Repeat("x", 73)}, http.StatusBadRequest},
		{"weak password", http.MethodPost, "/api/auth/register", "", map[string]string{"name": "K", "email": "k2@example.com", "password": "123"}, http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "kwame@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"cart anonymous", http.MethodGet, "/api/cart", "", nil, http.StatusUnauthorized},
		{"me anonymous", http.MethodGet, "/api/auth/me", "", nil, http.StatusUnauthorized},
		{"unknown product", http.MethodGet, "/api/products/missing", "", nil, http.StatusNotFound},
		{"add unknown product", http.MethodPost, "/api/cart", token, map[string]any{"productId": "missing", "quantity": 1}, http.StatusNotFound},
		{"empty cart checkout", http.MethodPost, "/api/orders", token, checkout, http.StatusBadRequest},
		{"incomplete checkout", http.MethodPost, "/api/orders", token, map[string]any{"paymentMethod": "Cash"}, http.StatusBadRequest},
		{"remove absent line", http.MethodDelete, "/api/cart?productId=missing", token, nil, http.StatusNotFound},
		{"admin as user", http.MethodGet, "/api/admin/stats", token, nil, http.StatusForbidden},
		{"admin anonymous", http.MethodPost, "/api/admin/products", "", map[string]any{"name": "X"}, http.StatusUnauthorized},
		{"unknown order", http.MethodGet, "/api/orders/missing", token, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := a.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestRouter_StockLimitOnCart(t *testing.T) {
	a := newApp(t)
	adminToken := a.login(adminEmail, adminPassword)

	rec, env := a.do(http.MethodPost, "/api/admin/products", adminToken, map[string]any{
		"name": "Kente Scarf", "description": "Hand woven", "price": "45.50", "category": "Fashion", "image": "/img/scarf.jpg", "countInStock": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	p := decode[model.Product](t, env.Data)

	rec, env = a.do(http.MethodPost, "/api/cart", adminToken, map[string]any{"productId": p.ID, "quantity": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "insufficient stock")

	rec, env = a.do(http.MethodPost, "/api/admin/products/"+p.ID+"/stock", adminToken, map[string]any{"delta": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code, env.Error)

	rec, _ = a.do(http.MethodDelete, "/api/admin/products/"+p.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(http.MethodDelete, "/api/admin/products/"+p.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_LogoutRevokesSession(t *testing.T) {
	a := newApp(t)
	token := a.login(adminEmail, adminPassword)

	rec, _ := a.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := a.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)

	rec, _ = a.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
