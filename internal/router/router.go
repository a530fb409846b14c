package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/shopverse/internal/config"
	"github.com/iliyamo/shopverse/internal/handler"
	"github.com/iliyamo/shopverse/internal/middleware"
	"github.com/iliyamo/shopverse/internal/model"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Stats    *handler.StatsHandler
	Health   echo.HandlerFunc
}

// Options carries the redis-backed middleware settings.  A nil Redis
// disables the rate limiters and the response cache.
type Options struct {
	Redis         *redis.Client
	Cache         config.CacheConfig
	RateLimit     config.RateLimitConfig
	AuthRateLimit config.RateLimitConfig
}

// Register mounts every route on e.  Authenticate runs for the whole
// /api tree so that handlers and the limiter can see the caller.
func Register(e *echo.Echo, h Handlers, sessions middleware.SessionResolver, opt Options) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api",
		middleware.Authenticate(sessions),
		middleware.NewTokenBucket(opt.RateLimit, opt.Redis),
	)

	// auth
	authLimit := middleware.NewTokenBucket(opt.AuthRateLimit, opt.Redis)
	a := api.Group("/auth")
	a.POST("/register", h.Auth.Register, authLimit)
	a.POST("/login", h.Auth.Login, authLimit)
	a.POST("/logout", h.Auth.Logout)
	a.GET("/me", h.Auth.Me, middleware.RequireAuth())

	// storefront catalog; only listings are cached since single products
	// change with every checkout
	api.GET("/products", h.Products.List, middleware.NewRedisCache(opt.Cache, opt.Redis))
	api.GET("/products/:id", h.Products.Get)
	api.GET("/categories", h.Products.Categories)

	customer := middleware.RequireRole(model.RoleUser)
	cart := api.Group("/cart", customer)
	cart.GET("", h.Cart.Get)
	cart.POST("", h.Cart.Add)
	cart.PUT("", h.Cart.Set)
	cart.DELETE("", h.Cart.Delete)

	orders := api.Group("/orders", customer)
	orders.GET("", h.Orders.List)
	// a checkout changes stock, which the cached listing shows
	orders.POST("", h.Orders.Place, middleware.PurgeOnWrite(opt.Cache, opt.Redis))
	orders.GET("/:id", h.Orders.Get)
	orders.PUT("/:id", h.Orders.Update, middleware.RequireRole(model.RoleAdmin))

	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	ap := admin.Group("/products", middleware.PurgeOnWrite(opt.Cache, opt.Redis))
	ap.GET("", h.Products.AdminList)
	ap.POST("", h.Products.Create)
	ap.GET("/:id", h.Products.Get)
	ap.PUT("/:id", h.Products.Update)
	ap.DELETE("/:id", h.Products.Delete)
	ap.POST("/:id/stock", h.Products.AdjustStock)
	admin.GET("/stats", h.Stats.Get)
}
