package main // Entry point package

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/shopverse/internal/config"
	"github.com/iliyamo/shopverse/internal/database"
	"github.com/iliyamo/shopverse/internal/handler"
	"github.com/iliyamo/shopverse/internal/queue"
	"github.com/iliyamo/shopverse/internal/repository"
	"github.com/iliyamo/shopverse/internal/router"
	"github.com/iliyamo/shopverse/internal/service"
	"github.com/iliyamo/shopverse/internal/utils"
)

// publisher is an order event sink that owns broker resources.
type publisher interface {
	service.EventPublisher
	io.Closer
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	// prices travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}

	store, closeStore := openStore(ctx, cfg, checks)
	defer closeStore()

	hasher := utils.Bcrypt{Cost: cfg.BcryptCost}
	if cfg.SeedData {
		if err := service.Seed(ctx, store, hasher, service.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	events := openPublisher(cfg)
	if events != nil {
		defer func() {
			if err := events.Close(); err != nil {
				log.Printf("event publisher close: %v", err)
			}
		}()
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Printf("redis unavailable, rate limiting and caching disabled: %v", err)
	} else {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	auth := service.NewAuthService(store, hasher, cfg.SessionSecret, cfg.SessionTTL)
	pricing := service.Pricing{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		ShippingFee:           cfg.Pricing.ShippingFee,
	}
	var sink service.EventPublisher
	if events != nil {
		sink = events
	}

	e := newServer(cfg)
	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(auth, cfg.CookieSecure),
		Products: handler.NewProductHandler(service.NewCatalogService(store)),
		Cart:     handler.NewCartHandler(service.NewCartService(store)),
		Orders:   handler.NewOrderHandler(service.NewOrderService(store, pricing, sink)),
		Stats:    handler.NewStatsHandler(service.NewStatsService(store)),
		Health:   handler.Health(checks),
	}, auth, routerOptions(rdb))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s, store=%s, broker=%s)", addr, cfg.Env, cfg.StoreDriver, cfg.EventBroker)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		return service.SessionSweeper{Store: store, Interval: cfg.SweepInterval}.Run(gctx)
	})
	if cfg.ConsumerEnabled && cfg.EventBroker == config.BrokerRabbitMQ {
		g.Go(func() error {
			return queue.NewOrderConsumer(cfg.RabbitURL, cfg.OrderLogPath).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Printf("shutdown complete")
}

func newServer(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	}
	return e
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}

// openStore selects the entity store engine.  The returned func
// releases it.
func openStore(ctx context.Context, cfg config.Config, checks map[string]handler.Check) (repository.Store, func()) {
	if cfg.StoreDriver != config.StoreMySQL {
		log.Printf("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}
	}
	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := database.Open(ctx, dsn, database.DefaultPool)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
	}
	checks["mysql"] = db.PingContext
	return repository.NewMySQLStore(db), func() { _ = db.Close() }
}

// openPublisher returns nil when events are disabled.
func openPublisher(cfg config.Config) publisher {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		return queue.NewRabbitPublisher(cfg.RabbitURL)
	case config.BrokerKafka:
		p := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 256)
		p.Start()
		return p
	default:
		return nil
	}
}

func routerOptions(rdb *redis.Client) router.Options {
	return router.Options{
		Redis:         rdb,
		Cache:         config.LoadCacheConfig(),
		RateLimit:     config.LoadRateLimitConfig(),
		AuthRateLimit: config.LoadAuthRateLimitConfig(),
	}
}
