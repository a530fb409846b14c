package config

import (
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
    for _, k := range []string{"STORE_DRIVER", "SEED_DATA", "SESSION_TTL", "TAX_RATE", "EVENT_BROKER", "APP_ENV", "SESSION_SECRET"} {
        t.Setenv(k, "")
    }
    c := Load()
    require.NoError(t, c.Validate())
    assert.Equal(t, StoreMemory, c.StoreDriver)
    assert.True(t, c.SeedData)
    assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
    assert.Equal(t, time.Hour, c.SweepInterval)
    assert.True(t, c.Pricing.TaxRate.Equal(decimal.RequireFromString("0.125")))
    assert.True(t, c.Pricing.FreeShippingThreshold.Equal(decimal.NewFromInt(500)))
    assert.True(t, c.Pricing.ShippingFee.Equal(decimal.NewFromInt(25)))
    assert.Equal(t, BrokerNone, c.EventBroker)
    assert.NotEmpty(t, c.SessionSecret)
    assert.False(t, c.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
    t.Setenv("SESSION_TTL", "2h")
    t.Setenv("TAX_RATE", "0.15")
    t.Setenv("SEED_DATA", "off")
    t.Setenv("EVENT_BROKER", "Kafka")
    t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
    t.Setenv("BCRYPT_COST", "not-a-number")

    c := Load()
    require.NoError(t, c.Validate())
    assert.Equal(t, 2*time.Hour, c.SessionTTL)
    assert.True(t, c.Pricing.TaxRate.Equal(decimal.RequireFromString("0.15")))
    assert.False(t, c.SeedData)
    assert.Equal(t, BrokerKafka, c.EventBroker)
    assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
    assert.Equal(t, 10, c.BcryptCost)
}

func TestValidateRejects(t *testing.T) {
    base := Load()
    tests := []struct {
        name   string
        mutate func(*Config)
    }{
        {"unknown store", func(c *Config) { c.StoreDriver = "postgres" }},
        {"unknown broker", func(c *Config) { c.EventBroker = "sqs" }},
        {"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
        {"negative fee", func(c *Config) { c.Pricing.ShippingFee = decimal.NewFromInt(-1) }},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            c := base
            tt.mutate(&c)
            assert.Error(t, c.Validate())
        })
    }
}

func TestRateLimitConfigClamps(t *testing.T) {
    t.Setenv("AUTH_RATE_LIMIT_CAPACITY", "0")
    t.Setenv("AUTH_RATE_LIMIT_REFILL_INTERVAL", "1m")
    t.Setenv("AUTH_RATE_LIMIT_TTL", "1s")

    c := LoadAuthRateLimitConfig()
    assert.Equal(t, 1, c.Capacity)
    assert.Equal(t, time.Minute, c.RefillInterval)
    assert.Equal(t, 5*time.Minute, c.TTL)
    assert.Equal(t, "shopverse:rl:auth", c.Prefix)

    api := LoadRateLimitConfig()
    assert.Equal(t, 60, api.Capacity)
}

func TestCacheConfigMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    c := LoadCacheConfig()
    assert.True(t, c.Methods["GET"])
    assert.True(t, c.Methods["HEAD"])
    assert.False(t, c.Methods["POST"])
    assert.True(t, c.Cacheable("get"))
}
