package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN("shop", "p@ss:word", "db.internal", "3306", "shopverse")

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Passwd)
	assert.Equal(t, "db.internal:3306", cfg.Addr)
	assert.Equal(t, "shopverse", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
}
