package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the MySQL store reads and writes.  Each
// statement is idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		name          VARCHAR(200) NOT NULL,
		email         VARCHAR(320) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role          ENUM('user','admin') NOT NULL DEFAULT 'user',
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		name           VARCHAR(200)  NOT NULL,
		description    VARCHAR(2000) NOT NULL DEFAULT '',
		price          DECIMAL(12,2) NOT NULL,
		currency       CHAR(3)       NOT NULL DEFAULT 'GHS',
		category       VARCHAR(100)  NOT NULL,
		image          VARCHAR(1000) NOT NULL DEFAULT '',
		rating         DOUBLE        NOT NULL DEFAULT 4.0,
		num_reviews    INT           NOT NULL DEFAULT 0,
		count_in_stock INT           NOT NULL DEFAULT 0,
		created_at     DATETIME(6)   NOT NULL,
		updated_at     DATETIME(6)   NOT NULL,
		KEY idx_products_category (category),
		KEY idx_products_created (created_at),
		CONSTRAINT chk_products_stock CHECK (count_in_stock >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id         CHAR(36)    NOT NULL PRIMARY KEY,
		user_id    CHAR(36)    NOT NULL,
		product_id CHAR(36)    NOT NULL,
		quantity   INT         NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_cart_user_product (user_id, product_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		user_id        CHAR(36)      NOT NULL,
		ship_address   VARCHAR(500)  NOT NULL,
		ship_city      VARCHAR(200)  NOT NULL,
		ship_postal    VARCHAR(50)   NOT NULL DEFAULT '',
		ship_country   VARCHAR(100)  NOT NULL,
		payment_method VARCHAR(100)  NOT NULL,
		payment_result JSON          NULL,
		items_price    DECIMAL(12,2) NOT NULL,
		tax_price      DECIMAL(12,2) NOT NULL,
		shipping_price DECIMAL(12,2) NOT NULL,
		total_price    DECIMAL(12,2) NOT NULL,
		is_paid        BOOLEAN       NOT NULL DEFAULT FALSE,
		paid_at        DATETIME(6)   NULL,
		is_delivered   BOOLEAN       NOT NULL DEFAULT FALSE,
		delivered_at   DATETIME(6)   NULL,
		status         ENUM('pending','processing','shipped','delivered','cancelled') NOT NULL DEFAULT 'pending',
		created_at     DATETIME(6)   NOT NULL,
		updated_at     DATETIME(6)   NOT NULL,
		KEY idx_orders_user (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id   CHAR(36)      NOT NULL,
		line_no    INT           NOT NULL,
		product_id CHAR(36)      NOT NULL,
		name       VARCHAR(200)  NOT NULL,
		image      VARCHAR(1000) NOT NULL DEFAULT '',
		price      DECIMAL(12,2) NOT NULL,
		quantity   INT           NOT NULL,
		PRIMARY KEY (order_id, line_no),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         CHAR(64)    NOT NULL PRIMARY KEY,
		user_id    CHAR(36)    NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_sessions_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
