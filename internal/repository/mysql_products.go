package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/iliyamo/shopverse/internal/model"
)

const productColumns = `id, name, description, price, currency, category, image, rating, num_reviews, count_in_stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
    var p model.Product
    err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Category, &p.Image,
        &p.Rating, &p.NumReviews, &p.CountInStock, &p.CreatedAt, &p.UpdatedAt)
    return p, err
}

func (s *MySQLStore) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
    now := s.now()
    p.ID = newID()
    if p.Currency == "" {
        p.Currency = model.Currency
    }
    p.CreatedAt, p.UpdatedAt = now, now
    const q = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := s.db.ExecContext(ctx, q, p.ID, p.Name, p.Description, p.Price, p.Currency, p.Category, p.Image,
        p.Rating, p.NumReviews, p.CountInStock, p.CreatedAt, p.UpdatedAt)
    if err != nil {
        return model.Product{}, err
    }
    return p, nil
}

func getProductTx(ctx context.Context, q querier, id string, lock bool) (model.Product, bool, error) {
    query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
    if lock {
        query += ` FOR UPDATE`
    }
    p, err := scanProduct(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Product{}, false, nil
    }
    if err != nil {
        return model.Product{}, false, err
    }
    return p, true, nil
}

func (s *MySQLStore) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (model.Product, bool, error) {
    var out model.Product
    found := false
    err := s.inTx(ctx, func(tx *sql.Tx) error {
        p, ok, err := getProductTx(ctx, tx, id, true)
        if err != nil || !ok {
            return err
        }
        patch.Apply(&p)
        p.UpdatedAt = s.now()
        const q = `UPDATE products SET name = ?, description = ?, price = ?, category = ?, image = ?,
                   rating = ?, num_reviews = ?, count_in_stock = ?, updated_at = ? WHERE id = ?`
        if _, err := tx.ExecContext(ctx, q, p.Name, p.Description, p.Price, p.Category, p.Image,
            p.Rating, p.NumReviews, p.CountInStock, p.UpdatedAt, id); err != nil {
            return err
        }
        out, found = p, true
        return nil
    })
    if err != nil {
        return model.Product{}, false, err
    }
    return out, found, nil
}

func (s *MySQLStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
    res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

func (s *MySQLStore) GetProductByID(ctx context.Context, id string) (model.Product, bool, error) {
    return getProductTx(ctx, s.db, id, false)
}

func (s *MySQLStore) ListProducts(ctx context.Context) ([]model.Product, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Product
    for rows.Next() {
        p, err := scanProduct(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

func (s *MySQLStore) AdjustStock(ctx context.Context, id string, delta int) (model.Product, error) {
    var out model.Product
    err := s.inTx(ctx, func(tx *sql.Tx) error {
        p, ok, err := getProductTx(ctx, tx, id, true)
        if err != nil {
            return err
        }
        if !ok {
            return fmt.Errorf("product %s: %w", id, ErrNotFound)
        }
        if p.CountInStock+delta < 0 {
            return &StockError{ProductID: id, Requested: -delta, Available: p.CountInStock}
        }
        p.CountInStock += delta
        p.UpdatedAt = s.now()
        if _, err := tx.ExecContext(ctx, `UPDATE products SET count_in_stock = ?, updated_at = ? WHERE id = ?`,
            p.CountInStock, p.UpdatedAt, id); err != nil {
            return err
        }
        out = p
        return nil
    })
    return out, err
}
