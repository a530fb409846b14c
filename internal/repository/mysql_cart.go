package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/shopverse/internal/model"
)

const cartColumns = `id, user_id, product_id, quantity, created_at, updated_at`

func scanCartItem(row interface{ Scan(...any) error }) (model.CartItem, error) {
    var it model.CartItem
    err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
    return it, err
}

// UpsertCartItem relies on the (user_id, product_id) unique key so two
// concurrent inserts for the same pair collapse into one row.
func (s *MySQLStore) UpsertCartItem(ctx context.Context, userID, productID string, quantity int) (model.CartItem, error) {
    now := s.now()
    const q = `INSERT INTO cart_items (` + cartColumns + `) VALUES (?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = VALUES(updated_at)`
    if _, err := s.db.ExecContext(ctx, q, newID(), userID, productID, quantity, now, now); err != nil {
        return model.CartItem{}, err
    }
    it, _, err := s.GetCartItem(ctx, userID, productID)
    return it, err
}

func (s *MySQLStore) GetCartItem(ctx context.Context, userID, productID string) (model.CartItem, bool, error) {
    const q = `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = ? AND product_id = ?`
    it, err := scanCartItem(s.db.QueryRowContext(ctx, q, userID, productID))
    if errors.Is(err, sql.ErrNoRows) {
        return model.CartItem{}, false, nil
    }
    if err != nil {
        return model.CartItem{}, false, err
    }
    return it, true, nil
}

func (s *MySQLStore) ListCart(ctx context.Context, userID string) ([]model.CartItem, error) {
    return listCartTx(ctx, s.db, userID, false)
}

func listCartTx(ctx context.Context, q querier, userID string, lock bool) ([]model.CartItem, error) {
    query := `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = ? ORDER BY created_at, id`
    if lock {
        query += ` FOR UPDATE`
    }
    rows, err := q.QueryContext(ctx, query, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.CartItem{}
    for rows.Next() {
        it, err := scanCartItem(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, it)
    }
    return out, rows.Err()
}

func (s *MySQLStore) RemoveCartItem(ctx context.Context, userID, productID string) (bool, error) {
    res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

func (s *MySQLStore) ClearCart(ctx context.Context, userID string) error {
    _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
    return err
}
