package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "sort"
    "strings"

    "github.com/iliyamo/shopverse/internal/model"
)

const orderColumns = `id, user_id, ship_address, ship_city, ship_postal, ship_country, payment_method, payment_result,
    items_price, tax_price, shipping_price, total_price, is_paid, paid_at, is_delivered, delivered_at, status,
    created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
    var (
        o           model.Order
        payment     sql.NullString
        paidAt      sql.NullTime
        deliveredAt sql.NullTime
    )
    err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddress.Address, &o.ShippingAddress.City,
        &o.ShippingAddress.PostalCode, &o.ShippingAddress.Country, &o.PaymentMethod, &payment,
        &o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice, &o.IsPaid, &paidAt,
        &o.IsDelivered, &deliveredAt, &o.Status, &o.CreatedAt, &o.UpdatedAt)
    if err != nil {
        return model.Order{}, err
    }
    if payment.Valid && payment.String != "" {
        var pr model.PaymentResult
        if err := json.Unmarshal([]byte(payment.String), &pr); err != nil {
            return model.Order{}, fmt.Errorf("decode payment_result: %w", err)
        }
        o.PaymentResult = &pr
    }
    o.PaidAt = timePtr(paidAt)
    o.DeliveredAt = timePtr(deliveredAt)
    return o, nil
}

func encodePayment(pr *model.PaymentResult) (sql.NullString, error) {
    if pr == nil {
        return sql.NullString{}, nil
    }
    b, err := json.Marshal(pr)
    if err != nil {
        return sql.NullString{}, err
    }
    return sql.NullString{String: string(b), Valid: true}, nil
}

func (s *MySQLStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
    var out model.Order
    err := s.inTx(ctx, func(tx *sql.Tx) error {
        var err error
        out, err = s.insertOrderTx(ctx, tx, o)
        return err
    })
    return out, err
}

// insertOrderTx writes the order row and its line items.  The caller
// must commit or rollback the transaction.
func (s *MySQLStore) insertOrderTx(ctx context.Context, tx *sql.Tx, o model.Order) (model.Order, error) {
    now := s.now()
    o = o.Clone()
    o.ID = newID()
    if o.Status == "" {
        o.Status = model.OrderPending
    }
    o.CreatedAt, o.UpdatedAt = now, now
    payment, err := encodePayment(o.PaymentResult)
    if err != nil {
        return model.Order{}, err
    }
    const q = `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = tx.ExecContext(ctx, q, o.ID, o.UserID, o.ShippingAddress.Address, o.ShippingAddress.City,
        o.ShippingAddress.PostalCode, o.ShippingAddress.Country, o.PaymentMethod, payment,
        o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice, o.IsPaid, nullTime(o.PaidAt),
        o.IsDelivered, nullTime(o.DeliveredAt), o.Status, o.CreatedAt, o.UpdatedAt)
    if err != nil {
        return model.Order{}, err
    }
    if len(o.OrderItems) == 0 {
        return o, nil
    }
    query := `INSERT INTO order_items (order_id, line_no, product_id, name, image, price, quantity) VALUES `
    args := make([]any, 0, len(o.OrderItems)*7)
    for i, it := range o.OrderItems {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, o.ID, i, it.ProductID, it.Name, it.Image, it.Price, it.Quantity)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return model.Order{}, err
    }
    return o, nil
}

// attachItems loads line items for every order in one query.
func attachItems(ctx context.Context, q querier, orders []model.Order) error {
    if len(orders) == 0 {
        return nil
    }
    idx := make(map[string]int, len(orders))
    ph := make([]string, len(orders))
    args := make([]any, len(orders))
    for i, o := range orders {
        idx[o.ID] = i
        ph[i] = "?"
        args[i] = o.ID
        orders[i].OrderItems = []model.OrderItem{}
    }
    query := `SELECT order_id, product_id, name, image, price, quantity FROM order_items
              WHERE order_id IN (` + strings.Join(ph, ",") + `) ORDER BY order_id, line_no`
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var orderID string
        var it model.OrderItem
        if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Image, &it.Price, &it.Quantity); err != nil {
            return err
        }
        i := idx[orderID]
        orders[i].OrderItems = append(orders[i].OrderItems, it)
    }
    return rows.Err()
}

func getOrderTx(ctx context.Context, q querier, id string, lock bool) (model.Order, bool, error) {
    query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
    if lock {
        query += ` FOR UPDATE`
    }
    o, err := scanOrder(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Order{}, false, nil
    }
    if err != nil {
        return model.Order{}, false, err
    }
    list := []model.Order{o}
    if err := attachItems(ctx, q, list); err != nil {
        return model.Order{}, false, err
    }
    return list[0], true, nil
}

func (s *MySQLStore) GetOrderByID(ctx context.Context, id string) (model.Order, bool, error) {
    return getOrderTx(ctx, s.db, id, false)
}

func (s *MySQLStore) listOrders(ctx context.Context, where string, args ...any) ([]model.Order, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at, id`, args...)
    if err != nil {
        return nil, err
    }
    out := []model.Order{}
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        out = append(out, o)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    rows.Close()
    if err := attachItems(ctx, s.db, out); err != nil {
        return nil, err
    }
    return out, nil
}

func (s *MySQLStore) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
    return s.listOrders(ctx, `WHERE user_id = ?`, userID)
}

func (s *MySQLStore) ListAllOrders(ctx context.Context) ([]model.Order, error) {
    return s.listOrders(ctx, ``)
}

func (s *MySQLStore) UpdateOrder(ctx context.Context, id string, mutate func(*model.Order) error) (model.Order, bool, error) {
    var out model.Order
    found := false
    err := s.inTx(ctx, func(tx *sql.Tx) error {
        cur, ok, err := getOrderTx(ctx, tx, id, true)
        if err != nil || !ok {
            return err
        }
        found = true
        next := cur.Clone()
        if err := mutate(&next); err != nil {
            return err
        }
        next.ID, next.UserID, next.CreatedAt = cur.ID, cur.UserID, cur.CreatedAt
        next.OrderItems = cur.OrderItems
        next.UpdatedAt = s.now()
        payment, err := encodePayment(next.PaymentResult)
        if err != nil {
            return err
        }
        const q = `UPDATE orders SET ship_address = ?, ship_city = ?, ship_postal = ?, ship_country = ?,
                   payment_method = ?, payment_result = ?, is_paid = ?, paid_at = ?, is_delivered = ?,
                   delivered_at = ?, status = ?, updated_at = ? WHERE id = ?`
        _, err = tx.ExecContext(ctx, q, next.ShippingAddress.Address, next.ShippingAddress.City,
            next.ShippingAddress.PostalCode, next.ShippingAddress.Country, next.PaymentMethod, payment,
            next.IsPaid, nullTime(next.PaidAt), next.IsDelivered, nullTime(next.DeliveredAt),
            next.Status, next.UpdatedAt, id)
        if err != nil {
            return err
        }
        out = next
        return nil
    })
    if err != nil {
        return model.Order{}, found, err
    }
    return out, found, nil
}

// PlaceOrder locks the cart rows and then every referenced product row
// in id order, so two checkouts touching the same products queue behind
// each other instead of deadlocking.  The UPDATE is guarded on stock as
// well, which makes a lost race surface as a StockError.
func (s *MySQLStore) PlaceOrder(ctx context.Context, userID string, build OrderBuilder) (model.Order, error) {
    var placed model.Order
    err := s.inTx(ctx, func(tx *sql.Tx) error {
        cart, err := listCartTx(ctx, tx, userID, true)
        if err != nil {
            return err
        }
        ids := make([]string, 0, len(cart))
        for _, it := range cart {
            ids = append(ids, it.ProductID)
        }
        sort.Strings(ids)
        products := make(map[string]model.Product, len(ids))
        for _, id := range ids {
            p, ok, err := getProductTx(ctx, tx, id, true)
            if err != nil {
                return err
            }
            if ok {
                products[id] = p
            }
        }

        order, err := build(cart, products)
        if err != nil {
            return err
        }

        const dec = `UPDATE products SET count_in_stock = count_in_stock - ?, updated_at = ?
                     WHERE id = ? AND count_in_stock >= ?`
        now := s.now()
        for pid, qty := range lineTotals(order.OrderItems) {
            res, err := tx.ExecContext(ctx, dec, qty, now, pid, qty)
            if err != nil {
                return err
            }
            n, err := res.RowsAffected()
            if err != nil {
                return err
            }
            if n == 0 {
                p, ok, err := getProductTx(ctx, tx, pid, false)
                if err != nil {
                    return err
                }
                if !ok {
                    return fmt.Errorf("product %s: %w", pid, ErrNotFound)
                }
                return &StockError{ProductID: pid, Requested: qty, Available: p.CountInStock}
            }
        }

        order.UserID = userID
        placed, err = s.insertOrderTx(ctx, tx, order)
        if err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
        return err
    })
    if err != nil {
        return model.Order{}, err
    }
    return placed, nil
}
