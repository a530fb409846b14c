package model

import "time"

// CartItem is one line of a user's cart.  The store keeps at most one
// row per (UserID, ProductID).
type CartItem struct {
    ID        string    `json:"id"`
    UserID    string    `json:"userId"`
    ProductID string    `json:"productId"`
    Quantity  int       `json:"quantity"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// CartLine is a cart row joined with the current state of its product.
type CartLine struct {
    CartItem
    Product Product `json:"product"`
}
