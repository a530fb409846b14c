package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/shopverse/internal/middleware"
    "github.com/iliyamo/shopverse/internal/model"
    "github.com/iliyamo/shopverse/internal/service"
)

// CartHandler serves the signed-in user's cart.  Every response carries
// the whole cart as it stands after the request.
type CartHandler struct {
    Cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
    return &CartHandler{Cart: cart}
}

type cartReq struct {
    ProductID string `json:"productId"`
    Quantity  int    `json:"quantity"`
}

type cartView struct {
    Items      []model.CartLine `json:"items"`
    TotalItems int              `json:"totalItems"`
    ItemsPrice decimal.Decimal  `json:"itemsPrice"`
}

func (h *CartHandler) render(c echo.Context, status int, msg, userID string) error {
    lines, err := h.Cart.List(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    n, price := service.CartTotals(lines)
    view := cartView{Items: lines, TotalItems: n, ItemsPrice: price}
    if msg == "" {
        return ok(c, status, view)
    }
    return okMessage(c, status, msg, view)
}

func (h *CartHandler) Get(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    return h.render(c, http.StatusOK, "", u.ID)
}

// Add serves POST /api/cart.  The quantity adds to any already in the
// cart.
func (h *CartHandler) Add(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    var req cartReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    if req.Quantity == 0 {
        req.Quantity = 1
    }
    if _, err := h.Cart.Add(c.Request().Context(), u.ID, req.ProductID, req.Quantity); err != nil {
        return writeError(c, err)
    }
    return h.render(c, http.StatusOK, "item added to cart", u.ID)
}

// Set serves PUT /api/cart and replaces the line's quantity.
func (h *CartHandler) Set(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    var req cartReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    if _, err := h.Cart.SetQuantity(c.Request().Context(), u.ID, req.ProductID, req.Quantity); err != nil {
        return writeError(c, err)
    }
    return h.render(c, http.StatusOK, "cart updated", u.ID)
}

// Delete serves DELETE /api/cart.  With ?productId= it removes that
// line, otherwise it empties the cart.
func (h *CartHandler) Delete(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    ctx := c.Request().Context()
    if pid := c.QueryParam("productId"); pid != "" {
        found, err := h.Cart.Remove(ctx, u.ID, pid)
        if err != nil {
            return writeError(c, err)
        }
        if !found {
            return fail(c, http.StatusNotFound, "item not in cart")
        }
        return h.render(c, http.StatusOK, "item removed from cart", u.ID)
    }
    if err := h.Cart.Clear(ctx, u.ID); err != nil {
        return writeError(c, err)
    }
    return h.render(c, http.StatusOK, "cart cleared", u.ID)
}
