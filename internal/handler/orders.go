package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/middleware"
    "github.com/iliyamo/shopverse/internal/service"
)

// OrderHandler serves checkout and order history.
type OrderHandler struct {
    Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
    return &OrderHandler{Orders: orders}
}

// Place converts the caller's cart into an order.
func (h *OrderHandler) Place(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    var in service.PlaceOrderInput
    if err := c.Bind(&in); err != nil {
        return badBody(c)
    }
    o, err := h.Orders.Place(c.Request().Context(), u.ID, in)
    if err != nil {
        return writeError(c, err)
    }
    return okMessage(c, http.StatusCreated, "order placed", o)
}

// List returns the caller's orders, or every order for an admin.
func (h *OrderHandler) List(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    orders, err := h.Orders.List(c.Request().Context(), u)
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
    u, _ := middleware.CurrentUser(c)
    o, err := h.Orders.Get(c.Request().Context(), u, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, o)
}

// Update is admin only; the route enforces the role.
func (h *OrderHandler) Update(c echo.Context) error {
    var in service.OrderUpdate
    if err := c.Bind(&in); err != nil {
        return badBody(c)
    }
    o, err := h.Orders.Update(c.Request().Context(), c.Param("id"), in)
    if err != nil {
        return writeError(c, err)
    }
    return okMessage(c, http.StatusOK, "order updated", o)
}
