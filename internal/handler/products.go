package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/model"
    "github.com/iliyamo/shopverse/internal/service"
)

// ProductHandler serves the storefront catalog and its admin surface.
type ProductHandler struct {
    Catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
    return &ProductHandler{Catalog: catalog}
}

// queryInt reads a positive integer query parameter.  Anything else
// reads as zero so the service default applies.
func queryInt(c echo.Context, name string) int {
    n, err := strconv.Atoi(c.QueryParam(name))
    if err != nil || n < 0 {
        return 0
    }
    return n
}

func productQuery(c echo.Context, admin bool) service.ProductQuery {
    search := c.QueryParam("search")
    if search == "" {
        search = c.QueryParam("keyword")
    }
    return service.ProductQuery{
        Category: c.QueryParam("category"),
        Search:   search,
        Page:     queryInt(c, "page"),
        Limit:    queryInt(c, "limit"),
        Admin:    admin,
    }
}

// List serves GET /api/products?category=&search=&page=&limit=
func (h *ProductHandler) List(c echo.Context) error {
    page, err := h.Catalog.List(c.Request().Context(), productQuery(c, false))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, page)
}

func (h *ProductHandler) AdminList(c echo.Context) error {
    page, err := h.Catalog.List(c.Request().Context(), productQuery(c, true))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, page)
}

func (h *ProductHandler) Get(c echo.Context) error {
    p, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, p)
}

func (h *ProductHandler) Categories(c echo.Context) error {
    cats, err := h.Catalog.Categories(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, cats)
}

func (h *ProductHandler) Create(c echo.Context) error {
    var in service.ProductInput
    if err := c.Bind(&in); err != nil {
        return badBody(c)
    }
    p, err := h.Catalog.Create(c.Request().Context(), in)
    if err != nil {
        return writeError(c, err)
    }
    return okMessage(c, http.StatusCreated, "product created", p)
}

func (h *ProductHandler) Update(c echo.Context) error {
    var patch model.ProductPatch
    if err := c.Bind(&patch); err != nil {
        return badBody(c)
    }
    p, err := h.Catalog.Update(c.Request().Context(), c.Param("id"), patch)
    if err != nil {
        return writeError(c, err)
    }
    return okMessage(c, http.StatusOK, "product updated", p)
}

func (h *ProductHandler) Delete(c echo.Context) error {
    found, err := h.Catalog.Delete(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if !found {
        return writeError(c, service.ErrProductNotFound)
    }
    return okMessage(c, http.StatusOK, "product deleted", nil)
}

type stockReq struct {
    Delta int `json:"delta"`
}

// AdjustStock serves POST /api/admin/products/:id/stock {delta}.
func (h *ProductHandler) AdjustStock(c echo.Context) error {
    var req stockReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    p, err := h.Catalog.AdjustStock(c.Request().Context(), c.Param("id"), req.Delta)
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, p)
}
