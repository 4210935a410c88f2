package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func currentUser(c echo.Context) (uint, error) {
	userID, ok := authmw.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return userID, nil
}

// AddToCart adds one item, or ?qty items, and redirects to the cart page.
func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	kind, slug := c.Param("ct_model"), c.Param("slug")
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart", "kind", kind, "slug", slug)

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	raw := c.QueryParam("qty")
	if raw == "" {
		raw = "1"
	}
	qty, err := strconv.Atoi(raw)
	if err != nil || qty < 1 {
		l.Warn("add_to_cart_error", "status", 400, "reason", "bad qty")
		return echo.NewHTTPError(http.StatusBadRequest, "qty must be a positive integer")
	}

	if _, err := h.Svc.AddToCart(ctx, userID, kind, slug, uint(qty)); err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	l.Info("add_to_cart_success", "user_id", userID)
	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHTTP) SetQty(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_qty")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	lineID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Qty *int `json:"qty"`
	}
	if err := c.Bind(&req); err != nil || req.Qty == nil || *req.Qty < 0 {
		l.Warn("set_qty_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "qty must be a non-negative integer")
	}

	cart, err := h.Svc.SetQty(ctx, userID, lineID, uint(*req.Qty))
	if err != nil {
		return fail(l, "set_qty_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	lineID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	cart, err := h.Svc.RemoveLine(ctx, userID, lineID)
	if err != nil {
		return fail(l, "remove_line_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.Checkout(ctx, userID)
	if err != nil {
		return fail(l, "checkout_error", err)
	}
	l.Info("checkout_success", "user_id", userID, "cart_id", cart.ID)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.list")

	p := pageParams(c)
	total, carts, err := h.Svc.List(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_carts_error", err)
	}
	return c.JSON(http.StatusOK, p.body(carts, total))
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	cart, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}
