package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CustomerHTTP struct {
	Svc *service.CustomerService
}

func (h *CustomerHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.me")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	customer, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(l, "get_me_error", err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.update_me")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var in service.CustomerInput
	if err := c.Bind(&in); err != nil {
		l.Warn("update_me_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	in.UserID = nil

	customer, err := h.Svc.UpdateMe(ctx, userID, in)
	if err != nil {
		return fail(l, "update_me_error", err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.list")

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_customers_error", err)
	}
	return c.JSON(http.StatusOK, p.body(items, total))
}

func (h *CustomerHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.get")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	customer, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_customer_error", err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.create")

	var in service.CustomerInput
	if err := c.Bind(&in); err != nil {
		l.Warn("create_customer_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	customer, err := h.Svc.Create(ctx, in)
	if err != nil {
		return fail(l, "create_customer_error", err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.update")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in service.CustomerInput
	if err := c.Bind(&in); err != nil {
		l.Warn("update_customer_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	customer, err := h.Svc.Update(ctx, id, in)
	if err != nil {
		return fail(l, "update_customer_error", err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_customer_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
