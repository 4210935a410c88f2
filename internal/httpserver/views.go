package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// ViewsHTTP serves the storefront pages. Every page carries the category sidebar and the
// visitor's cart.
type ViewsHTTP struct {
	Catalog *service.CatalogService
	Cart    *service.CartService
}

func (h *ViewsHTTP) cart(c echo.Context) (*models.Cart, error) {
	userID, ok := authmw.UserID(c)
	if !ok {
		return service.AnonymousCart(), nil
	}
	return h.Cart.Current(c.Request().Context(), userID)
}

// withSidebar collects the context shared by every view and adds extra on top of it.
func (h *ViewsHTTP) withSidebar(c echo.Context, extra echo.Map) (echo.Map, error) {
	categories, err := h.Catalog.Sidebar(c.Request().Context())
	if err != nil {
		return nil, err
	}
	cart, err := h.cart(c)
	if err != nil {
		return nil, err
	}
	extra["categories"] = categories
	extra["cart"] = cart
	return extra, nil
}

func (h *ViewsHTTP) Base(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "views.base")

	products, err := h.Catalog.Latest(ctx, models.KindLaptop, models.KindLaptop, models.KindPhone)
	if err != nil {
		return fail(l, "base_view_error", err)
	}
	body, err := h.withSidebar(c, echo.Map{"products": products})
	if err != nil {
		return fail(l, "base_view_error", err)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ViewsHTTP) ProductDetail(c echo.Context) error {
	ctx := c.Request().Context()
	kind, slug := c.Param("ct_model"), c.Param("slug")
	l := logging.FromContext(ctx).With("handler", "views.product_detail", "kind", kind, "slug", slug)

	p, err := h.Catalog.ProductBySlug(ctx, kind, slug)
	if err != nil {
		return fail(l, "product_detail_error", err)
	}
	specs, err := h.Catalog.ListSpecifications(ctx, kind, p.Base().ID)
	if err != nil {
		return fail(l, "product_detail_error", err)
	}
	body, err := h.withSidebar(c, echo.Map{
		"product":        p,
		"ct_model":       kind,
		"specifications": specs,
	})
	if err != nil {
		return fail(l, "product_detail_error", err)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ViewsHTTP) CategoryDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "views.category_detail", "slug", c.Param("slug"))

	category, products, err := h.Catalog.CategoryProducts(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "category_detail_error", err)
	}
	body, err := h.withSidebar(c, echo.Map{"category": category, "products": products})
	if err != nil {
		return fail(l, "category_detail_error", err)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ViewsHTTP) CartView(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "views.cart")

	body, err := h.withSidebar(c, echo.Map{})
	if err != nil {
		return fail(l, "cart_view_error", err)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ViewsHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "views.search")

	p := pageParams(c)
	total, docs, err := h.Catalog.SearchProducts(ctx, c.QueryParam("q"), p.offset, p.limit)
	if err != nil {
		return fail(l, "search_error", err)
	}
	return c.JSON(http.StatusOK, p.body(docs, total))
}

// Media streams a stored product image by its object key.
func (h *ViewsHTTP) Media(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.Param("*")
	l := logging.FromContext(ctx).With("handler", "views.media", "key", key)

	rc, info, err := h.Catalog.ProductImage(ctx, key)
	if err != nil {
		return fail(l, "media_error", err)
	}
	defer rc.Close()

	if info.ETag != "" {
		c.Response().Header().Set("ETag", info.ETag)
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}
