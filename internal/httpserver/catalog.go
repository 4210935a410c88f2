package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// CatalogHTTP is the admin surface of the catalog.
type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_categories")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_category")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return fail(l, "get_category_error", err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	var in service.CategoryInput
	if err := c.Bind(&in); err != nil {
		l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	category, err := h.Svc.CreateCategory(ctx, in)
	if err != nil {
		return fail(l, "category_create_error", err)
	}
	l.Info("create_category_success", "category_id", category.ID)
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_category")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in service.CategoryInput
	if err := c.Bind(&in); err != nil {
		l.Warn("category_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	category, err := h.Svc.UpdateCategory(ctx, id, in)
	if err != nil {
		return fail(l, "category_update_error", err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_category")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "category_delete_error", err)
	}
	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

// productInput reads a product payload. Multipart requests carry the JSON in the "data" field
// and an optional "image" file; any other request is a plain JSON body.
func productInput(c echo.Context) ([]byte, *service.ImageUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		data, err := io.ReadAll(c.Request().Body)
		return data, nil, noop, err
	}

	data := []byte(c.FormValue("data"))
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return data, nil, noop, nil
	}
	if err != nil {
		return nil, nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, noop, err
	}
	return data, &service.ImageUpload{File: f, Size: fh.Size}, func() { f.Close() }, nil
}

func (h *CatalogHTTP) ListProducts(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "catalog.list_products", "kind", kind)

		p := pageParams(c)
		total, items, err := h.Svc.ListProducts(ctx, kind, p.offset, p.limit)
		if err != nil {
			return fail(l, "list_products_error", err)
		}
		return c.JSON(http.StatusOK, p.body(items, total))
	}
}

func (h *CatalogHTTP) GetProduct(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "catalog.get_product", "kind", kind)

		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		p, err := h.Svc.GetProduct(ctx, kind, id)
		if err != nil {
			return fail(l, "get_product_error", err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

func (h *CatalogHTTP) CreateProduct(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "catalog.create_product", "kind", kind)

		data, img, closeImg, err := productInput(c)
		if err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		defer closeImg()

		p, err := h.Svc.CreateProduct(ctx, kind, data, img)
		if err != nil {
			return fail(l, "product_create_error", err)
		}
		l.Info("create_product_success", "product_id", p.Base().ID)
		return c.JSON(http.StatusCreated, p)
	}
}

func (h *CatalogHTTP) UpdateProduct(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "catalog.update_product", "kind", kind)

		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		data, img, closeImg, err := productInput(c)
		if err != nil {
			l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		defer closeImg()

		p, err := h.Svc.UpdateProduct(ctx, kind, id, data, img)
		if err != nil {
			return fail(l, "product_patch_error", err)
		}
		l.Info("patch_product_success", "product_id", id)
		return c.JSON(http.StatusOK, p)
	}
}

func (h *CatalogHTTP) DeleteProduct(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "catalog.delete_product", "kind", kind)

		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		if err := h.Svc.DeleteProduct(ctx, kind, id); err != nil {
			return fail(l, "product_delete_error", err)
		}
		l.Info("delete_product_success", "product_id", id)
		return c.NoContent(http.StatusNoContent)
	}
}

func (h *CatalogHTTP) ListSpecifications(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_specifications")

	var objectID uint
	if err := echo.QueryParamsBinder(c).Uint("object_id", &objectID).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "object_id must be a positive integer")
	}
	specs, err := h.Svc.ListSpecifications(ctx, c.QueryParam("content_type"), objectID)
	if err != nil {
		return fail(l, "list_specifications_error", err)
	}
	return c.JSON(http.StatusOK, specs)
}

func (h *CatalogHTTP) CreateSpecification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_specification")

	var req struct {
		ContentType string `json:"content_type"`
		ObjectID    uint   `json:"object_id"`
		Name        string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("specification_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	spec, err := h.Svc.CreateSpecification(ctx, req.ContentType, req.ObjectID, req.Name)
	if err != nil {
		return fail(l, "specification_create_error", err)
	}
	return c.JSON(http.StatusCreated, spec)
}

func (h *CatalogHTTP) GetSpecification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_specification")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	spec, err := h.Svc.GetSpecification(ctx, id)
	if err != nil {
		return fail(l, "specification_get_error", err)
	}
	return c.JSON(http.StatusOK, spec)
}

func (h *CatalogHTTP) DeleteSpecification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_specification")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteSpecification(ctx, id); err != nil {
		return fail(l, "specification_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
