package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	Views     *ViewsHTTP
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Auth      *AuthHTTP
	Customers *CustomerHTTP
	Health    *HealthHTTP
	JWTSecret []byte
	Refresher authmw.Refresher
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.Refresher)

	// Root-level routes take middleware per route; an unprefixed group would answer unknown
	// paths through its middleware.
	e.GET("/", d.Views.Base, authMW.Optional)
	e.GET("/products/:ct_model/:slug", d.Views.ProductDetail, authMW.Optional)
	e.GET("/categories/:slug", d.Views.CategoryDetail, authMW.Optional)
	e.GET("/cart", d.Views.CartView, authMW.Optional)
	e.GET("/search", d.Views.Search)
	e.GET("/media/*", d.Views.Media)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.LogOut)

	e.POST("/add-to-cart/:ct_model/:slug", d.Cart.AddToCart, authMW.RequireAuth)
	e.PATCH("/cart/items/:id", d.Cart.SetQty, authMW.RequireAuth)
	e.DELETE("/cart/items/:id", d.Cart.RemoveLine, authMW.RequireAuth)
	e.POST("/cart/checkout", d.Cart.Checkout, authMW.RequireAuth)
	e.GET("/me", d.Customers.Me, authMW.RequireAuth)
	e.PATCH("/me", d.Customers.UpdateMe, authMW.RequireAuth)

	admin := e.Group("/admin", authMW.RequireAdmin)

	admin.GET("/categories", d.Catalog.ListCategories)
	admin.POST("/categories", d.Catalog.CreateCategory)
	admin.GET("/categories/:id", d.Catalog.GetCategory)
	admin.PATCH("/categories/:id", d.Catalog.UpdateCategory)
	admin.DELETE("/categories/:id", d.Catalog.DeleteCategory)

	for _, kind := range models.Kinds {
		products := admin.Group("/" + kind + "s")
		products.GET("", d.Catalog.ListProducts(kind))
		products.POST("", d.Catalog.CreateProduct(kind))
		products.GET("/:id", d.Catalog.GetProduct(kind))
		products.PATCH("/:id", d.Catalog.UpdateProduct(kind))
		products.DELETE("/:id", d.Catalog.DeleteProduct(kind))
	}

	admin.GET("/specifications", d.Catalog.ListSpecifications)
	admin.POST("/specifications", d.Catalog.CreateSpecification)
	admin.GET("/specifications/:id", d.Catalog.GetSpecification)
	admin.DELETE("/specifications/:id", d.Catalog.DeleteSpecification)

	admin.GET("/customers", d.Customers.List)
	admin.POST("/customers", d.Customers.Create)
	admin.GET("/customers/:id", d.Customers.Get)
	admin.PATCH("/customers/:id", d.Customers.Update)
	admin.DELETE("/customers/:id", d.Customers.Delete)

	admin.GET("/carts", d.Cart.List)
	admin.GET("/carts/:id", d.Cart.Get)
}
