package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testdb"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// Runs only when STOREFRONT_TEST_DATABASE_URL points at a disposable postgres database.
func TestPostgres_CartFlow(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, dsn, pkgdb.DefaultPool())
	require.NoError(t, err)
	t.Cleanup(func() { pkgdb.Close(db) })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, testdb.Truncate(db,
		"cart_products", "carts", "specifications", "laptops", "phones",
		"categories", "customers", "refresh_tokens", "users"))

	r := New(db)
	cat := &models.Category{Name: "Ноутбуки", Slug: "laptops"}
	require.NoError(t, r.CreateCategory(ctx, cat))
	assert.ErrorIs(t, r.CreateCategory(ctx, &models.Category{Name: "x", Slug: "laptops"}), ErrDuplicate)

	l := &models.Laptop{ProductBase: models.ProductBase{CategoryID: cat.ID, Title: "L", Slug: "l", Price: decimal.RequireFromString("12.34")}}
	require.NoError(t, r.CreateProduct(ctx, l))

	c := &models.Customer{}
	require.NoError(t, r.CreateUserWithCustomer(ctx, &models.User{Username: "pg", PasswordHash: "x", Role: "user"}, c))

	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			_, err := r.OpenCart(ctx, c.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())
	var open int64
	require.NoError(t, db.Model(&models.Cart{}).Where("owner_id = ? AND in_order = ?", c.ID, false).Count(&open).Error)
	assert.EqualValues(t, 1, open)

	cart, err := r.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	cart, err = r.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "37.02", cart.FinalPrice.StringFixed(2))
}
