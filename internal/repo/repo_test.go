package repo

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testdb"
)

type fixture struct {
	repo    *GormRepo
	laptops *models.Category
	phones  *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := New(testdb.New(t))
	ctx := context.Background()

	laptops := &models.Category{Name: "Ноутбуки", Slug: "laptops"}
	phones := &models.Category{Name: "Телефоны", Slug: "phones"}
	require.NoError(t, r.CreateCategory(ctx, laptops))
	require.NoError(t, r.CreateCategory(ctx, phones))

	return &fixture{repo: r, laptops: laptops, phones: phones}
}

func (f *fixture) laptop(t *testing.T, slug, price string) *models.Laptop {
	t.Helper()
	l := &models.Laptop{ProductBase: models.ProductBase{
		CategoryID: f.laptops.ID,
		Title:      slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
	}}
	require.NoError(t, f.repo.CreateProduct(context.Background(), l))
	return l
}

func (f *fixture) phone(t *testing.T, slug, price string) *models.Phone {
	t.Helper()
	p := &models.Phone{ProductBase: models.ProductBase{
		CategoryID: f.phones.ID,
		Title:      slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
	}}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) customer(t *testing.T, username string) *models.Customer {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", Role: "user"}
	c := &models.Customer{}
	require.NoError(t, f.repo.CreateUserWithCustomer(context.Background(), u, c))
	return c
}

func slugs(items []models.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Base().Slug
	}
	return out
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.repo.CreateCategory(ctx, &models.Category{Name: "dup", Slug: "laptops"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := f.repo.GetCategoryBySlug(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, f.phones.ID, got.ID)

	_, err = f.repo.GetCategoryBySlug(ctx, "tablets")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	f.laptop(t, "l1", "100")
	f.laptop(t, "l2", "100")
	f.phone(t, "p1", "50")

	counts, err := f.repo.CategoriesWithCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryCount{
		{Name: "Ноутбуки", URL: "/categories/laptops", Count: 2},
		{Name: "Телефоны", URL: "/categories/phones", Count: 1},
	}, counts)
}

func TestDeleteCategory_RemovesProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.laptop(t, "l1", "100")
	p := f.phone(t, "p1", "50")
	c := f.customer(t, "ann")
	cart, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	require.NoError(t, err)
	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindPhone, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.repo.DeleteCategory(ctx, f.laptops.ID))

	_, err = f.repo.GetProduct(ctx, models.KindLaptop, l.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cart, err = f.repo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, "50.00", cart.FinalPrice.StringFixed(2))
	assert.Equal(t, uint(1), cart.TotalProducts)

	assert.ErrorIs(t, f.repo.DeleteCategory(ctx, f.laptops.ID), gorm.ErrRecordNotFound)
}

func TestProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vol := uint(128)
	ph := &models.Phone{
		ProductBase: models.ProductBase{CategoryID: f.phones.ID, Title: "P", Slug: "p", Price: decimal.NewFromInt(10)},
		SD:          false,
		SDVolumeMax: &vol,
	}
	require.NoError(t, f.repo.CreateProduct(ctx, ph))

	got, err := f.repo.GetProductBySlug(ctx, models.KindPhone, "p")
	require.NoError(t, err)
	assert.Nil(t, got.(*models.Phone).SDVolumeMax)

	_, err = f.repo.GetProductBySlug(ctx, "tablet", "p")
	assert.ErrorIs(t, err, ErrUnknownKind)

	for i := 0; i < 3; i++ {
		f.laptop(t, fmt.Sprintf("l%d", i), "10")
	}
	total, items, err := f.repo.ListProducts(ctx, models.KindLaptop, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"l1", "l2"}, slugs(items))

	byCat, err := f.repo.ProductsByCategory(ctx, f.phones.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, slugs(byCat))

	require.NoError(t, f.repo.DeleteProduct(ctx, models.KindPhone, ph.ID))
	assert.ErrorIs(t, f.repo.DeleteProduct(ctx, models.KindPhone, ph.ID), gorm.ErrRecordNotFound)
}

func TestLatestProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		f.laptop(t, fmt.Sprintf("l%d", i), "10")
	}
	f.phone(t, "p1", "10")
	f.phone(t, "p2", "10")

	items, err := f.repo.LatestProducts(ctx, "", models.KindLaptop, models.KindPhone)
	require.NoError(t, err)
	assert.Equal(t, []string{"l6", "l5", "l4", "l3", "l2", "p2", "p1"}, slugs(items))

	items, err = f.repo.LatestProducts(ctx, models.KindPhone, models.KindLaptop, models.KindPhone)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1", "l6", "l5", "l4", "l3", "l2"}, slugs(items))

	items, err = f.repo.LatestProducts(ctx, "tablet", models.KindPhone, "tablet")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, slugs(items))

	items, err = f.repo.LatestProducts(ctx, models.KindLaptop, models.KindPhone)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, slugs(items))
}

func TestCartTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.laptop(t, "l", "999.99")
	p := f.phone(t, "p", "10.50")
	c := f.customer(t, "bob")

	cart, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, cart.FinalPrice.IsZero())
	assert.Equal(t, uint(0), cart.TotalProducts)

	again, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	cart, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	require.NoError(t, err)
	cart, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindPhone, p.ID, 2)
	require.NoError(t, err)
	cart, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Products, 2)
	assert.Equal(t, uint(2), cart.Products[0].Qty)
	assert.Equal(t, "1999.98", cart.Products[0].FinalPrice.StringFixed(2))
	assert.Equal(t, "21.00", cart.Products[1].FinalPrice.StringFixed(2))
	assert.Equal(t, "2020.98", cart.FinalPrice.StringFixed(2))
	assert.Equal(t, uint(2), cart.TotalProducts)
	require.NotNil(t, cart.Products[0].Product)
	assert.Equal(t, "l", cart.Products[0].Product.Base().Slug)

	cart, err = f.repo.SetQty(ctx, cart.ID, cart.Products[1].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "2010.48", cart.FinalPrice.StringFixed(2))

	cart, err = f.repo.RemoveLine(ctx, cart.ID, cart.Products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "10.50", cart.FinalPrice.StringFixed(2))
	assert.Equal(t, uint(1), cart.TotalProducts)

	cart, err = f.repo.SetQty(ctx, cart.ID, cart.Products[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
	assert.True(t, cart.FinalPrice.IsZero())
	assert.Equal(t, uint(0), cart.TotalProducts)

	_, err = f.repo.RemoveLine(ctx, cart.ID, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, 999, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaveProduct_RepricesOpenCarts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.laptop(t, "l", "100")
	c := f.customer(t, "eve")
	cart, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 3)
	require.NoError(t, err)

	l.Price = decimal.RequireFromString("90")
	require.NoError(t, f.repo.SaveProduct(ctx, l))

	cart, err = f.repo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "270.00", cart.FinalPrice.StringFixed(2))
}

func TestOpenCart_OnePerCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "rush")

	_, err := f.repo.OpenCart(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ids := make([]uint, 8)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			cart, err := f.repo.OpenCart(ctx, c.ID)
			if err != nil {
				return err
			}
			ids[i] = cart.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	total, _, err := f.repo.ListCarts(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCartLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.laptop(t, "l", "5000")
	p := f.phone(t, "p", "0.01")
	c := f.customer(t, "max")
	cart, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrCartTooLarge)
	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 2000)
	assert.ErrorIs(t, err, ErrCartTooLarge)

	cart, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1999)
	require.NoError(t, err)
	assert.Equal(t, "9995000.00", cart.FinalPrice.StringFixed(2))

	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	assert.ErrorIs(t, err, ErrCartTooLarge)
	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindPhone, p.ID, 500000)
	assert.ErrorIs(t, err, ErrCartTooLarge)
	_, err = f.repo.SetQty(ctx, cart.ID, cart.Products[0].ID, models.MaxQty+1)
	assert.ErrorIs(t, err, ErrCartTooLarge)

	l.Price = decimal.RequireFromString("5100")
	assert.ErrorIs(t, f.repo.SaveProduct(ctx, l), ErrCartTooLarge)

	cart, err = f.repo.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, uint(1999), cart.Products[0].Qty)
	assert.Equal(t, "9995000.00", cart.FinalPrice.StringFixed(2))
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.laptop(t, "l", "100")
	c := f.customer(t, "joe")
	cart, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.repo.Checkout(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	require.NoError(t, err)
	ordered, err := f.repo.Checkout(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, ordered.InOrder)

	_, err = f.repo.AddProduct(ctx, cart.ID, c.ID, models.KindLaptop, l.ID, 1)
	assert.ErrorIs(t, err, ErrCartClosed)

	next, err := f.repo.OpenCart(ctx, c.ID)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, next.ID)

	total, carts, err := f.repo.ListCarts(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, carts, 2)
	assert.Len(t, carts[0].Products, 1)
}

func TestPreferKind(t *testing.T) {
	items := []models.Product{
		&models.Laptop{ProductBase: models.ProductBase{Slug: "l1"}},
		&models.Phone{ProductBase: models.ProductBase{Slug: "p1"}},
		&models.Laptop{ProductBase: models.ProductBase{Slug: "l2"}},
		&models.Phone{ProductBase: models.ProductBase{Slug: "p2"}},
	}
	preferKind(items, models.KindPhone)
	assert.Equal(t, []string{"p1", "p2", "l1", "l2"}, slugs(items))
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.laptop(t, "thinkpad-x1", "10")
	f.laptop(t, "macbook-air", "10")
	f.phone(t, "pixel-thinkphone", "10")

	total, items, err := f.repo.SearchProducts(ctx, "THINK", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"thinkpad-x1", "pixel-thinkphone"}, slugs(items))

	total, items, err = f.repo.SearchProducts(ctx, "think", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"pixel-thinkphone"}, slugs(items))

	_, items, err = f.repo.SearchProducts(ctx, "think", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchProducts_LiteralWildcards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.laptop(t, "x1_carbon", "10")
	f.laptop(t, "x1-carbon", "10")
	f.phone(t, "pixel", "10")

	total, items, err := f.repo.SearchProducts(ctx, "x1_", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"x1_carbon"}, slugs(items))

	total, items, err = f.repo.SearchProducts(ctx, "%", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestSearchProducts_PagesAcrossKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.laptop(t, "alpha-1", "10")
	f.laptop(t, "alpha-2", "10")
	f.phone(t, "alpha-3", "10")
	f.phone(t, "alpha-4", "10")

	total, items, err := f.repo.SearchProducts(ctx, "alpha", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"alpha-2", "alpha-3"}, slugs(items))

	total, items, err = f.repo.SearchProducts(ctx, "alpha", 3, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"alpha-4"}, slugs(items))

	total, items, err = f.repo.SearchProducts(ctx, "alpha", -20, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"alpha-1", "alpha-2"}, slugs(items))

	_, items, err = f.repo.SearchProducts(ctx, "alpha", math.MaxInt-10, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
}
