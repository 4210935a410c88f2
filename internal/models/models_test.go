package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRecalculate(t *testing.T) {
	cart := Cart{}
	cart.Recalculate()
	assert.True(t, cart.FinalPrice.IsZero())
	assert.Equal(t, uint(0), cart.TotalProducts)

	cart.Products = []CartProduct{
		{Qty: 2, FinalPrice: decimal.RequireFromString("199.98")},
		{Qty: 1, FinalPrice: decimal.RequireFromString("10.50")},
	}
	cart.Recalculate()
	assert.Equal(t, "210.48", cart.FinalPrice.StringFixed(2))
	assert.Equal(t, uint(2), cart.TotalProducts)
}

func TestCartProductRecalculate(t *testing.T) {
	cp := CartProduct{Qty: 3}
	cp.Recalculate(decimal.RequireFromString("33.33"))
	assert.Equal(t, "99.99", cp.FinalPrice.StringFixed(2))
}

func TestPhoneNormalizeSD(t *testing.T) {
	vol := uint(256)

	p := Phone{SD: false, SDVolumeMax: &vol}
	require.NoError(t, p.BeforeSave(nil))
	assert.Nil(t, p.SDVolumeMax)

	p = Phone{SD: true, SDVolumeMax: &vol}
	require.NoError(t, p.BeforeSave(nil))
	require.NotNil(t, p.SDVolumeMax)
	assert.Equal(t, uint(256), *p.SDVolumeMax)
}

func TestNewProductAndURLs(t *testing.T) {
	for _, kind := range Kinds {
		p, ok := NewProduct(kind)
		require.True(t, ok)
		assert.Equal(t, kind, p.Kind())
	}
	_, ok := NewProduct("tablet")
	assert.False(t, ok)
	assert.False(t, IsKind(""))

	l := &Laptop{ProductBase: ProductBase{Slug: "thinkpad-x1"}}
	assert.Equal(t, "/products/laptop/thinkpad-x1", ProductURL(l))
	assert.Equal(t, "laptops", l.CategorySlug())
	assert.Equal(t, "phones", (&Phone{}).CategorySlug())

	assert.Equal(t, "/categories/phones", Category{Slug: "phones"}.URL())
}
