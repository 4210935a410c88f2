package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrCartClosed   = errors.New("cart already ordered")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrCartTooLarge = errors.New("cart exceeds the quantity or price limit")
)

// OpenCart returns the customer's cart that is not yet ordered, creating one if needed.
// The customer row is locked so concurrent first requests agree on a single cart.
func (r *GormRepo) OpenCart(ctx context.Context, customerID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&models.Customer{}, customerID).Error; err != nil {
			return err
		}
		err := tx.Where("owner_id = ? AND in_order = ?", customerID, false).Order("id ASC").First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = models.Cart{OwnerID: &customerID}
			return tx.Create(&cart).Error
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return loadCart(r.DB.WithContext(ctx), cart.ID)
}

func (r *GormRepo) GetCart(ctx context.Context, id uint) (*models.Cart, error) {
	return loadCart(r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ListCarts(ctx context.Context, offset, limit int) (int64, []models.Cart, error) {
	db := r.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Cart{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var carts []models.Cart
	if err := db.Preload("Products", orderByID).Order("id ASC").Offset(offset).Limit(limit).Find(&carts).Error; err != nil {
		return 0, nil, err
	}
	for i := range carts {
		if err := attachProducts(db, carts[i].Products); err != nil {
			return 0, nil, err
		}
	}
	return total, carts, nil
}

// AddProduct puts qty items of the product into the cart. A product already in the cart has its
// quantity increased instead of getting a second line.
func (r *GormRepo) AddProduct(ctx context.Context, cartID, customerID uint, kind string, productID, qty uint) (*models.Cart, error) {
	p, ok := models.NewProduct(kind)
	if !ok {
		return nil, ErrUnknownKind
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenCart(tx, cartID); err != nil {
			return err
		}
		if err := tx.First(p, productID).Error; err != nil {
			return err
		}

		var line models.CartProduct
		err := tx.Where("cart_id = ? AND content_type = ? AND object_id = ?", cartID, kind, productID).First(&line).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if qty > models.MaxQty {
				return ErrCartTooLarge
			}
			line = models.CartProduct{
				CustomerID:  customerID,
				CartID:      cartID,
				ContentType: kind,
				ObjectID:    productID,
				Qty:         qty,
			}
			line.Recalculate(p.Base().Price)
			if line.FinalPrice.GreaterThan(models.MaxAmount) {
				return ErrCartTooLarge
			}
			if err := tx.Create(&line).Error; err != nil {
				return translate(err)
			}
		case err != nil:
			return err
		default:
			if uint64(line.Qty)+uint64(qty) > models.MaxQty {
				return ErrCartTooLarge
			}
			if err := tx.Model(&line).Update("qty", line.Qty+qty).Error; err != nil {
				return err
			}
		}
		return recalcCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return loadCart(r.DB.WithContext(ctx), cartID)
}

// SetQty changes the quantity of a line; zero removes it.
func (r *GormRepo) SetQty(ctx context.Context, cartID, lineID, qty uint) (*models.Cart, error) {
	if qty == 0 {
		return r.RemoveLine(ctx, cartID, lineID)
	}
	if qty > models.MaxQty {
		return nil, ErrCartTooLarge
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenCart(tx, cartID); err != nil {
			return err
		}
		res := tx.Model(&models.CartProduct{}).Where("id = ? AND cart_id = ?", lineID, cartID).Update("qty", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return recalcCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return loadCart(r.DB.WithContext(ctx), cartID)
}

func (r *GormRepo) RemoveLine(ctx context.Context, cartID, lineID uint) (*models.Cart, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenCart(tx, cartID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND cart_id = ?", lineID, cartID).Delete(&models.CartProduct{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return recalcCart(tx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return loadCart(r.DB.WithContext(ctx), cartID)
}

// Checkout marks the cart as ordered; the next OpenCart for the owner starts a fresh one.
func (r *GormRepo) Checkout(ctx context.Context, cartID uint) (*models.Cart, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenCart(tx, cartID); err != nil {
			return err
		}
		if err := recalcCart(tx, cartID); err != nil {
			return err
		}

		var lines int64
		if err := tx.Model(&models.CartProduct{}).Where("cart_id = ?", cartID).Count(&lines).Error; err != nil {
			return err
		}
		if lines == 0 {
			return ErrEmptyCart
		}
		return tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("in_order", true).Error
	})
	if err != nil {
		return nil, err
	}
	return loadCart(r.DB.WithContext(ctx), cartID)
}

func lockOpenCart(tx *gorm.DB, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, cartID).Error; err != nil {
		return nil, err
	}
	if cart.InOrder {
		return nil, ErrCartClosed
	}
	return &cart, nil
}

// recalcCart reprices every line from the current product price and stores the cart totals.
// Lines whose product no longer exists are dropped. ErrCartTooLarge is returned when a line or
// the cart total does not fit a money column.
func recalcCart(tx *gorm.DB, cartID uint) error {
	var lines []models.CartProduct
	if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&lines).Error; err != nil {
		return err
	}
	if err := attachProducts(tx, lines); err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.Product == nil {
			if err := tx.Delete(&models.CartProduct{}, line.ID).Error; err != nil {
				return err
			}
			continue
		}
		line.Recalculate(line.Product.Base().Price)
		if line.FinalPrice.GreaterThan(models.MaxAmount) {
			return ErrCartTooLarge
		}
		if err := tx.Model(&models.CartProduct{}).Where("id = ?", line.ID).Update("final_price", line.FinalPrice).Error; err != nil {
			return err
		}
		kept = append(kept, line)
	}

	cart := models.Cart{ID: cartID, Products: kept}
	cart.Recalculate()
	if cart.FinalPrice.GreaterThan(models.MaxAmount) {
		return ErrCartTooLarge
	}
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]any{
		"final_price":    cart.FinalPrice,
		"total_products": cart.TotalProducts,
	}).Error
}

func loadCart(db *gorm.DB, id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := db.Preload("Products", orderByID).First(&cart, id).Error; err != nil {
		return nil, err
	}
	if err := attachProducts(db, cart.Products); err != nil {
		return nil, err
	}
	return &cart, nil
}

// attachProducts fills Product of every line, leaving it nil when the product is gone.
func attachProducts(db *gorm.DB, lines []models.CartProduct) error {
	ids := make(map[string][]uint)
	for _, l := range lines {
		ids[l.ContentType] = append(ids[l.ContentType], l.ObjectID)
	}

	found := make(map[string]map[uint]models.Product, len(ids))
	for kind, objIDs := range ids {
		items, err := findProducts(db.Session(&gorm.Session{NewDB: true}).Where("id IN ?", objIDs), kind)
		if errors.Is(err, ErrUnknownKind) {
			continue
		}
		if err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(items))
		for _, p := range items {
			byID[p.Base().ID] = p
		}
		found[kind] = byID
	}

	for i := range lines {
		lines[i].Product = found[lines[i].ContentType][lines[i].ObjectID]
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
