package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *GormRepo) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCustomers(ctx context.Context, offset, limit int) (int64, []models.Customer, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Customer
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SaveCustomer(ctx context.Context, c *models.Customer) error {
	return translate(r.DB.WithContext(ctx).Save(c).Error)
}

// DeleteCustomer removes the customer with every cart they own.
func (r *GormRepo) DeleteCustomer(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartIDs []uint
		if err := tx.Model(&models.Cart{}).Where("owner_id = ?", id).Pluck("id", &cartIDs).Error; err != nil {
			return err
		}
		if len(cartIDs) > 0 {
			if err := tx.Where("cart_id IN ?", cartIDs).Delete(&models.CartProduct{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Cart{}, cartIDs).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
