package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateSpecification(ctx context.Context, s *models.Specification) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSpecification(ctx context.Context, id uint) (*models.Specification, error) {
	var s models.Specification
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSpecifications filters by product when kind is set; objectID 0 matches every product of the kind.
func (r *GormRepo) ListSpecifications(ctx context.Context, kind string, objectID uint) ([]models.Specification, error) {
	q := r.DB.WithContext(ctx).Order("id ASC")
	if kind != "" {
		q = q.Where("content_type = ?", kind)
		if objectID != 0 {
			q = q.Where("object_id = ?", objectID)
		}
	}

	var items []models.Specification
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) DeleteSpecification(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Specification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
