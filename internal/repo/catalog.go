package repo

import (
	"context"
	"slices"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// LatestPerKind is how many of the newest products of every kind LatestProducts returns.
const LatestPerKind = 5

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return translate(r.DB.WithContext(ctx).Create(cat).Error)
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return translate(r.DB.WithContext(ctx).Save(cat).Error)
}

// DeleteCategory removes the category together with every product filed under it.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range models.Kinds {
			p, _ := models.NewProduct(kind)
			var ids []uint
			if err := tx.Model(p).Where("category_id = ?", id).Pluck("id", &ids).Error; err != nil {
				return err
			}
			if err := removeProducts(tx, kind, ids); err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountInCategory returns the number of products of all kinds filed under the category.
func (r *GormRepo) CountInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var total int64
	for _, kind := range models.Kinds {
		p, _ := models.NewProduct(kind)
		var n int64
		if err := r.DB.WithContext(ctx).Model(p).Where("category_id = ?", categoryID).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// CategoriesWithCounts lists every category with the number of products of all kinds in it.
func (r *GormRepo) CategoriesWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	db := r.DB.WithContext(ctx)

	cats, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(cats))
	for _, kind := range models.Kinds {
		p, _ := models.NewProduct(kind)
		var rows []struct {
			CategoryID uint
			N          int64
		}
		if err := db.Model(p).Select("category_id, count(*) AS n").Group("category_id").Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			counts[row.CategoryID] += row.N
		}
	}

	out := make([]models.CategoryCount, 0, len(cats))
	for _, c := range cats {
		out = append(out, models.CategoryCount{Name: c.Name, URL: c.URL(), Count: counts[c.ID]})
	}
	return out, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, kind string, id uint) (models.Product, error) {
	p, ok := models.NewProduct(kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	if err := r.DB.WithContext(ctx).First(p, id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, kind, slug string) (models.Product, error) {
	p, ok := models.NewProduct(kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, kind string, offset, limit int) (int64, []models.Product, error) {
	p, ok := models.NewProduct(kind)
	if !ok {
		return 0, nil, ErrUnknownKind
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(p).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items, err := findProducts(r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit), kind)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ProductsByCategory returns the products of every kind filed under the category.
func (r *GormRepo) ProductsByCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	var out []models.Product
	for _, kind := range models.Kinds {
		items, err := findProducts(r.DB.WithContext(ctx).Where("category_id = ?", categoryID).Order("id ASC"), kind)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p models.Product) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

// SaveProduct stores p and reprices the open carts holding it.
func (r *GormRepo) SaveProduct(ctx context.Context, p models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return translate(err)
		}

		var cartIDs []uint
		if err := tx.Model(&models.CartProduct{}).
			Joins("JOIN carts ON carts.id = cart_products.cart_id").
			Where("cart_products.content_type = ? AND cart_products.object_id = ? AND carts.in_order = ?", p.Kind(), p.Base().ID, false).
			Distinct().
			Pluck("cart_products.cart_id", &cartIDs).Error; err != nil {
			return err
		}
		for _, id := range cartIDs {
			if err := recalcCart(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRepo) DeleteProduct(ctx context.Context, kind string, id uint) error {
	p, ok := models.NewProduct(kind)
	if !ok {
		return ErrUnknownKind
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(p, id).Error; err != nil {
			return err
		}
		return removeProducts(tx, kind, []uint{id})
	})
}

// LatestProducts returns up to LatestPerKind newest products of every requested kind, kinds in
// the order given. When withRespectTo names one of the kinds, its products are moved to the front.
func (r *GormRepo) LatestProducts(ctx context.Context, withRespectTo string, kinds ...string) ([]models.Product, error) {
	var out []models.Product
	for _, kind := range kinds {
		if !models.IsKind(kind) {
			continue
		}
		items, err := findProducts(r.DB.WithContext(ctx).Order("id DESC").Limit(LatestPerKind), kind)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}

	if withRespectTo != "" && slices.Contains(kinds, withRespectTo) {
		preferKind(out, withRespectTo)
	}
	return out, nil
}

func preferKind(items []models.Product, kind string) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Kind() == kind && items[j].Kind() != kind
	})
}

// removeProducts deletes products with their specifications and cart lines, repricing the affected carts.
func removeProducts(tx *gorm.DB, kind string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	p, ok := models.NewProduct(kind)
	if !ok {
		return ErrUnknownKind
	}

	var cartIDs []uint
	if err := tx.Model(&models.CartProduct{}).
		Where("content_type = ? AND object_id IN ?", kind, ids).
		Distinct().
		Pluck("cart_id", &cartIDs).Error; err != nil {
		return err
	}
	if err := tx.Where("content_type = ? AND object_id IN ?", kind, ids).Delete(&models.CartProduct{}).Error; err != nil {
		return err
	}
	if err := tx.Where("content_type = ? AND object_id IN ?", kind, ids).Delete(&models.Specification{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(p, ids).Error; err != nil {
		return err
	}

	for _, id := range cartIDs {
		if err := recalcCart(tx, id); err != nil {
			return err
		}
	}
	return nil
}

type productPtr[T any] interface {
	*T
	models.Product
}

func findAs[T any, PT productPtr[T]](q *gorm.DB) ([]models.Product, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Product, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// findProducts runs the prepared query q against the table of kind.
func findProducts(q *gorm.DB, kind string) ([]models.Product, error) {
	switch kind {
	case models.KindLaptop:
		return findAs[models.Laptop](q)
	case models.KindPhone:
		return findAs[models.Phone](q)
	}
	return nil, ErrUnknownKind
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchProducts matches query against title and description of every kind, case-insensitively.
// Results are ordered by kind, then id.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	match := func(kind string) *gorm.DB {
		p, _ := models.NewProduct(kind)
		return r.DB.WithContext(ctx).Model(p).
			Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	skip := int64(max(offset, 0))
	var total int64
	out := []models.Product{}
	for _, kind := range models.Kinds {
		var n int64
		if err := match(kind).Count(&n).Error; err != nil {
			return 0, nil, err
		}
		total += n

		if skip >= n {
			skip -= n
			continue
		}
		if len(out) >= limit {
			continue
		}
		items, err := findProducts(match(kind).Order("id ASC").Offset(int(skip)).Limit(limit-len(out)), kind)
		if err != nil {
			return 0, nil, err
		}
		skip = 0
		out = append(out, items...)
	}
	return total, out, nil
}
