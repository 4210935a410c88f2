package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/imagecheck"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// ImageUpload is an uploaded product image; File is rewound after validation.
type ImageUpload struct {
	File io.ReadSeeker
	Size int64
}

// CreateProduct decodes data into a new product of kind. The image is mandatory.
func (s *CatalogService) CreateProduct(ctx context.Context, kind string, data []byte, img *ImageUpload) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "kind", kind)

	p, ok := models.NewProduct(kind)
	if !ok {
		return nil, fmt.Errorf("unknown product kind %q: %w", kind, ErrNotFound)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode product: %v: %w", err, ErrValidation)
	}
	b := p.Base()
	b.ID = 0
	b.Image = ""

	if img == nil {
		return nil, fmt.Errorf("image is required: %w", ErrValidation)
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return nil, err
	}

	key, err := s.storeImage(ctx, kind, img)
	if err != nil {
		return nil, err
	}
	b.Image = key

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		s.dropImage(ctx, key)
		return nil, mapRepoErr(err, "product")
	}

	l.Info("product_created", "product_id", b.ID, "slug", b.Slug)
	s.productChanged(ctx, "product_created", p)
	return p, nil
}

// UpdateProduct applies the JSON fields in data over the stored product; absent fields keep their
// values. A new image replaces the old object.
func (s *CatalogService) UpdateProduct(ctx context.Context, kind string, id uint, data []byte, img *ImageUpload) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product", "kind", kind, "product_id", id)

	p, err := s.Repo.GetProduct(ctx, kind, id)
	if err != nil {
		return nil, mapRepoErr(err, kind)
	}
	b := p.Base()
	oldImage := b.Image

	if len(data) > 0 {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode product: %v: %w", err, ErrValidation)
		}
	}
	b.ID = id
	b.Image = oldImage

	if err := s.validateProduct(ctx, p); err != nil {
		return nil, err
	}

	if img != nil {
		key, err := s.storeImage(ctx, kind, img)
		if err != nil {
			return nil, err
		}
		b.Image = key
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		if b.Image != oldImage {
			s.dropImage(ctx, b.Image)
		}
		return nil, mapRepoErr(err, "product")
	}
	if b.Image != oldImage && oldImage != "" {
		s.dropImage(ctx, oldImage)
	}

	l.Info("product_updated")
	s.productChanged(ctx, "product_updated", p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, kind string, id uint) error {
	p, err := s.Repo.GetProduct(ctx, kind, id)
	if err != nil {
		return mapRepoErr(err, kind)
	}
	if err := s.Repo.DeleteProduct(ctx, kind, id); err != nil {
		return mapRepoErr(err, kind)
	}
	s.forgetProduct(ctx, p)
	s.invalidate(ctx)
	return nil
}

// ProductImage streams the stored image object.
func (s *CatalogService) ProductImage(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	rc, info, err := s.Images.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ObjectInfo{}, fmt.Errorf("image not found: %w", ErrNotFound)
	}
	return rc, info, err
}

func (s *CatalogService) validateProduct(ctx context.Context, p models.Product) error {
	b := p.Base()
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if len(b.Title) > 255 {
		return fmt.Errorf("title must be at most 255 characters: %w", ErrValidation)
	}
	if err := validateSlug(b.Slug); err != nil {
		return err
	}
	if b.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if b.Price.GreaterThan(models.MaxAmount) || !b.Price.Equal(b.Price.Round(2)) {
		return fmt.Errorf("price must fit 9 digits with 2 decimal places: %w", ErrValidation)
	}

	if b.CategoryID == 0 {
		return fmt.Errorf("category_id is required: %w", ErrValidation)
	}
	cat, err := s.Repo.GetCategory(ctx, b.CategoryID)
	if err != nil {
		if errors.Is(mapRepoErr(err, "category"), ErrNotFound) {
			return fmt.Errorf("category %d does not exist: %w", b.CategoryID, ErrValidation)
		}
		return err
	}
	if cat.Slug != p.CategorySlug() {
		return fmt.Errorf("%s must be filed under category %q: %w", p.Kind(), p.CategorySlug(), ErrValidation)
	}

	if ph, ok := p.(*models.Phone); ok {
		ph.NormalizeSD()
	}
	return nil
}

func (s *CatalogService) storeImage(ctx context.Context, kind string, img *ImageUpload) (string, error) {
	dims, err := imagecheck.Validate(img.File, img.Size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", err, ErrValidation)
	}
	if _, err := img.File.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind image: %w", err)
	}

	key := fmt.Sprintf("products/%s/%s.%s", kind, uuid.NewString(), dims.Format)
	if _, err := s.Images.Put(ctx, key, img.File, storage.PutObjectOptions{
		Size:        img.Size,
		ContentType: dims.ContentType(),
	}); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

func (s *CatalogService) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Images.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("image_delete_error", "key", key, "error", err)
	}
}

func (s *CatalogService) productChanged(ctx context.Context, eventType string, p models.Product) {
	if err := s.Search.Index(ctx, search.NewDocument(p)); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "doc_id", search.DocID(p.Kind(), p.Base().ID), "error", err)
	}
	s.publish(ctx, search.DocID(p.Kind(), p.Base().ID), map[string]any{
		"type":       eventType,
		"kind":       p.Kind(),
		"product_id": p.Base().ID,
		"slug":       p.Base().Slug,
		"price":      p.Base().Price.StringFixed(2),
	})
	s.invalidate(ctx)
}

// forgetProduct cleans up after a product row is gone.
func (s *CatalogService) forgetProduct(ctx context.Context, p models.Product) {
	b := p.Base()
	s.dropImage(ctx, b.Image)
	if err := s.Search.Remove(ctx, p.Kind(), b.ID); err != nil {
		logging.FromContext(ctx).Error("search_remove_error", "doc_id", search.DocID(p.Kind(), b.ID), "error", err)
	}
	s.publish(ctx, search.DocID(p.Kind(), b.ID), map[string]any{
		"type":       "product_deleted",
		"kind":       p.Kind(),
		"product_id": b.ID,
	})
}
