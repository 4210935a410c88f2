package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type CatalogService struct {
	Repo   *repo.GormRepo
	Images storage.ImageStore
	Events events.Publisher
	Search search.Engine
	Cache  cache.Cache
}

type CategoryInput struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func validateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required: %w", ErrValidation)
	}
	if len(slug) > 255 || !slugRe.MatchString(slug) {
		return fmt.Errorf("slug may contain only latin letters, digits, '-' and '_': %w", ErrValidation)
	}
	return nil
}

// Sidebar lists the categories with product counts shown on every page. The result is cached
// until the catalog changes.
func (s *CatalogService) Sidebar(ctx context.Context) ([]models.CategoryCount, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.sidebar")

	if b, ok, err := s.Cache.Get(ctx, cache.KeySidebar); err != nil {
		l.Warn("cache_get_error", "error", err)
	} else if ok {
		var out []models.CategoryCount
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
	}

	out, err := s.Repo.CategoriesWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := s.Cache.Set(ctx, cache.KeySidebar, b); err != nil {
			l.Warn("cache_set_error", "error", err)
		}
	}
	return out, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.Cache.Delete(ctx, cache.KeySidebar); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_error", "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(ctx, events.TopicProduct, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicProduct, "error", err)
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	return cat, mapRepoErr(err, "category")
}

// CategoryProducts returns the category with every product filed under it.
func (s *CatalogService) CategoryProducts(ctx context.Context, slug string) (*models.Category, []models.Product, error) {
	cat, err := s.Repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, mapRepoErr(err, "category")
	}
	items, err := s.Repo.ProductsByCategory(ctx, cat.ID)
	if err != nil {
		return nil, nil, err
	}
	return cat, items, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Slug == nil {
		return nil, fmt.Errorf("slug is required: %w", ErrValidation)
	}
	if err := validateSlug(*in.Slug); err != nil {
		return nil, err
	}

	cat := &models.Category{Name: strings.TrimSpace(*in.Name), Slug: *in.Slug}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, mapRepoErr(err, "category")
	}
	s.invalidate(ctx)
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "category")
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("name is required: %w", ErrValidation)
		}
		cat.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && *in.Slug != cat.Slug {
		if err := validateSlug(*in.Slug); err != nil {
			return nil, err
		}
		n, err := s.Repo.CountInCategory(ctx, cat.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("category %q still holds %d products, its slug cannot change: %w", cat.Slug, n, ErrConflict)
		}
		cat.Slug = *in.Slug
	}

	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, mapRepoErr(err, "category")
	}
	s.invalidate(ctx)
	return cat, nil
}

// DeleteCategory removes the category and its products, including their images and index entries.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	items, err := s.Repo.ProductsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return mapRepoErr(err, "category")
	}
	for _, p := range items {
		s.forgetProduct(ctx, p)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, kind string, id uint) (models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, kind, id)
	return p, mapRepoErr(err, kind)
}

func (s *CatalogService) ProductBySlug(ctx context.Context, kind, slug string) (models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, kind, slug)
	return p, mapRepoErr(err, "product")
}

func (s *CatalogService) ListProducts(ctx context.Context, kind string, offset, limit int) (int64, []models.Product, error) {
	total, items, err := s.Repo.ListProducts(ctx, kind, offset, limit)
	return total, items, mapRepoErr(err, "product kind")
}

// Latest returns the newest products of the given kinds, withRespectTo kind first.
func (s *CatalogService) Latest(ctx context.Context, withRespectTo string, kinds ...string) ([]models.Product, error) {
	return s.Repo.LatestProducts(ctx, withRespectTo, kinds...)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []search.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("query is required: %w", ErrValidation)
	}
	return s.Search.Search(ctx, query, offset, limit)
}

// Reindex pushes every stored product to the search engine and reports how many were indexed.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	const batch = 100
	n := 0
	for _, kind := range models.Kinds {
		for offset := 0; ; offset += batch {
			_, items, err := s.Repo.ListProducts(ctx, kind, offset, batch)
			if err != nil {
				return n, err
			}
			for _, p := range items {
				if err := s.Search.Index(ctx, search.NewDocument(p)); err != nil {
					return n, fmt.Errorf("index %s: %w", search.DocID(kind, p.Base().ID), err)
				}
				n++
			}
			if len(items) < batch {
				break
			}
		}
	}
	return n, nil
}
