package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (s *CatalogService) CreateSpecification(ctx context.Context, kind string, objectID uint, name string) (*models.Specification, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, kind, objectID); err != nil {
		return nil, mapRepoErr(err, "product")
	}

	spec := &models.Specification{ContentType: kind, ObjectID: objectID, Name: name}
	if err := s.Repo.CreateSpecification(ctx, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *CatalogService) ListSpecifications(ctx context.Context, kind string, objectID uint) ([]models.Specification, error) {
	if kind != "" && !models.IsKind(kind) {
		return nil, fmt.Errorf("unknown product kind %q: %w", kind, ErrNotFound)
	}
	return s.Repo.ListSpecifications(ctx, kind, objectID)
}

func (s *CatalogService) GetSpecification(ctx context.Context, id uint) (*models.Specification, error) {
	spec, err := s.Repo.GetSpecification(ctx, id)
	return spec, mapRepoErr(err, "specification")
}

func (s *CatalogService) DeleteSpecification(ctx context.Context, id uint) error {
	return mapRepoErr(s.Repo.DeleteSpecification(ctx, id), "specification")
}
