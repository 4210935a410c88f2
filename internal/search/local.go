package search

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error)
}

// Local answers queries from the database; indexing is a no-op. Used when Elasticsearch is not configured.
type Local struct {
	Products ProductSearcher
}

func (Local) Index(context.Context, Document) error { return nil }

func (Local) Remove(context.Context, string, uint) error { return nil }

func (l Local) Search(ctx context.Context, query string, from, size int) (int64, []Document, error) {
	total, items, err := l.Products.SearchProducts(ctx, query, from, size)
	if err != nil {
		return 0, nil, err
	}
	docs := make([]Document, len(items))
	for i, p := range items {
		docs[i] = NewDocument(p)
	}
	return total, docs, nil
}
