// Package search indexes products in Elasticsearch and answers storefront queries.
package search

import (
	"context"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Document is the indexed form of a product of any kind.
type Document struct {
	Kind        string `json:"kind"`
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

func NewDocument(p models.Product) Document {
	b := p.Base()
	return Document{
		Kind:        p.Kind(),
		ID:          b.ID,
		Title:       b.Title,
		Slug:        b.Slug,
		Description: b.Description,
		Price:       b.Price.StringFixed(2),
		Image:       b.Image,
		URL:         models.ProductURL(p),
	}
}

// DocID is unique across kinds.
func DocID(kind string, id uint) string {
	return kind + "-" + strconv.FormatUint(uint64(id), 10)
}

type Engine interface {
	Index(ctx context.Context, doc Document) error
	Remove(ctx context.Context, kind string, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []Document, error)
}
