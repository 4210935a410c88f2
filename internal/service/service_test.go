package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/testdb"
)

type testEnv struct {
	Repo     *repo.GormRepo
	Images   *storage.MemStore
	Events   *events.Recorder
	Cache    *cache.Memory
	Catalog  *CatalogService
	Cart     *CartService
	Customer *CustomerService
	Auth     *AuthService

	Laptops *models.Category
	Phones  *models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(testdb.New(t))
	env := &testEnv{
		Repo:   r,
		Images: storage.NewMemStore(),
		Events: &events.Recorder{},
		Cache:  cache.NewMemory(time.Minute),
	}
	env.Catalog = &CatalogService{
		Repo:   r,
		Images: env.Images,
		Events: env.Events,
		Search: search.Local{Products: r},
		Cache:  env.Cache,
	}
	env.Cart = &CartService{Repo: r, Events: env.Events}
	env.Customer = &CustomerService{Repo: r}
	env.Auth = &AuthService{
		Repo:          r,
		Events:        env.Events,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}

	ctx := context.Background()
	env.Laptops = &models.Category{Name: "Ноутбуки", Slug: "laptops"}
	env.Phones = &models.Category{Name: "Телефоны", Slug: "phones"}
	require.NoError(t, r.CreateCategory(ctx, env.Laptops))
	require.NoError(t, r.CreateCategory(ctx, env.Phones))
	return env
}

func pngUpload(t *testing.T, w, h int) *ImageUpload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return &ImageUpload{File: bytes.NewReader(buf.Bytes()), Size: int64(buf.Len())}
}

func (env *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := env.Auth.Register(context.Background(), username, "password")
	require.NoError(t, err)
	return u
}

func eventTypes(rec *events.Recorder, topic string) []string {
	var out []string
	for _, e := range rec.Events() {
		if e.Topic != topic {
			continue
		}
		if m, ok := e.Event.(map[string]any); ok {
			out = append(out, m["type"].(string))
		}
	}
	return out
}
