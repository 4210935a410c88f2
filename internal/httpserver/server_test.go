package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/testdb"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type server struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	catalog *service.CatalogService
	auth    *service.AuthService
	images  *storage.MemStore
}

func newServer(t *testing.T) *server {
	t.Helper()

	db := testdb.New(t)
	r := repo.New(db)
	images := storage.NewMemStore()
	rec := &events.Recorder{}

	catalog := &service.CatalogService{
		Repo:   r,
		Images: images,
		Events: rec,
		Search: search.Local{Products: r},
		Cache:  cache.NewMemory(time.Minute),
	}
	carts := &service.CartService{Repo: r, Events: rec}
	auth := &service.AuthService{
		Repo:          r,
		Events:        rec,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}

	e := echo.New()
	Register(e, &Deps{
		Views:     &ViewsHTTP{Catalog: catalog, Cart: carts},
		Catalog:   &CatalogHTTP{Svc: catalog},
		Cart:      &CartHTTP{Svc: carts},
		Auth:      &AuthHTTP{Svc: auth},
		Customers: &CustomerHTTP{Svc: &service.CustomerService{Repo: r}},
		Health:    &HealthHTTP{DB: db},
		JWTSecret: auth.JWTSecret,
		Refresher: auth,
	})

	ctx := context.Background()
	require.NoError(t, r.CreateCategory(ctx, &models.Category{Name: "Ноутбуки", Slug: "laptops"}))
	require.NoError(t, r.CreateCategory(ctx, &models.Category{Name: "Телефоны", Slug: "phones"}))

	return &server{e: e, repo: r, catalog: catalog, auth: auth, images: images}
}

func (s *server) do(req *http.Request, pair *tokens.Pair) *httptest.ResponseRecorder {
	if pair != nil {
		req.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: pair.AccessToken})
		req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: pair.RefreshToken})
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) call(method, target string, body any, pair *tokens.Pair) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.do(req, pair)
}

func (s *server) login(t *testing.T, username string, admin bool) *tokens.Pair {
	t.Helper()
	ctx := context.Background()
	var err error
	if admin {
		_, err = s.auth.RegisterAdmin(ctx, username, "password")
	} else {
		_, err = s.auth.Register(ctx, username, "password")
	}
	require.NoError(t, err)

	pair, err := s.auth.Login(ctx, username, "password")
	require.NoError(t, err)
	return pair
}

func (s *server) laptop(t *testing.T, slug, price string) models.Product {
	t.Helper()
	data, _ := json.Marshal(map[string]any{"title": slug, "slug": slug, "price": price, "category_id": 1})
	p, err := s.catalog.CreateProduct(context.Background(), models.KindLaptop, data, pngUpload(t, 500, 500))
	require.NoError(t, err)
	return p
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func pngUpload(t *testing.T, w, h int) *service.ImageUpload {
	b := pngBytes(t, w, h)
	return &service.ImageUpload{File: bytes.NewReader(b), Size: int64(len(b))}
}

// multipartProduct builds an admin upload with the JSON fields in "data" and an optional image.
func multipartProduct(t *testing.T, method, target string, data any, img []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("data", string(b)))
	if img != nil {
		fw, err := mw.CreateFormFile("image", "image.png")
		require.NoError(t, err)
		_, err = fw.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

type cartBody struct {
	ID               uint            `json:"id"`
	TotalProducts    uint            `json:"total_products"`
	FinalPrice       decimal.Decimal `json:"final_price"`
	InOrder          bool            `json:"in_order"`
	ForAnonymousUser bool            `json:"for_anonymous_user"`
	Products         []struct {
		ID          uint            `json:"id"`
		ContentType string          `json:"content_type"`
		Qty         uint            `json:"qty"`
		FinalPrice  decimal.Decimal `json:"final_price"`
		Product     struct {
			Slug string `json:"slug"`
		} `json:"product"`
	} `json:"products"`
}

type pageBody struct {
	Categories []models.CategoryCount `json:"categories"`
	Cart       cartBody               `json:"cart"`
	Products   []struct {
		ID    uint   `json:"id"`
		Slug  string `json:"slug"`
		Image string `json:"image"`
	} `json:"products"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
