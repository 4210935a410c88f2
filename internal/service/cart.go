package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// AnonymousCart is shown to visitors who are not logged in; it is never stored.
func AnonymousCart() *models.Cart {
	return &models.Cart{ForAnonymousUser: true, Products: []models.CartProduct{}}
}

func (s *CartService) publish(ctx context.Context, userID uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event["user_id"] = userID
	if err := s.Events.PublishEvent(ctx, events.TopicCart, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicCart, "error", err)
	}
}

func (s *CartService) openCart(ctx context.Context, userID uint) (*models.Customer, *models.Cart, error) {
	customer, err := ForUser(ctx, s.Repo, userID)
	if err != nil {
		return nil, nil, err
	}
	cart, err := s.Repo.OpenCart(ctx, customer.ID)
	if err != nil {
		return nil, nil, err
	}
	return customer, cart, nil
}

// Current returns the open cart of the user.
func (s *CartService) Current(ctx context.Context, userID uint) (*models.Cart, error) {
	_, cart, err := s.openCart(ctx, userID)
	return cart, err
}

// AddToCart puts qty items of the product identified by kind and slug into the user's cart.
func (s *CartService) AddToCart(ctx context.Context, userID uint, kind, slug string, qty uint) (*models.Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add", "kind", kind, "slug", slug)

	if qty == 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}
	if qty > models.MaxQty {
		return nil, fmt.Errorf("quantity must be at most %d: %w", models.MaxQty, ErrValidation)
	}
	p, err := s.Repo.GetProductBySlug(ctx, kind, slug)
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}

	customer, cart, err := s.openCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err = s.Repo.AddProduct(ctx, cart.ID, customer.ID, kind, p.Base().ID, qty)
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}

	l.Info("cart_add", "cart_id", cart.ID, "qty", qty)
	s.publish(ctx, userID, map[string]any{
		"type":       "cart_add",
		"cart_id":    cart.ID,
		"kind":       kind,
		"product_id": p.Base().ID,
		"qty":        qty,
	})
	return cart, nil
}

// SetQty changes a line of the user's cart; zero removes the line.
func (s *CartService) SetQty(ctx context.Context, userID, lineID, qty uint) (*models.Cart, error) {
	_, cart, err := s.openCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err = s.Repo.SetQty(ctx, cart.ID, lineID, qty)
	if err != nil {
		return nil, mapRepoErr(err, "cart item")
	}
	s.publish(ctx, userID, map[string]any{"type": "cart_set_qty", "cart_id": cart.ID, "line_id": lineID, "qty": qty})
	return cart, nil
}

func (s *CartService) RemoveLine(ctx context.Context, userID, lineID uint) (*models.Cart, error) {
	_, cart, err := s.openCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err = s.Repo.RemoveLine(ctx, cart.ID, lineID)
	if err != nil {
		return nil, mapRepoErr(err, "cart item")
	}
	s.publish(ctx, userID, map[string]any{"type": "cart_remove", "cart_id": cart.ID, "line_id": lineID})
	return cart, nil
}

// Checkout hands the open cart over as an order.
func (s *CartService) Checkout(ctx context.Context, userID uint) (*models.Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout")

	_, cart, err := s.openCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err = s.Repo.Checkout(ctx, cart.ID)
	if err != nil {
		return nil, mapRepoErr(err, "cart")
	}

	l.Info("cart_ordered", "cart_id", cart.ID, "final_price", cart.FinalPrice.StringFixed(2))
	s.publish(ctx, userID, map[string]any{
		"type":           "cart_ordered",
		"cart_id":        cart.ID,
		"total_products": cart.TotalProducts,
		"final_price":    cart.FinalPrice.StringFixed(2),
	})
	return cart, nil
}

func (s *CartService) List(ctx context.Context, offset, limit int) (int64, []models.Cart, error) {
	return s.Repo.ListCarts(ctx, offset, limit)
}

func (s *CartService) Get(ctx context.Context, id uint) (*models.Cart, error) {
	cart, err := s.Repo.GetCart(ctx, id)
	return cart, mapRepoErr(err, "cart")
}
