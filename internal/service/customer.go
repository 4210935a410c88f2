package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CustomerService struct {
	Repo *repo.GormRepo
}

type CustomerInput struct {
	UserID  *uint   `json:"user_id"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (in CustomerInput) apply(c *models.Customer) error {
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if len(phone) > 20 {
			return fmt.Errorf("phone must be at most 20 characters: %w", ErrValidation)
		}
		c.Phone = phone
	}
	if in.Address != nil {
		addr := strings.TrimSpace(*in.Address)
		if len(addr) > 255 {
			return fmt.Errorf("address must be at most 255 characters: %w", ErrValidation)
		}
		c.Address = addr
	}
	return nil
}

// ForUser returns the customer record of the user, creating an empty one for users registered
// without it (e.g. admins created from the command line).
func ForUser(ctx context.Context, r *repo.GormRepo, userID uint) (*models.Customer, error) {
	c, err := r.CustomerByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := r.GetUserByID(ctx, userID); err != nil {
		return nil, mapRepoErr(err, "user")
	}

	c = &models.Customer{UserID: userID}
	if err := r.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return r.CustomerByUserID(ctx, userID)
		}
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Me(ctx context.Context, userID uint) (*models.Customer, error) {
	return ForUser(ctx, s.Repo, userID)
}

func (s *CustomerService) UpdateMe(ctx context.Context, userID uint, in CustomerInput) (*models.Customer, error) {
	c, err := ForUser(ctx, s.Repo, userID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context, offset, limit int) (int64, []models.Customer, error) {
	return s.Repo.ListCustomers(ctx, offset, limit)
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, id)
	return c, mapRepoErr(err, "customer")
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if in.UserID == nil || *in.UserID == 0 {
		return nil, fmt.Errorf("user_id is required: %w", ErrValidation)
	}
	if _, err := s.Repo.GetUserByID(ctx, *in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d does not exist: %w", *in.UserID, ErrValidation)
		}
		return nil, err
	}

	c := &models.Customer{UserID: *in.UserID}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateCustomer(ctx, c); err != nil {
		return nil, mapRepoErr(err, "customer")
	}
	return c, nil
}

// Update never moves a customer to another user.
func (s *CustomerService) Update(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "customer")
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCustomer(ctx, c); err != nil {
		return nil, mapRepoErr(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return mapRepoErr(s.Repo.DeleteCustomer(ctx, id), "customer")
}
