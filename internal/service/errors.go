package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

// mapRepoErr translates storage errors into the service sentinels; what names the missing thing.
func mapRepoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, repo.ErrUnknownKind):
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	case errors.Is(err, repo.ErrDuplicate):
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	case errors.Is(err, repo.ErrCartClosed):
		return fmt.Errorf("cart already ordered: %w", ErrConflict)
	case errors.Is(err, repo.ErrCartTooLarge):
		return fmt.Errorf("cart total must not exceed %s and quantity %d: %w", models.MaxAmount.StringFixed(2), models.MaxQty, ErrValidation)
	case errors.Is(err, repo.ErrEmptyCart):
		return fmt.Errorf("cart is empty: %w", ErrValidation)
	}
	return err
}
