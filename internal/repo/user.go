package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrTokenRevoked     = errors.New("token expired or revoked")
)

// CreateUserWithCustomer registers the user and the customer record attached to it.
func (r *GormRepo) CreateUserWithCustomer(ctx context.Context, u *models.User, c *models.Customer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("username = ?", u.Username).FirstOrCreate(u)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserAlreadyExist
		}

		c.UserID = u.ID
		return translate(tx.Create(c).Error)
	})
}

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// RotateRefreshToken revokes oldJTI and stores next; it fails when the old token is already
// expired or revoked, so every refresh token is usable exactly once.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("jti = ?", oldJTI).First(&old).Error; err != nil {
			return err
		}
		if old.Revoked || old.ExpiresAt < time.Now().Unix() {
			return ErrTokenRevoked
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenRevoked
		}
		return tx.Create(next).Error
	})
}

// RevokeRefresh marks the stored refresh token matching the raw token value as revoked.
func (r *GormRepo) RevokeRefresh(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}
