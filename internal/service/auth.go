package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var (
	ErrInvalidCredentials  = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
)

type AuthService struct {
	Repo          *repo.GormRepo
	Events        events.Publisher
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *AuthService) publish(ctx context.Context, userID uint, eventType string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event := map[string]any{"type": eventType, "user_id": userID}
	if err := s.Events.PublishEvent(ctx, events.TopicUser, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicUser, "error", err)
	}
}

// Register creates a user with the "user" role and its customer record.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.register(ctx, username, password, authmw.RoleUser)
}

// RegisterAdmin is used by the command line to bootstrap administrators.
func (s *AuthService) RegisterAdmin(ctx context.Context, username, password string) (*models.User, error) {
	return s.register(ctx, username, password, authmw.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}
	if len(username) > 150 {
		return nil, fmt.Errorf("username must be at most 150 characters: %w", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}

	if err := s.Repo.CreateUserWithCustomer(ctx, user, &models.Customer{}); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) || errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("user already exist: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID, "user_registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, next, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, next); err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID, "user_logged_in")
	return pair, nil
}

// Refresh trades a refresh token for a new pair. Every refresh token is accepted once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.Repo.GetUserByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	pair, next, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, next); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "token expired or revoked", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return pair, nil
}

// LogOut revokes the refresh token; an empty token is a no-op.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, refreshToken)
}

func (s *AuthService) issue(user *models.User) (*tokens.Pair, *models.RefreshToken, error) {
	now := time.Now()
	subject := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(s.AccessTTL)
	access, err := tokens.SignAccess(s.JWTSecret, subject, user.Role, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(s.RefreshTTL)
	refresh, err := tokens.SignRefresh(s.RefreshSecret, subject, jti, refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}

	stored := &models.RefreshToken{
		TokenHash: jwthelp.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.Role == authmw.RoleAdmin,
	}, stored, nil
}
