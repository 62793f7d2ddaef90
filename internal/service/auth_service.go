package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"acquisitions/internal/auth"
	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/model"
	"acquisitions/internal/repository"
)

// AuthService handles sign-up, sign-in, and sign-out.
type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, claims *auth.Claims, user *model.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	repo       repository.UserRepository
	jwtService *auth.JWTService
	sessions   auth.SessionStoreInterface
}

// NewAuthService creates an authentication service.
func NewAuthService(repo repository.UserRepository, jwtService *auth.JWTService, sessions auth.SessionStoreInterface) AuthService {
	return &authService{repo: repo, jwtService: jwtService, sessions: sessions}
}

// Register creates a new user with a hashed password. The unique index on
// email is the authority on duplicates; no pre-check race.
func (s *authService) Register(ctx context.Context, name, email, password, role string) (*model.User, error) {
	if role == "" {
		role = model.RoleUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *auth.Claims, *model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", nil, nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return "", nil, nil, fmt.Errorf("generate token: %w", err)
	}
	return token, claims, user, nil
}

// Logout revokes the session's jti until the token would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	return RevokeSession(ctx, s.sessions, claims)
}

// RevokeSession marks the claims' token ID revoked for its remaining lifetime.
// Already-expired tokens need no entry.
func RevokeSession(ctx context.Context, sessions auth.SessionStoreInterface, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return sessions.Revoke(ctx, claims.ID, ttl)
}
