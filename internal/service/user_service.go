package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"acquisitions/internal/model"
	"acquisitions/internal/repository"
)

const bcryptCost = 10

// UserUpdate is a partial update; nil fields are left untouched. Values are
// expected to be normalized (trimmed, lowercased email) by the caller.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil && u.Role == nil
}

// UserService exposes user account operations.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, update UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService over the repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateUser applies a partial update, hashing the password when one is supplied.
func (s *userService) UpdateUser(ctx context.Context, id uint, update UserUpdate) (*model.User, error) {
	changes := map[string]interface{}{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Email != nil {
		changes["email"] = *update.Email
	}
	if update.Role != nil {
		changes["role"] = *update.Role
	}
	if update.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes["password_hash"] = string(hashed)
	}

	return s.repo.Update(ctx, id, changes)
}

func (s *userService) DeleteUser(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.Delete(ctx, id)
}
