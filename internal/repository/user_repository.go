package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/model"
)

// UserRepository defines persistence operations on the users table. It returns
// typed domain errors so callers never inspect driver error text.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}) (*model.User, error)
	Delete(ctx context.Context, id uint) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// Update applies a partial column update and returns the updated row.
func (r *userRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Model(&user).Updates(changes).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Delete removes the row and returns its last-known state. Deletion is
// physical; a repeat delete reports ErrUserNotFound.
func (r *userRepository) Delete(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Delete(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// translate maps gorm errors to the domain taxonomy. Anything unrecognized
// passes through and surfaces as a 500.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrEmailTaken
	default:
		return err
	}
}
