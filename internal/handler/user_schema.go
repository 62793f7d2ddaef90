package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/model"
)

// updateUserRequest is a partial update; every field is optional but at least
// one must be present.
type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// normalize trims name and email and lowercases email, before validation so
// length and format rules apply to the stored form.
func (r *updateUserRequest) normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &normalized
	}
}

func (r *updateUserRequest) isEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil && r.Role == nil
}

type signUpRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=128"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (r *signUpRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Response envelopes ---

type userResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type usersResponse struct {
	Message string       `json:"message"`
	Users   []model.User `json:"users"`
	Count   int          `json:"count"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// parseUserID coerces the :id path parameter to a positive integer.
func parseUserID(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "id",
			Message: "id must be a positive integer",
		})
	}
	return uint(id), nil
}

// errUnauthenticated is returned when a handler runs without attached claims,
// which only happens if the route is miswired.
func errUnauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{Error: "Unauthorized"})
}

func errForbidden() error {
	return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{Error: "Forbidden"})
}
