package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"acquisitions/internal/auth"
	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/metrics"
	"acquisitions/internal/middleware"
	"acquisitions/internal/service"
)

// UserHandler bundles the user account endpoints.
type UserHandler struct {
	svc      service.UserService
	sessions auth.SessionStoreInterface
	cookies  *auth.CookieManager
	log      zerolog.Logger
}

// NewUserHandler creates the user handler layer.
func NewUserHandler(svc service.UserService, sessions auth.SessionStoreInterface, cookies *auth.CookieManager, log zerolog.Logger) *UserHandler {
	return &UserHandler{svc: svc, sessions: sessions, cookies: cookies, log: log}
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {object} usersResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return errUnauthenticated()
	}
	if !claims.IsAdmin() {
		return errForbidden()
	}

	h.log.Info().Str("email", claims.Email).Msg("listing users")
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, usersResponse{
		Message: "Successfully fetched all users",
		Users:   users,
		Count:   len(users),
	})
}

// GetUser godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} userResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return errUnauthenticated()
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if !claims.IsAdmin() && !claims.IsSelf(id) {
		return errForbidden()
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{
		Message: "Successfully fetched user",
		User:    user,
	})
}

// UpdateUser godoc
// @Summary Update a user
// @Description Admins can update any user; users can update themselves. Only admins may change roles.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body updateUserRequest true "Fields to update"
// @Success 200 {object} userResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return errUnauthenticated()
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error:   "Validation failed",
			Message: "Invalid request body",
		})
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.isEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error:   "Validation failed",
			Message: "At least one field must be provided",
		})
	}

	isAdmin := claims.IsAdmin()
	if !isAdmin && !claims.IsSelf(id) {
		return errForbidden()
	}
	// Role changes are admin-only, even when the value would not change.
	if !isAdmin && req.Role != nil {
		return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
			Error:   "Forbidden",
			Message: "Only admins can change user roles",
		})
	}

	h.log.Info().Uint("id", id).Str("by", claims.Email).Msg("updating user")
	updated, err := h.svc.UpdateUser(c.Request().Context(), id, service.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("update").Inc()

	return c.JSON(http.StatusOK, userResponse{
		Message: "User updated",
		User:    updated,
	})
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Admins can delete any user; users can delete themselves. Self-delete clears the session cookie.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} userResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return errUnauthenticated()
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	isSelf := claims.IsSelf(id)
	if !claims.IsAdmin() && !isSelf {
		return errForbidden()
	}

	h.log.Info().Uint("id", id).Str("by", claims.Email).Msg("deleting user")
	deleted, err := h.svc.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("delete").Inc()

	if isSelf {
		_ = service.RevokeSession(c.Request().Context(), h.sessions, claims)
		h.cookies.Clear(c)
	}

	return c.JSON(http.StatusOK, userResponse{
		Message: "User deleted",
		User:    deleted,
	})
}
