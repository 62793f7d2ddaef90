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

// AuthHandler handles sign-up, sign-in, and sign-out.
type AuthHandler struct {
	svc     service.AuthService
	jwt     *auth.JWTService
	cookies *auth.CookieManager
	log     zerolog.Logger
}

// NewAuthHandler creates the auth handler layer.
func NewAuthHandler(svc service.AuthService, jwt *auth.JWTService, cookies *auth.CookieManager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, jwt: jwt, cookies: cookies, log: log}
}

// SignUp godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body signUpRequest true "Registration data"
// @Success 201 {object} userResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
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

	role := ""
	if req.Role != nil {
		role = *req.Role
	}
	user, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("create").Inc()

	// Sign the new user in right away.
	token, _, err := h.jwt.GenerateToken(user)
	if err != nil {
		return err
	}
	h.cookies.Set(c, token)

	h.log.Info().Str("email", user.Email).Msg("user registered")
	return c.JSON(http.StatusCreated, userResponse{
		Message: "User registered",
		User:    user,
	})
}

// SignIn godoc
// @Summary Sign in and receive a session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param body body signInRequest true "Credentials"
// @Success 200 {object} userResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error:   "Validation failed",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, _, user, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if err == apperrors.ErrInvalidCredentials {
			metrics.AuthAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	h.cookies.Set(c, token)
	h.log.Info().Str("email", user.Email).Msg("user signed in")
	return c.JSON(http.StatusOK, userResponse{
		Message: "Signed in successfully",
		User:    user,
	})
}

// SignOut godoc
// @Summary Sign out and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return errUnauthenticated()
	}

	if err := h.svc.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	h.cookies.Clear(c)

	return c.JSON(http.StatusOK, messageResponse{Message: "Signed out successfully"})
}
