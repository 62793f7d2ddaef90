package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"acquisitions/internal/auth"
	apperrors "acquisitions/internal/errors"
)

// CurrentUserKey is the context key under which verified claims are stored.
const CurrentUserKey = "current_user"

// Middleware builds the request interceptors guarding API routes.
type Middleware struct {
	secret   []byte
	sessions auth.SessionStoreInterface
	log      zerolog.Logger
}

// New creates the middleware set.
func New(jwtSecret string, sessions auth.SessionStoreInterface, log zerolog.Logger) *Middleware {
	return &Middleware{secret: []byte(jwtSecret), sessions: sessions, log: log}
}

// CurrentUser returns the verified identity attached to the request, or nil
// when the request is unauthenticated.
func CurrentUser(c echo.Context) *auth.Claims {
	claims, ok := c.Get(CurrentUserKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func (m *Middleware) jwtConfig() echojwt.Config {
	return echojwt.Config{
		SigningKey:  m.secret,
		TokenLookup: "cookie:" + auth.TokenCookieName,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		SuccessHandler: func(c echo.Context) {
			if token, ok := c.Get("user").(*jwt.Token); ok {
				if claims, ok := token.Claims.(*auth.Claims); ok {
					c.Set(CurrentUserKey, claims)
				}
			}
		},
	}
}

// RequireAuth rejects requests without a valid, unrevoked token cookie.
// A missing cookie and a bad token produce distinct 401 messages.
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	cfg := m.jwtConfig()
	cfg.ErrorHandler = func(c echo.Context, err error) error {
		if _, rerr := auth.Read(c); rerr != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Missing token",
			})
		}
		m.log.Warn().Err(err).Str("path", c.Path()).Msg("token verification failed")
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid or expired token",
		})
	}
	jwtMW := echojwt.WithConfig(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMW(func(c echo.Context) error {
			claims := CurrentUser(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:   "Unauthorized",
					Message: "Invalid or expired token",
				})
			}
			if revoked, _ := m.sessions.IsRevoked(c.Request().Context(), claims.ID); revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:   "Unauthorized",
					Message: "Invalid or expired token",
				})
			}
			m.log.Debug().Str("email", claims.Email).Str("role", claims.Role).Msg("user authenticated")
			return next(c)
		})
	}
}

// OptionalAuth attaches the identity when a valid token cookie is present and
// swallows every verification failure. It never produces an error response.
func (m *Middleware) OptionalAuth() echo.MiddlewareFunc {
	cfg := m.jwtConfig()
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(c echo.Context, err error) error {
		return nil
	}
	jwtMW := echojwt.WithConfig(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMW(func(c echo.Context) error {
			if claims := CurrentUser(c); claims != nil {
				if revoked, _ := m.sessions.IsRevoked(c.Request().Context(), claims.ID); revoked {
					c.Set(CurrentUserKey, (*auth.Claims)(nil))
				}
			}
			return next(c)
		})
	}
}

// RequireRole gates a route to the given roles. It expects RequireAuth (or
// OptionalAuth) to have run first; an empty allow-set denies everything.
func (m *Middleware) RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentUser(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:   "Authentication required",
					Message: "User not authenticated",
				})
			}
			if _, ok := allowed[claims.Role]; !ok {
				m.log.Warn().
					Str("email", claims.Email).
					Str("role", claims.Role).
					Strs("required", allowedRoles).
					Msg("access denied")
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error:   "Access denied",
					Message: "Insufficient permissions",
				})
			}
			return next(c)
		}
	}
}
