package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenCookieName is the single cookie carrying the session token.
const TokenCookieName = "token"

// CookieManager writes and clears the session cookie with consistent attributes.
type CookieManager struct {
	secure bool
}

// NewCookieManager creates a cookie manager. secure should be true in production
// so the cookie is only sent over HTTPS.
func NewCookieManager(secure bool) *CookieManager {
	return &CookieManager{secure: secure}
}

// Set writes the token cookie on the response.
func (m *CookieManager) Set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the token cookie on the response.
func (m *CookieManager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Read returns the raw token cookie value, or an error when the cookie is absent.
func Read(c echo.Context) (string, error) {
	cookie, err := c.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", http.ErrNoCookie
	}
	return cookie.Value, nil
}
