package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/staff-auth/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the authenticated identity into the request
// context. Signature, issuer, audience and expiry are all enforced;
// a token failing any of them is rejected with 401. On success the
// context carries "user_id" (uint64), "matricule" (string) and
// "roles" ([]string) for handlers and downstream middleware.
func JWTAuth(secret, issuer, audience string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := new(utils.AccessClaims)
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				// Reject tokens signed with anything but HMAC.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithIssuer(issuer), jwt.WithAudience(audience), jwt.WithExpirationRequired())
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "invalid token"})
			}

			uid, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "invalid claims"})
			}

			c.Set("user_id", uid)
			c.Set("matricule", claims.Matricule)
			c.Set("roles", claims.Roles)
			return next(c)
		}
	}
}
