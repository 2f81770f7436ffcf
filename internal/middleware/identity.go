package middleware

// identity.go provides the single place handlers go through to read
// the authenticated identity that JWTAuth stored in the context.

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// ErrNoIdentity is returned when the context carries no usable
// authenticated user id.
var ErrNoIdentity = errors.New("no authenticated identity")

// CurrentUserID extracts the authenticated user id placed in the
// context by JWTAuth. A missing or malformed value yields
// ErrNoIdentity; handlers translate that into a 400 response.
func CurrentUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return 0, ErrNoIdentity
	}
	return id, nil
}
