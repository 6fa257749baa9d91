package middleware

// identity.go holds helpers shared across middleware files for
// identifying the requesting user. JWTAuth stores the numeric user
// id under "user_id"; rate limiting and logging want a string form
// and fall back to "anon" for unauthenticated requests.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user id as a string, or
// "anon" when the request carries no identity.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
