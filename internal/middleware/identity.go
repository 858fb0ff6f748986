package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a user identifier used to key rate-limit
// buckets. When no account is authenticated, "anon" is returned so
// anonymous traffic shares one bucket per strategy component.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated account id from context as a
// string. It returns "anon" when no identity was injected by the auth
// middleware.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v > 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
