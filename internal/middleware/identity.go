package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// AdminID returns the numeric token subject set by JWTAuth.
func AdminID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(currentUserID(c), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// currentUserID returns the token subject, or "anon" for unauthenticated
// requests.
func currentUserID(c echo.Context) string {
	switch v := c.Get(ctxUserID).(type) {
	case string:
		if v != "" {
			return v
		}
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return "anon"
}
