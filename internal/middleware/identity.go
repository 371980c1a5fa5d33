package middleware

// identity.go holds the helpers that read the caller identity JWTAuth puts
// into the Echo context.  Requests without a token are "guest".

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// userID returns the authenticated subject or "guest".  JWT numeric claims
// decode as float64, so they are formatted without a fraction.
func userID(c echo.Context) string {
    switch v := c.Get(ctxUserID).(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return fmt.Sprintf("%.0f", v)
    case uint64, int64, int:
        return fmt.Sprint(v)
    }
    return "guest"
}
