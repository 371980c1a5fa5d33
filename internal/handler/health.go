package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health returns a health-check endpoint for load balancers.  It answers
// "ok" with 200 when the database responds to a ping within two seconds
// and "unavailable" with 503 otherwise.  A nil db skips the ping.
func Health(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "unavailable")
            }
        }
        return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status; String writes plain text
    }
}
