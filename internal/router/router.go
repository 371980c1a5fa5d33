package router // package router defines how HTTP routes are registered for the API

import (
    "database/sql"

    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/cinema-showtime-scheduler/internal/handler"    // handlers implementing each endpoint
    "github.com/iliyamo/cinema-showtime-scheduler/internal/middleware" // JWT authentication and role enforcement
    "github.com/iliyamo/cinema-showtime-scheduler/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
    // Load balancers poll this to decide whether the instance takes traffic.
    e.GET("/healthz", handler.Health(db))
}

// RegisterShowtimes mounts the showtime API under /v1/showtimes.  cacheMW
// wraps the whole group so reads are cached and successful writes purge
// the cache.  When jwtSecret is non-empty the mutating routes additionally
// require an ADMIN bearer token; reads stay public.
func RegisterShowtimes(e *echo.Echo, h *handler.ShowtimeHandler, cacheMW echo.MiddlewareFunc, jwtSecret string) {
    g := e.Group("/v1/showtimes", cacheMW)

    g.GET("", h.ListShowtimes)
    g.GET("/:id", h.GetShowtime)

    var guards []echo.MiddlewareFunc
    if jwtSecret != "" {
        guards = append(guards, middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleAdmin))
    }
    g.POST("", h.CreateShowtime, guards...)
    g.PATCH("/:id", h.UpdateShowtime, guards...)
    g.DELETE("/:id", h.DeleteShowtime, guards...)
}
