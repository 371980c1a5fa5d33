package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request after the handler
// finishes.  Handler errors are passed to Echo's error handler first so the
// logged status matches what the client received.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            entry := log.WithFields(logrus.Fields{
                "req_id": res.Header().Get(echo.HeaderXRequestID),
                "method": req.Method,
                "path":   req.URL.Path,
                "status": res.Status,
                "dur_ms": time.Since(start).Milliseconds(),
                "ip":     c.RealIP(),
                "user":   userID(c),
                "cache":  res.Header().Get("X-Cache"),
            })
            switch {
            case res.Status >= 500:
                entry.Error("handled request")
            case res.Status >= 400:
                entry.Warn("handled request")
            default:
                entry.Info("handled request")
            }
            return nil
        }
    }
}
