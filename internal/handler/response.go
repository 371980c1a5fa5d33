package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-showtime-scheduler/internal/service"
)

type envelope struct {
    Success bool   `json:"success"`
    Message string `json:"message,omitempty"`
    Field   string `json:"field,omitempty"`
    Data    any    `json:"data,omitempty"`
}

func ok(c echo.Context, status int, msg string, data any) error {
    return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, envelope{Success: false, Message: msg})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(k service.Kind) int {
    switch k {
    case service.KindValidation:
        return http.StatusBadRequest
    case service.KindNotFound:
        return http.StatusNotFound
    }
    return http.StatusInternalServerError
}

// writeError renders a service error.  Client errors carry the violated
// rule and the field; anything else is logged with its cause and reported
// as a generic server error.
func writeError(c echo.Context, log logrus.FieldLogger, op string, err error) error {
    kind := service.KindOf(err)
    status := statusFor(kind)
    if status < http.StatusInternalServerError {
        body := envelope{Success: false, Message: err.Error()}
        var se *service.Error
        if errors.As(err, &se) {
            body.Message = se.Message
            body.Field = se.Field
        }
        return c.JSON(status, body)
    }
    log.WithFields(logrus.Fields{
        "op":     op,
        "kind":   kind.String(),
        "path":   c.Request().URL.Path,
        "req_id": c.Response().Header().Get(echo.HeaderXRequestID),
    }).WithError(unwrapCause(err)).Error("showtime operation failed")
    return fail(c, status, "server error")
}

func unwrapCause(err error) error {
    var se *service.Error
    if errors.As(err, &se) && se.Err != nil {
        return se.Err
    }
    return err
}
