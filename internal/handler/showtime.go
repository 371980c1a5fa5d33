package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-showtime-scheduler/internal/model"
    "github.com/iliyamo/cinema-showtime-scheduler/internal/service"
)

// ShowtimeService is the scheduling API the handlers drive.
type ShowtimeService interface {
    ListShowtimes(ctx context.Context) ([]model.ShowtimeView, error)
    GetShowtime(ctx context.Context, id uint64) (*model.ShowtimeView, error)
    CreateShowtime(ctx context.Context, in service.CreateShowtimeInput) (*model.Showtime, error)
    UpdateShowtime(ctx context.Context, id uint64, p service.ShowtimePatch) (*model.Showtime, error)
    DeleteShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
}

// ShowtimeHandler serves the /v1/showtimes endpoints.
type ShowtimeHandler struct {
    Svc ShowtimeService
    Log logrus.FieldLogger
}

// NewShowtimeHandler panics if svc is nil, like the other constructors.
func NewShowtimeHandler(svc ShowtimeService, log logrus.FieldLogger) *ShowtimeHandler {
    if svc == nil {
        panic("nil service passed to NewShowtimeHandler")
    }
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &ShowtimeHandler{Svc: svc, Log: log}
}

// showtimeID parses the :id path parameter.  No record can carry a
// malformed id, so a parse failure is reported the same as an unknown id.
func showtimeID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

// ListShowtimes handles GET /v1/showtimes.
func (h *ShowtimeHandler) ListShowtimes(c echo.Context) error {
    list, err := h.Svc.ListShowtimes(c.Request().Context())
    if err != nil {
        return writeError(c, h.Log, "list", err)
    }
    return c.JSON(http.StatusOK, envelope{Success: true, Data: list})
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *ShowtimeHandler) GetShowtime(c echo.Context) error {
    id, valid := showtimeID(c)
    if !valid {
        return fail(c, http.StatusNotFound, "showtime not found")
    }
    v, err := h.Svc.GetShowtime(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, "get", err)
    }
    return ok(c, http.StatusOK, "", v)
}

// CreateShowtime handles POST /v1/showtimes.
func (h *ShowtimeHandler) CreateShowtime(c echo.Context) error {
    var body createShowtimeReq
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    st, err := h.Svc.CreateShowtime(c.Request().Context(), service.CreateShowtimeInput{
        MovieID:  body.MovieID.value(),
        Theater:  body.TheaterName.value(),
        Start:    string(body.StartDate),
        End:      string(body.EndDate),
        ShowDate: string(body.ShowDate),
    })
    if err != nil {
        return writeError(c, h.Log, "create", err)
    }
    return ok(c, http.StatusCreated, "Showtime created successfully!", st)
}

// UpdateShowtime handles PATCH /v1/showtimes/:id.
func (h *ShowtimeHandler) UpdateShowtime(c echo.Context) error {
    id, valid := showtimeID(c)
    if !valid {
        return fail(c, http.StatusNotFound, "showtime not found")
    }
    var body patchShowtimeReq
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    patch := service.ShowtimePatch{
        MovieID: body.Movie.ptr(),
        Theater: body.Theater.ptr(),
    }
    if r := body.ShowDateRange; r != nil {
        patch.ShowDateRange = &service.DateRangePatch{Start: r.Start.ptr(), End: r.End.ptr()}
    }
    st, err := h.Svc.UpdateShowtime(c.Request().Context(), id, patch)
    if err != nil {
        return writeError(c, h.Log, "update", err)
    }
    return ok(c, http.StatusOK, "Showtime updated successfully", st)
}

// DeleteShowtime handles DELETE /v1/showtimes/:id and returns the removed
// record so the caller can confirm what was deleted.
func (h *ShowtimeHandler) DeleteShowtime(c echo.Context) error {
    id, valid := showtimeID(c)
    if !valid {
        return fail(c, http.StatusNotFound, "showtime not found")
    }
    st, err := h.Svc.DeleteShowtime(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, "delete", err)
    }
    return ok(c, http.StatusOK, "Showtime deleted successfully", st)
}
