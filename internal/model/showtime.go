package model

import "time"

// DateRange is the closed screening window of a showtime.  End may equal
// Start (a single-day run) but never precede it.
type DateRange struct {
    Start time.Time `json:"start"`
    End   time.Time `json:"end"`
}

// Valid reports whether both endpoints are set and End is not before Start.
func (r DateRange) Valid() bool {
    return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Showtime schedules one movie at one theater over a date range.  It
// corresponds to a row in the `showtimes` table.
//
// Fields:
//  ID            – primary key, assigned by the store.
//  MovieID       – opaque catalog identifier; not checked against movies.
//  Theater       – name of the screening venue.
//  ShowDateRange – first and last screening day.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – refreshed on every mutation.
type Showtime struct {
    ID            uint64    `json:"id"`            // showtimes.id
    MovieID       string    `json:"movie"`         // showtimes.movie_id
    Theater       string    `json:"theater"`       // showtimes.theater
    ShowDateRange DateRange `json:"showDateRange"` // showtimes.range_start / range_end
    CreatedAt     time.Time `json:"createdAt"`     // showtimes.created_at
    UpdatedAt     time.Time `json:"updatedAt"`     // showtimes.updated_at
}

// ShowtimeView is a showtime joined with its movie for display.  Movie is
// nil when the identifier no longer resolves in the catalog.
type ShowtimeView struct {
    ID            uint64        `json:"id"`
    MovieID       string        `json:"movie_id"`
    Movie         *MovieSummary `json:"movie"`
    Theater       string        `json:"theater"`
    ShowDateRange DateRange     `json:"showDateRange"`
    CreatedAt     time.Time     `json:"createdAt"`
    UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewShowtimeView pairs a stored showtime with its resolved movie.
func NewShowtimeView(s Showtime, m *MovieSummary) ShowtimeView {
    return ShowtimeView{
        ID:            s.ID,
        MovieID:       s.MovieID,
        Movie:         m,
        Theater:       s.Theater,
        ShowDateRange: s.ShowDateRange,
        CreatedAt:     s.CreatedAt,
        UpdatedAt:     s.UpdatedAt,
    }
}
