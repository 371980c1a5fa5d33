package model

import "time"

// MovieSummary holds the denormalized movie fields shown next to a
// showtime.  Movies are owned by the catalog; the scheduler only reads them.
type MovieSummary struct {
    ID          string     `json:"id"`           // movies.id
    Title       string     `json:"title"`        // movies.title
    Genre       string     `json:"genre"`        // movies.genre
    DurationMin uint32     `json:"duration_min"` // movies.duration_min
    PosterURL   string     `json:"poster_url"`   // movies.poster_url
    ReleaseDate *time.Time `json:"release_date"` // movies.release_date, NULL when unknown
}
