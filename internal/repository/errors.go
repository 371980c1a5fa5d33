// Package repository holds the MySQL data access layer for showtimes and
// the read-only movie lookups used to enrich them.  Sentinel errors let
// the service layer tell a missing row apart from a store failure.
package repository

import "errors"

// ErrShowtimeNotFound is returned when no showtime row matches an id.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrMovieNotFound is returned when a movie id does not resolve in the catalog.
var ErrMovieNotFound = errors.New("movie not found")
