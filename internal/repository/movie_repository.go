package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/model"
)

// MovieRepo reads movie summaries from the catalog's movies table.  It
// never writes.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// ResolveMovie looks a movie up by identifier.  It returns
// ErrMovieNotFound when the catalog has no such movie.
func (r *MovieRepo) ResolveMovie(ctx context.Context, id string) (*model.MovieSummary, error) {
	const q = `SELECT id, title, genre, duration_min, poster_url, release_date FROM movies WHERE id = ?`
	var (
		m       model.MovieSummary
		release sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMin, &m.PosterURL, &release)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if release.Valid {
		t := release.Time
		m.ReleaseDate = &t
	}
	return &m, nil
}
