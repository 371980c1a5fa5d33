package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparison
	"fmt"          // fmt wraps driver errors with the failing step

	"github.com/iliyamo/cinema-showtime-scheduler/internal/model"
)

const showtimeColumns = `id, movie_id, theater, range_start, range_end, created_at, updated_at`

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShowtime(r rowScanner, s *model.Showtime) error {
	return r.Scan(
		&s.ID, &s.MovieID, &s.Theater,
		&s.ShowDateRange.Start, &s.ShowDateRange.End,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id uint64) (*model.Showtime, error) {
	var s model.Showtime
	if err := scanShowtime(q.QueryRowContext(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// finish commits tx when *err is nil and rolls it back otherwise.  A
// failed commit is reported through *err.
func finish(tx *sql.Tx, err *error) {
	if *err != nil {
		_ = tx.Rollback()
		return
	}
	if cerr := tx.Commit(); cerr != nil {
		*err = fmt.Errorf("commit: %w", cerr)
	}
}

// Create inserts a new showtime and populates the generated ID and the
// DB-default timestamps on s.  The insert and the read-back share a
// transaction; nothing is committed unless both succeed.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer finish(tx, &err)

	const q = `INSERT INTO showtimes (movie_id, theater, range_start, range_end) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.Theater, s.ShowDateRange.Start.UTC(), s.ShowDateRange.End.UTC())
	if err != nil {
		return fmt.Errorf("insert showtime: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert showtime: %w", err)
	}
	fresh, err := getByID(ctx, tx, uint64(id))
	if err != nil {
		return fmt.Errorf("reload showtime %d: %w", id, err)
	}
	*s = *fresh
	return nil
}

// GetByID retrieves a showtime by its ID.  It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	return getByID(ctx, r.db, id)
}

// List returns every showtime in insertion order.  When none exist it
// returns an empty slice and nil error.
func (r *ShowtimeRepo) List(ctx context.Context) ([]model.Showtime, error) {
	q := `SELECT ` + showtimeColumns + ` FROM showtimes ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Showtime{}
	for rows.Next() {
		var s model.Showtime
		if err := scanShowtime(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes every mutable column of s and refreshes updated_at, then
// reloads the row into s, all in one transaction.  The DSN sets
// clientFoundRows, so zero affected rows means the id no longer exists and
// ErrShowtimeNotFound is returned.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer finish(tx, &err)

	const q = `UPDATE showtimes
               SET movie_id = ?, theater = ?, range_start = ?, range_end = ?, updated_at = CURRENT_TIMESTAMP(3)
               WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		s.MovieID, s.Theater, s.ShowDateRange.Start.UTC(), s.ShowDateRange.End.UTC(), // SET
		s.ID, // WHERE
	)
	if err != nil {
		return fmt.Errorf("update showtime %d: %w", s.ID, err)
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		return ErrShowtimeNotFound
	}
	fresh, err := getByID(ctx, tx, s.ID)
	if err != nil {
		return fmt.Errorf("reload showtime %d: %w", s.ID, err)
	}
	*s = *fresh
	return nil
}

// Delete removes a showtime and returns the row as it was immediately
// before removal.  The read and the delete share a transaction and the
// row is locked in between, so a concurrent update cannot slip past.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) (deleted *model.Showtime, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		finish(tx, &err)
		if err != nil {
			deleted = nil
		}
	}()

	var s model.Showtime
	q := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ? FOR UPDATE`
	if err = scanShowtime(tx.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete showtime %d: %w", id, err)
	}
	return &s, nil
}
