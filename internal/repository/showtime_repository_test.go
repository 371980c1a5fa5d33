package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/model"
)

var cols = []string{"id", "movie_id", "theater", "range_start", "range_end", "created_at", "updated_at"}

func newMock(t *testing.T) (*ShowtimeRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewShowtimeRepo(db), mock
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestShowtimeRepoCreate(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO showtimes").
		WithArgs("m1", "Grand", day("2024-01-05"), day("2024-01-10")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(42, "m1", "Grand", day("2024-01-05"), day("2024-01-10"), now, now))
	mock.ExpectCommit()

	s := &model.Showtime{MovieID: "m1", Theater: "Grand", ShowDateRange: model.DateRange{Start: day("2024-01-05"), End: day("2024-01-10")}}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, uint64(42), s.ID)
	assert.Equal(t, now, s.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoCreateInsertFails(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO showtimes").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Showtime{MovieID: "m1", Theater: "Grand"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert showtime")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoCreateReloadFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO showtimes").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WithArgs(uint64(42)).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	s := &model.Showtime{MovieID: "m1", Theater: "Grand"}
	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoCreateCommitFailure(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO showtimes").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "m1", "Grand", day("2024-01-05"), day("2024-01-10"), now, now))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &model.Showtime{MovieID: "m1", Theater: "Grand"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WithArgs(uint64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}

func TestShowtimeRepoListOrdered(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM showtimes ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "m1", "Grand", day("2024-01-05"), day("2024-01-10"), now, now).
			AddRow(2, "m2", "Odeon", day("2024-02-01"), day("2024-02-01"), now, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].ID)
	assert.Equal(t, "Odeon", list[1].Theater)
}

func TestShowtimeRepoListEmpty(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM showtimes ORDER BY id ASC").WillReturnRows(sqlmock.NewRows(cols))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestShowtimeRepoUpdateMissingRow(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE showtimes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Showtime{ID: 5, MovieID: "m1", Theater: "Grand"})
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoUpdateReloads(t *testing.T) {
	repo, mock := newMock(t)
	later := time.Now().UTC().Add(time.Minute)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE showtimes").
		WithArgs("m1", "Odeon", day("2024-01-05"), day("2024-01-06"), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, "m1", "Odeon", day("2024-01-05"), day("2024-01-06"), later, later))
	mock.ExpectCommit()

	s := &model.Showtime{ID: 5, MovieID: "m1", Theater: "Odeon", ShowDateRange: model.DateRange{Start: day("2024-01-05"), End: day("2024-01-06")}}
	require.NoError(t, repo.Update(context.Background(), s))
	assert.Equal(t, later, s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoUpdateReloadFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE showtimes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = ?").
		WithArgs(uint64(5)).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	s := &model.Showtime{ID: 5, MovieID: "m1", Theater: "Odeon"}
	err := repo.Update(context.Background(), s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Odeon", s.Theater)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoDelete(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "m1", "Grand", day("2024-01-05"), day("2024-01-10"), now, now))
	mock.ExpectExec("DELETE FROM showtimes WHERE id = ?").WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := repo.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Grand", s.Theater)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeRepoDeleteMissingRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM showtimes WHERE id = \\? FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	s, err := repo.Delete(context.Background(), 3)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieRepoResolve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMovieRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM movies WHERE id = ?").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "genre", "duration_min", "poster_url", "release_date"}).
			AddRow("m1", "Heat", "Crime", 170, "", nil))
	mock.ExpectQuery("SELECT (.+) FROM movies WHERE id = ?").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	m, err := repo.ResolveMovie(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Heat", m.Title)
	assert.Nil(t, m.ReleaseDate)

	_, err = repo.ResolveMovie(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
