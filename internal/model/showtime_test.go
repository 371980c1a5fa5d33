package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestDateRangeValid(t *testing.T) {
    d := func(s string) time.Time {
        v, _ := time.Parse("2006-01-02", s)
        return v
    }
    assert.True(t, DateRange{Start: d("2024-01-05"), End: d("2024-01-10")}.Valid())
    assert.True(t, DateRange{Start: d("2024-01-05"), End: d("2024-01-05")}.Valid())
    assert.False(t, DateRange{Start: d("2024-01-10"), End: d("2024-01-05")}.Valid())
    assert.False(t, DateRange{End: d("2024-01-05")}.Valid())
}

func TestNewShowtimeViewCopiesFields(t *testing.T) {
    now := time.Now().UTC()
    s := Showtime{ID: 7, MovieID: "m1", Theater: "Grand", CreatedAt: now, UpdatedAt: now}
    m := &MovieSummary{ID: "m1", Title: "Heat"}

    v := NewShowtimeView(s, m)
    assert.Equal(t, uint64(7), v.ID)
    assert.Equal(t, "m1", v.MovieID)
    assert.Same(t, m, v.Movie)
    assert.Equal(t, "Grand", v.Theater)
}
