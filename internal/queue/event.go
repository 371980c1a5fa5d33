// Package queue defines the showtime events exchanged over RabbitMQ along
// with the publisher the service uses and the audit consumer.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/cinema-showtime-scheduler/internal/model"
)

// ShowtimeQueue is the durable queue all showtime events are routed to.
const ShowtimeQueue = "showtime.events"

const (
    EventShowtimeCreated = "showtime.created"
    EventShowtimeUpdated = "showtime.updated"
    EventShowtimeDeleted = "showtime.deleted"
)

// ShowtimeEvent is published after a showtime is created, updated or
// deleted.  It carries the record's state after the change (before it, for
// deletions) so consumers need not query the scheduler.
type ShowtimeEvent struct {
    ID         string `json:"id"`
    Type       string `json:"type"`
    ShowtimeID uint64 `json:"showtime_id"`
    MovieID    string `json:"movie_id"`
    Theater    string `json:"theater"`
    Start      string `json:"start"`
    End        string `json:"end"`
    OccurredAt string `json:"occurred_at"`
}

// NewShowtimeEvent snapshots s under a fresh random id.  Times are
// RFC 3339 in UTC with fractional seconds kept.
func NewShowtimeEvent(typ string, s model.Showtime, at time.Time) ShowtimeEvent {
    return ShowtimeEvent{
        ID:         uuid.NewString(),
        Type:       typ,
        ShowtimeID: s.ID,
        MovieID:    s.MovieID,
        Theater:    s.Theater,
        Start:      s.ShowDateRange.Start.UTC().Format(time.RFC3339Nano),
        End:        s.ShowDateRange.End.UTC().Format(time.RFC3339Nano),
        OccurredAt: at.UTC().Format(time.RFC3339Nano),
    }
}
