package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// AuditConsumer drains the showtime queue and appends one line per event
// to an audit log file.
type AuditConsumer struct {
    URL     string
    LogPath string
    Log     logrus.FieldLogger
}

// Run connects to RabbitMQ, declares the showtime queue and consumes until
// ctx is cancelled.  Connection failures are retried with exponential
// backoff capped at 30s; a malformed message is rejected without requeue
// so it cannot wedge the loop.
func (a *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            a.Log.WithError(err).Warnf("audit-consumer: dial failed; retrying in %s", backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = a.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        a.Log.WithError(err).Warn("audit-consumer: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        a.Log.WithError(err).Warn("audit-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(ShowtimeQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ShowtimeQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := AppendAuditLine(a.LogPath, d.Body); err != nil {
                a.Log.WithError(err).Error("audit-consumer: handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// AppendAuditLine decodes a ShowtimeEvent and appends a single
// human-readable line to path, creating the file and its directory.
func AppendAuditLine(path string, body []byte) error {
    var ev ShowtimeEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ShowtimeID == 0 {
        return errors.New("event missing type or showtime_id")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] %s | showtime_id=%d | movie=%q | theater=%q | range=%s..%s\n",
        ev.OccurredAt, ev.Type, ev.ShowtimeID, ev.MovieID, ev.Theater, ev.Start, ev.End)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
