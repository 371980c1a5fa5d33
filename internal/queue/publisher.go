package queue

import (
    "context"
    "encoding/json"
    "net"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Publisher sends showtime events to RabbitMQ.  Each publish opens its own
// connection, so a broker outage only affects the events raised while it
// lasts.  Errors are logged and returned; callers are free to ignore them.
type Publisher struct {
    url   string
    queue string
    log   logrus.FieldLogger
}

func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    return &Publisher{url: url, queue: ShowtimeQueue, log: log.WithField("component", "event-publisher")}
}

// PublishShowtimeEvent marshals ev and publishes it as a persistent
// message on the showtime queue.
func (p *Publisher) PublishShowtimeEvent(ctx context.Context, ev ShowtimeEvent) error {
    log := p.log.WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type, "showtime_id": ev.ShowtimeID})

    body, err := json.Marshal(ev)
    if err != nil {
        log.WithError(err).Error("marshal event failed")
        return err
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      dialContext(ctx),
    })
    if err != nil {
        log.WithError(err).Warn("dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        log.WithError(err).Warn("queue declare failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        MessageId:    ev.ID,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        log.WithError(err).Warn("publish failed")
        return err
    }
    log.Debug("event published")
    return nil
}

// handshakeTimeout bounds the AMQP handshake when ctx carries no deadline.
const handshakeTimeout = 5 * time.Second

// dialContext returns an amqp dial func tied to ctx.  The TCP connect
// honours cancellation and the handshake runs under ctx's deadline; the
// library clears the deadline once the connection is open.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        var d net.Dialer
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        deadline, ok := ctx.Deadline()
        if !ok {
            deadline = time.Now().Add(handshakeTimeout)
        }
        if err := conn.SetDeadline(deadline); err != nil {
            _ = conn.Close()
            return nil, err
        }
        return conn, nil
    }
}
