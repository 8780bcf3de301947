package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/stadium-seat-reservation/internal/config"
    "github.com/iliyamo/stadium-seat-reservation/internal/monitoring"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// Publisher sends SeatsReservedEvent messages to the reservation queue.
// It dials per publish, so a broker outage never outlives one request.
type Publisher struct {
    cfg    config.AMQPConfig
    logger *log.Logger
}

// NewPublisher returns a Publisher for cfg.
func NewPublisher(cfg config.AMQPConfig, logger *log.Logger) *Publisher {
    return &Publisher{cfg: cfg, logger: logger}
}

// SeatsReserved publishes the reservation.  Errors are returned
// unlogged; the reservation engine logs and ignores them.
func (p *Publisher) SeatsReserved(ctx context.Context, r service.Reservation) error {
    err := p.publish(ctx, NewSeatsReservedEvent(r))
    monitoring.TrackPublish(err == nil)
    if err != nil {
        return fmt.Errorf("rabbitmq: publish seats.reserved: %w", err)
    }
    p.logger.Debugf("rabbitmq: published seats.reserved for match %d", r.Match.ID)
    return nil
}

func (p *Publisher) publish(ctx context.Context, event SeatsReservedEvent) error {
    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.cfg.URL)
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := declareQueue(ch, p.cfg.Queue); err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    uuid.NewString(),
        Type:         "seats.reserved",
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(
        name,  // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    )
    if err != nil {
        return q, fmt.Errorf("queue declare: %w", err)
    }
    return q, nil
}
