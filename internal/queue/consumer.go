package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "strconv"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/stadium-seat-reservation/internal/config"
)

// Consumer appends every SeatsReservedEvent of the reservation queue to a
// log file, one line per reservation.
type Consumer struct {
    cfg    config.AMQPConfig
    logger *log.Logger
}

// NewConsumer returns a Consumer for cfg.
func NewConsumer(cfg config.AMQPConfig, logger *log.Logger) *Consumer {
    return &Consumer{cfg: cfg, logger: logger}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broken
// connections are re-dialed with exponential backoff capped at 30s.  A
// message that can't be handled is rejected without requeue so a bad
// payload can't spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.cfg.URL)
        if err != nil {
            c.logger.Warnf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.Warnf("reservation-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.Warnf("reservation-consumer: set QoS failed: %v", err)
    }
    if _, err := declareQueue(ch, c.cfg.Queue); err != nil {
        return err
    }
    msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.logger.Infof("reservation-consumer: consuming %s into %s", c.cfg.Queue, c.cfg.LogPath)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(c.cfg.LogPath, d.Body); err != nil {
                c.logger.Errorf("reservation-consumer: handle message %s failed: %v", d.MessageId, err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes a SeatsReservedEvent and appends it to the file at
// path, creating parent directories as needed.
func HandleMessage(path string, body []byte) error {
    var ev SeatsReservedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.MatchID == 0 || len(ev.SeatIDs) == 0 {
        return errors.New("event without match or seats")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders one reservation as a single log line.
func FormatLine(ev SeatsReservedEvent) string {
    ids := make([]string, len(ev.SeatIDs))
    for i, id := range ev.SeatIDs {
        ids[i] = strconv.FormatUint(id, 10)
    }
    return fmt.Sprintf("[%s] Seats reserved | match_id=%d | match=%q | stadium=%q | date=%q | time=%q | buyer_id=%d | seats=[%s]\n",
        ev.ReservedAt, ev.MatchID, ev.Match, ev.Stadium, ev.Date, ev.Time, ev.BuyerID, strings.Join(ids, ","))
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
