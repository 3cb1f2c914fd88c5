// Package service publishes audit events to RabbitMQ.  Publishing never
// fails the caller: errors are logged and the event is dropped.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    q "github.com/iliyamo/cinema-catalog-bot/internal/queue"
)

const publishTimeout = 3 * time.Second

// AuditPublisher keeps one connection and channel open and redials on
// the next publish after a failure.
type AuditPublisher struct {
    url string
    log zerolog.Logger
    now func() time.Time

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewAuditPublisher(url string, log zerolog.Logger) *AuditPublisher {
    return &AuditPublisher{url: url, log: log, now: time.Now}
}

// Record implements the conversation auditor.
func (p *AuditPublisher) Record(ctx context.Context, action string, actorID int64, subject string) {
    ev := p.newEvent(action, actorID, subject)
    ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
    defer cancel()
    if err := p.Publish(ctx, ev); err != nil {
        p.log.Warn().Err(err).Str("action", action).Msg("audit publish failed")
    }
}

func (p *AuditPublisher) newEvent(action string, actorID int64, subject string) q.CatalogEvent {
    return q.CatalogEvent{
        ID:         uuid.NewString(),
        Action:     action,
        ActorID:    actorID,
        Subject:    subject,
        OccurredAt: p.now().UTC(),
    }
}

// Publish sends ev as a persistent JSON message to the audit queue.
func (p *AuditPublisher) Publish(ctx context.Context, ev q.CatalogEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx, "", q.AuditQueue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Timestamp:    ev.OccurredAt,
        Body:         body,
    })
    if err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns the open channel, dialing when needed.  The dial and
// handshake are bounded by ctx's deadline.  Callers hold mu.
func (p *AuditPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if err := ctx.Err(); err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout(ctx)),
    })
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(q.AuditQueue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func dialTimeout(ctx context.Context) time.Duration {
    if deadline, ok := ctx.Deadline(); ok {
        if d := time.Until(deadline); d > 0 {
            return d
        }
    }
    return publishTimeout
}

func (p *AuditPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *AuditPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
