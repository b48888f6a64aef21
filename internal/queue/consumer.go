// Package queue contains the background consumer that reads crawler items
// from RabbitMQ and hands them to the reconciliation pipeline, one delivery
// at a time, acknowledging each according to the outcome.
package queue

import (
    "context"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cinema-reconciler/internal/item"
    "github.com/iliyamo/cinema-reconciler/internal/logging"
    "github.com/iliyamo/cinema-reconciler/internal/metrics"
    "github.com/iliyamo/cinema-reconciler/internal/reconcile"
)

// Handler reconciles one decoded envelope.  *reconcile.Pipeline implements it.
type Handler interface {
    Handle(ctx context.Context, env item.Envelope) error
}

// Decision is what happens to a delivery once it was handled.
type Decision int

const (
    Ack     Decision = iota // processed, or dropped as a duplicate
    Requeue                 // transient storage failure; deliver again
    Reject                  // unusable; discard without requeue
)

func (d Decision) String() string {
    switch d {
    case Ack:
        return "ack"
    case Requeue:
        return "requeue"
    default:
        return "reject"
    }
}

// Decide maps a handling error onto an acknowledgement.  Storage conflicts
// and outages are retried by the broker; malformed items and unclassified
// failures are rejected so one bad item never blocks the queue.
func Decide(err error) Decision {
    return decide(err, false)
}

// decide is Decide for a delivery that may already have been requeued once.
// A conflict that survives its retry is rejected rather than cycled through
// the queue forever; an outage keeps requeuing until storage is back.
func decide(err error, redelivered bool) Decision {
    switch {
    case err == nil:
        return Ack
    case errors.Is(err, reconcile.ErrStorageConflict):
        if redelivered {
            return Reject
        }
        return Requeue
    case errors.Is(err, reconcile.ErrStorageUnavailable):
        return Requeue
    default:
        return Reject
    }
}

// Consumer consumes the item queue.
type Consumer struct {
    url      string
    queue    string
    prefetch int
    handler  Handler
}

// NewConsumer builds a Consumer for queue on the broker at url.
func NewConsumer(url, queue string, prefetch int, h Handler) *Consumer {
    if prefetch < 1 {
        prefetch = 1
    }
    return &Consumer{url: url, queue: queue, prefetch: prefetch, handler: h}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    log := logging.With().Str("component", "consumer").Str("queue", c.queue).Logger()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        log.Info().Msg("consumer connected")
        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(c.prefetch, 0, false); err != nil {
        return fmt.Errorf("set QoS: %w", err)
    }
    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
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
            if err := c.Process(ctx, d); err != nil {
                return err
            }
        }
    }
}

// Process handles one delivery and acknowledges it.  The returned error is
// only non-nil when the acknowledgement itself failed, which means the
// channel is gone.
func (c *Consumer) Process(ctx context.Context, d amqp.Delivery) error {
    id := d.CorrelationId
    if id == "" {
        id = logging.GenerateCorrelationID()
    }
    ctx = logging.ContextWithCorrelationID(ctx, id)

    env, err := item.ParseEnvelope(d.Body)
    if err == nil {
        err = c.handler.Handle(ctx, env)
    } else {
        metrics.RecordItem("unknown", "malformed", 0)
    }

    decision := decide(err, d.Redelivered)
    metrics.QueueDeliveries.WithLabelValues(decision.String()).Inc()
    if err != nil {
        logging.Ctx(ctx).Warn().Err(err).
            Uint64("delivery_tag", d.DeliveryTag).
            Bool("redelivered", d.Redelivered).
            Str("decision", decision.String()).
            Msg("item not applied")
    }

    switch decision {
    case Ack:
        return d.Ack(false)
    case Requeue:
        return d.Nack(false, true)
    default:
        return d.Nack(false, false)
    }
}
